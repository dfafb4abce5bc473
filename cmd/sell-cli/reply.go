package main

import (
	"fmt"
	"strings"

	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/availability"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/spf13/cobra"
)

type replyOptions struct {
	message      string
	availability string
	locations    string
}

func newReplyCmd(a *app) *cobra.Command {
	opts := &replyOptions{}

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Draft replies to a buyer's message",
		Long: `Draft short replies to a buyer using your availability and preferred
meeting spots. Availability and locations are remembered between runs.

Availability is a semicolon separated list of days, each with comma separated
slots (morning, afternoon, evening) or a custom time:

  --availability "Monday:morning,evening;Sat:custom=after 4pm"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeApp, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			saved := a.settings()

			week := saved.Availability
			if cmd.Flags().Changed("availability") {
				week, err = availability.ParseSpec(opts.availability)
				if err != nil {
					return fmt.Errorf("invalid availability: %w", err)
				}
				if a.store != nil {
					if err := a.store.SetAvailability(cliProfileID, week); err != nil {
						return fmt.Errorf("failed to save availability: %w", err)
					}
				}
			}

			locations := strings.TrimSpace(opts.locations)
			if locations == "" {
				locations = saved.MeetingLocations
			} else {
				a.remember(locations, (*storage.SQLiteStore).SetMeetingLocations)
			}

			reply := a.assistant.GenerateReply(cmd.Context(), assistant.ReplyRequest{
				BuyerMessage: opts.message,
				Availability: week,
				Locations:    locations,
			})
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(reply))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "The buyer's message")
	cmd.Flags().StringVarP(&opts.availability, "availability", "a", "", "When you can meet, e.g. \"Mon:morning;Sat:custom=after 4pm\"")
	cmd.Flags().StringVarP(&opts.locations, "locations", "l", "", "Preferred meeting spots")
	cmd.MarkFlagRequired("message")

	return cmd
}
