package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/listing"
	"github.com/raine/marketplace-assistant/internal/prompt"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/spf13/cobra"
)

type listingOptions struct {
	category  string
	condition string
	location  string
	details   string
	bundle    bool
}

func newListingCmd(a *app) *cobra.Command {
	opts := &listingOptions{}

	cmd := &cobra.Command{
		Use:   "listing [flags] image...",
		Short: "Generate a title, description and price range from item photos",
		Long: fmt.Sprintf(`Generate a listing from one or more photos. The model researches recent
sold prices near the given location.

Categories: %s
Conditions: %s`, strings.Join(prompt.Categories, ", "), strings.Join(prompt.Conditions, ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(prompt.Categories, opts.category) {
				return fmt.Errorf("unknown category %q (use one of: %s)", opts.category, strings.Join(prompt.Categories, ", "))
			}
			if !slices.Contains(prompt.Conditions, opts.condition) {
				return fmt.Errorf("unknown condition %q (use one of: %s)", opts.condition, strings.Join(prompt.Conditions, ", "))
			}

			uploads, err := readUploads(args)
			if err != nil {
				return err
			}

			closeApp, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			location := opts.location
			if location == "" {
				location = a.settings().Location
			} else {
				a.remember(location, (*storage.SQLiteStore).SetLocation)
			}

			parsed, err := a.assistant.GenerateListing(cmd.Context(), assistant.ListingRequest{
				Category:  opts.category,
				Condition: opts.condition,
				Location:  location,
				Details:   opts.details,
				IsBundle:  opts.bundle,
				Uploads:   uploads,
			})
			if err != nil {
				return err
			}

			printListing(cmd.OutOrStdout(), parsed)
			if parsed.NeedsRetry() {
				fmt.Fprintln(cmd.ErrOrStderr(), "The response looks incomplete. Run the command again to retry.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.category, "category", "c", "Other", "Item category")
	cmd.Flags().StringVar(&opts.condition, "condition", "Good", "Item condition")
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "City or neighborhood used for price research")
	cmd.Flags().StringVarP(&opts.details, "details", "d", "", "Seller's notes such as brand, size or flaws")
	cmd.Flags().BoolVar(&opts.bundle, "bundle", false, "The photos show several items sold together")

	return cmd
}

func readUploads(paths []string) ([]intake.Upload, error) {
	uploads := make([]intake.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		uploads = append(uploads, intake.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}

func printListing(w io.Writer, parsed listing.Parsed) {
	fmt.Fprintf(w, "Title: %s\n\nDescription: %s\n\nPrice: %s\n", parsed.Title, parsed.Description, parsed.Price)
	if len(parsed.Links) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, link := range parsed.Links {
			fmt.Fprintf(w, "%d. %s\n", i+1, link)
		}
	}
}
