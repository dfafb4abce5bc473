// Package assistant runs the two flows of the selling assistant: generating a
// listing from photos and drafting replies to a buyer.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/raine/marketplace-assistant/internal/availability"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/listing"
	"github.com/raine/marketplace-assistant/internal/llm"
	"github.com/raine/marketplace-assistant/internal/prompt"
	"github.com/rs/zerolog/log"
)

// ErrNoImages is returned when a listing is requested without photos.
var ErrNoImages = errors.New("at least one image is required")

type ListingRequest struct {
	Category  string
	Condition string
	Location  string
	Details   string
	IsBundle  bool
	Uploads   []intake.Upload
}

type ReplyRequest struct {
	BuyerMessage string
	Availability availability.Week
	Locations    string
}

type Assistant struct {
	caller     llm.Caller
	images     *intake.Store
	structured bool
}

// New creates an Assistant. With structured set, listings are requested as
// JSON and parsed with listing.ParseStructured.
func New(caller llm.Caller, images *intake.Store, structured bool) *Assistant {
	return &Assistant{caller: caller, images: images, structured: structured}
}

// GenerateListing saves the uploads, sends them with the listing prompt in
// search mode and parses the answer. Only missing images and local I/O fail;
// model errors end up in the price field of the result.
func (a *Assistant) GenerateListing(ctx context.Context, req ListingRequest) (listing.Parsed, error) {
	if len(req.Uploads) == 0 {
		return listing.Parsed{}, ErrNoImages
	}

	paths, err := a.images.Save(req.Uploads)
	if err != nil {
		return listing.Parsed{}, err
	}
	images, err := a.images.Load(paths)
	if err != nil {
		return listing.Parsed{}, fmt.Errorf("failed to load images: %w", err)
	}

	var p string
	if a.structured {
		p = prompt.StructuredListingPrompt(req.Category, req.Condition, req.Location, req.Details, req.IsBundle)
	} else {
		p = prompt.ListingPrompt(req.Category, req.Condition, req.Location, req.Details, req.IsBundle)
	}

	raw := a.caller.Call(ctx, p, images, true)

	var parsed listing.Parsed
	if a.structured {
		parsed = listing.ParseStructured(raw)
	} else {
		parsed = listing.Parse(raw)
	}

	log.Info().
		Str("category", req.Category).
		Int("imageCount", len(images)).
		Bool("needsRetry", parsed.NeedsRetry()).
		Int("linkCount", len(parsed.Links)).
		Msg("listing generated")

	return parsed, nil
}

// GenerateReply asks for reply drafts. The model text, including any
// "Error:" text, is returned as is.
func (a *Assistant) GenerateReply(ctx context.Context, req ReplyRequest) string {
	p := prompt.ResponsePrompt(req.BuyerMessage, req.Availability.Summary(), req.Locations)
	return a.caller.Call(ctx, p, nil, false)
}
