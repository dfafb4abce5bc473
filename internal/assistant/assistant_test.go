package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/raine/marketplace-assistant/internal/availability"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callerStub struct {
	response string

	calls     int
	prompt    string
	images    [][]byte
	useSearch bool
}

func (c *callerStub) Call(ctx context.Context, prompt string, images [][]byte, useSearch bool) string {
	c.calls++
	c.prompt = prompt
	c.images = images
	c.useSearch = useSearch
	return c.response
}

func carSeatRequest() ListingRequest {
	return ListingRequest{
		Category:  "Baby & Toddler",
		Condition: "Like New",
		Location:  "Seattle, WA",
		Details:   "Graco, 2019",
		Uploads: []intake.Upload{
			{Name: "front.jpg", Data: []byte("front")},
			{Name: "back.jpg", Data: []byte("back")},
		},
	}
}

func TestGenerateListing(t *testing.T) {
	caller := &callerStub{response: "Title: Graco Car Seat\nDescription: Barely used\nPrice: $40-60, see https://ebay.com/x"}
	dir := t.TempDir()
	a := New(caller, intake.NewStore(dir, false), false)

	parsed, err := a.GenerateListing(context.Background(), carSeatRequest())
	require.NoError(t, err)

	assert.Equal(t, listing.Parsed{
		Title:       "Graco Car Seat",
		Description: "Barely used",
		Price:       "$40-60, see https://ebay.com/x",
		Links:       []string{"https://ebay.com/x"},
	}, parsed)

	assert.Equal(t, 1, caller.calls)
	assert.True(t, caller.useSearch)
	assert.Equal(t, [][]byte{[]byte("front"), []byte("back")}, caller.images)
	assert.Contains(t, caller.prompt, "Baby & Toddler item in Like New condition")
	assert.Contains(t, caller.prompt, "Seattle, WA")

	_, err = os.Stat(filepath.Join(dir, "front.jpg"))
	assert.NoError(t, err)
}

func TestGenerateListing_ModelErrorNeedsRetry(t *testing.T) {
	caller := &callerStub{response: `Error: {"error":"invalid api key"}`}
	a := New(caller, intake.NewStore(t.TempDir(), false), false)

	parsed, err := a.GenerateListing(context.Background(), carSeatRequest())
	require.NoError(t, err)

	assert.Equal(t, listing.DefaultTitle, parsed.Title)
	assert.Equal(t, `Error: {"error":"invalid api key"}`, parsed.Description)
	assert.True(t, parsed.NeedsRetry())
}

func TestGenerateListing_Structured(t *testing.T) {
	caller := &callerStub{response: "```json\n{\"title\":\"Crib\",\"description\":\"Solid wood\",\"price\":\"$100\",\"links\":[\"https://x.example\"]}\n```"}
	a := New(caller, intake.NewStore(t.TempDir(), false), true)

	parsed, err := a.GenerateListing(context.Background(), carSeatRequest())
	require.NoError(t, err)

	assert.Contains(t, caller.prompt, "Respond in JSON format")
	assert.Equal(t, "Crib", parsed.Title)
	assert.Equal(t, []string{"https://x.example"}, parsed.Links)
}

func TestGenerateListing_NoImages(t *testing.T) {
	caller := &callerStub{}
	a := New(caller, intake.NewStore(t.TempDir(), false), false)

	req := carSeatRequest()
	req.Uploads = nil
	_, err := a.GenerateListing(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoImages)
	assert.Zero(t, caller.calls)
}

func TestGenerateListing_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "front.jpg"), 0755))
	caller := &callerStub{}
	a := New(caller, intake.NewStore(dir, false), false)

	_, err := a.GenerateListing(context.Background(), carSeatRequest())

	assert.Error(t, err)
	assert.Zero(t, caller.calls)
}

func TestGenerateReply(t *testing.T) {
	caller := &callerStub{response: "1. Hi! Yes, it's available."}
	a := New(caller, intake.NewStore(t.TempDir(), false), false)

	var week availability.Week
	week.Toggle(0, availability.Morning)

	reply := a.GenerateReply(context.Background(), ReplyRequest{
		BuyerMessage: "Is this still available?",
		Availability: week,
		Locations:    "Library",
	})

	assert.Equal(t, "1. Hi! Yes, it's available.", reply)
	assert.False(t, caller.useSearch)
	assert.Nil(t, caller.images)
	assert.Contains(t, caller.prompt, "Availability: 'Monday: Morning'.")
	assert.Contains(t, caller.prompt, "Locations: 'Library'.")
}

func TestGenerateReply_NoAvailability(t *testing.T) {
	caller := &callerStub{response: "Error: boom"}
	a := New(caller, intake.NewStore(t.TempDir(), false), false)

	reply := a.GenerateReply(context.Background(), ReplyRequest{BuyerMessage: "Hi"})

	assert.Equal(t, "Error: boom", reply)
	assert.Contains(t, caller.prompt, "Availability: 'No specific availability set'.")
}
