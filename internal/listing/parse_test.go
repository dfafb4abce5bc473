package listing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_CarSeatExample(t *testing.T) {
	raw := "Title: Graco Car Seat\nDescription: Barely used, great condition\nPrice: $40-60, see https://ebay.com/x"
	p := Parse(raw)

	assert.Equal(t, "Graco Car Seat", p.Title)
	assert.Equal(t, "Barely used, great condition", p.Description)
	assert.Equal(t, "$40-60, see https://ebay.com/x", p.Price)
	assert.Equal(t, []string{"https://ebay.com/x"}, p.Links)
	assert.False(t, p.NeedsRetry())
}

func TestParse_LinksKeepOrderAndDuplicates(t *testing.T) {
	raw := `Title: Stroller
Description: Folds flat.
Price: $80-$120
Sources: https://a.example/1 http://b.example/2
https://a.example/1 ftp://c.example/3`
	p := Parse(raw)

	assert.Equal(t, []string{"https://a.example/1", "http://b.example/2", "https://a.example/1"}, p.Links)
}

func TestParse_MissingMarkers(t *testing.T) {
	cases := []string{
		"",
		"Just some text with no structure",
		"Title: Only a title\nDescription: and a description",
		"Description: x\nPrice: y",
		"Title: x\nPrice: y",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			p := Parse(raw)
			assert.Equal(t, "Item", p.Title)
			assert.Equal(t, raw, p.Description)
			assert.Equal(t, ErrIncompleteResponse, p.Price)
			assert.Empty(t, p.Links)
			assert.True(t, p.NeedsRetry())
		})
	}
}

func TestParse_FallbackKeepsRawTextUnchanged(t *testing.T) {
	raw := "Price range − unknown"
	p := Parse(raw)
	assert.Equal(t, raw, p.Description)
}

func TestParse_NormalizesMinusSign(t *testing.T) {
	p := Parse("Title: Crib\nDescription: Solid wood\nPrice: $50−70")
	assert.Equal(t, "$50-70", p.Price)
}

func TestParse_TrimsSections(t *testing.T) {
	p := Parse("Here you go!\n\nTitle:   Baby Bjorn Bouncer  \n\nDescription:\n  Soft mesh.\n\nPrice:\n  $35 \n")
	assert.Equal(t, "Baby Bjorn Bouncer", p.Title)
	assert.Equal(t, "Soft mesh.", p.Description)
	assert.Equal(t, "$35", p.Price)
	assert.Empty(t, p.Links)
}

func TestParse_RoundTrip(t *testing.T) {
	cases := []struct{ title, description, price string }{
		{"X", "Y", "Z"},
		{"Wooden train set", "Complete with 40 pieces.\nNo missing parts.", "$25-35"},
		{"", "", ""},
	}
	for _, c := range cases {
		raw := fmt.Sprintf("Title: %s\nDescription: %s\nPrice: %s", c.title, c.description, c.price)
		p := Parse(raw)
		assert.Equal(t, c.title, p.Title)
		assert.Equal(t, c.description, p.Description)
		assert.Equal(t, c.price, p.Price)
	}
}

func TestParse_OutOfOrderMarkers(t *testing.T) {
	// All three markers are present so the split runs, but "Description:"
	// precedes "Title:" and cannot be found after it.
	p := Parse("Description: soft\nTitle: Blanket\nPrice: $10")
	assert.Equal(t, "Blanket\nPrice: $10", p.Title)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, ErrNoPriceInfo, p.Price)
	assert.Empty(t, p.Links)
}

func TestParse_PriceBeforeDescription(t *testing.T) {
	p := Parse("Title: Bike\nPrice: $90\nDescription: Red")
	assert.Equal(t, "Bike\nPrice: $90", p.Title)
	assert.Equal(t, "Red", p.Description)
	assert.Equal(t, ErrNoPriceInfo, p.Price)
}

func TestParse_MarkerInsideTitleMisSplits(t *testing.T) {
	p := Parse("Title: Price: tag gun\nDescription: Works\nPrice: $5")
	assert.Equal(t, "Price: tag gun", p.Title)
	assert.Equal(t, "Works", p.Description)
	assert.Equal(t, "$5", p.Price)
}

func TestParseStructured_JSON(t *testing.T) {
	raw := "```json\n{\"title\": \"High chair\", \"description\": \"Easy to clean\", \"price\": \"$30−40\", \"links\": [\"https://x.example/1\"]}\n```"
	p := ParseStructured(raw)

	assert.Equal(t, "High chair", p.Title)
	assert.Equal(t, "Easy to clean", p.Description)
	assert.Equal(t, "$30-40", p.Price)
	assert.Equal(t, []string{"https://x.example/1"}, p.Links)
}

func TestParseStructured_LinksFromPrice(t *testing.T) {
	p := ParseStructured(`{"title": "Playmat", "description": "", "price": "$15 https://y.example/a"}`)
	assert.Equal(t, []string{"https://y.example/a"}, p.Links)
}

func TestParseStructured_MissingPrice(t *testing.T) {
	p := ParseStructured(`{"title": "Playmat", "description": "Foam"}`)
	assert.Equal(t, ErrNoPriceInfo, p.Price)
	assert.True(t, p.NeedsRetry())
}

func TestParseStructured_FallsBackToMarkers(t *testing.T) {
	raw := "Title: Gate\nDescription: Pressure mounted\nPrice: $20"
	assert.Equal(t, Parse(raw), ParseStructured(raw))

	broken := `{"title": "Gate", "description": `
	assert.Equal(t, Parse(broken), ParseStructured(broken))

	untitled := `{"description": "no title here"}`
	assert.Equal(t, Parse(untitled), ParseStructured(untitled))
}

func TestExtractLinks(t *testing.T) {
	assert.Nil(t, ExtractLinks("no links here"))
	assert.Equal(t, []string{"https://a", "httpish"}, ExtractLinks("see https://a and httpish"))
}
