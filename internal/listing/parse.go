package listing

import (
	"encoding/json"
	"strings"
)

const (
	titleMarker       = "Title:"
	descriptionMarker = "Description:"
	priceMarker       = "Price:"
)

const (
	// DefaultTitle is used when the model reply cannot be split.
	DefaultTitle = "Item"
	// ErrIncompleteResponse replaces the price when a marker is missing.
	ErrIncompleteResponse = "Error: Incomplete response from model. Try again."
	// ErrNoPriceInfo replaces the price when nothing follows the description.
	ErrNoPriceInfo = "Error: No price info found in response."
)

// Parsed is a listing draft extracted from model text.
type Parsed struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Links       []string `json:"links"`
}

// NeedsRetry reports whether the price section carries an error marker.
func (p Parsed) NeedsRetry() bool {
	return strings.Contains(p.Price, "Error")
}

// Parse splits a reply of the form "Title: ...\nDescription: ...\nPrice: ..."
// into its sections. The split is purely marker based: markers out of order or
// repeated inside a section produce odd results rather than being corrected.
func Parse(raw string) Parsed {
	text := normalize(raw)

	if !strings.Contains(text, titleMarker) ||
		!strings.Contains(text, descriptionMarker) ||
		!strings.Contains(text, priceMarker) {
		return Parsed{
			Title:       DefaultTitle,
			Description: raw,
			Price:       ErrIncompleteResponse,
		}
	}

	_, afterTitle, _ := strings.Cut(text, titleMarker)
	title, rest, _ := strings.Cut(afterTitle, descriptionMarker)
	description, price, found := strings.Cut(rest, priceMarker)

	p := Parsed{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
	if !found {
		p.Price = ErrNoPriceInfo
		return p
	}
	p.Price = strings.TrimSpace(price)
	p.Links = ExtractLinks(p.Price)
	return p
}

// ParseStructured reads a JSON object with title, description, price and
// links fields. Anything that does not decode into a titled object is handed
// to Parse.
func ParseStructured(raw string) Parsed {
	jsonStr, ok := extractJSONObject(raw)
	if !ok {
		return Parse(raw)
	}

	var p Parsed
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil || strings.TrimSpace(p.Title) == "" {
		return Parse(raw)
	}

	p.Title = strings.TrimSpace(normalize(p.Title))
	p.Description = strings.TrimSpace(normalize(p.Description))
	p.Price = strings.TrimSpace(normalize(p.Price))
	if p.Price == "" {
		p.Price = ErrNoPriceInfo
	}
	if len(p.Links) == 0 {
		p.Links = ExtractLinks(p.Price)
	}
	return p
}

// ExtractLinks returns the whitespace-separated tokens starting with "http",
// in order and with duplicates kept.
func ExtractLinks(s string) []string {
	var links []string
	for _, token := range strings.Fields(s) {
		if strings.HasPrefix(token, "http") {
			links = append(links, token)
		}
	}
	return links
}

// normalize replaces the unicode minus sign models like to emit in price
// ranges.
func normalize(s string) string {
	return strings.ReplaceAll(s, "\u2212", "-")
}

func extractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
