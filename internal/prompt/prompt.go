// Package prompt builds the instructions sent to the model for the listing
// and buyer-reply flows. Inputs are embedded verbatim; nothing is validated.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Categories offered in the listing form.
var Categories = []string{
	"Baby & Toddler",
	"Toys & Games",
	"Clothing & Shoes",
	"Furniture",
	"Home & Kitchen",
	"Electronics",
	"Sports & Outdoors",
	"Other",
}

// Conditions offered in the listing form.
var Conditions = []string{"New", "Like New", "Good", "Fair"}

const listingTemplate = `
	Analyze these photos of a used %s item in %s condition%s.
	Seller's notes: %s

	First, write a short, appealing Facebook Marketplace title and description. Highlight features, brand, size and age suitability where relevant.
	Then research recent sold prices for similar used %s items in %s and suggest a competitive price range.

	Respond using exactly this format:
	Title: <title>
	Description: <description>
	Price: <price range with a one-line rationale and 2-3 source links>
`

const structuredListingTemplate = `
	Analyze these photos of a used %s item in %s condition%s.
	Seller's notes: %s

	Write a short, appealing Facebook Marketplace title and description. Highlight features, brand, size and age suitability where relevant.
	Research recent sold prices for similar used %s items in %s and suggest a competitive price range.

	Respond in JSON format with these fields:
	- title: the listing title
	- description: the listing description
	- price: the price range with a one-line rationale
	- links: 2-3 source URLs used for the price research

	Respond ONLY with the JSON object, no markdown or other text.
`

const responseTemplate = `
	Buyer: '%s'.
	Availability: '%s'.
	Locations: '%s'.

	Suggest 2-3 polite responses I can send back, suggesting meetup times and locations if relevant.
	Each response must include safety guidance: meet in a busy public place, accept cash only, and keep communication in the marketplace app.
`

func format(tmpl string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(tmpl)), a...)
}

func bundleClause(isBundle bool) string {
	if isBundle {
		return ", sold together as a bundle"
	}
	return ""
}

// ListingPrompt asks for a title, description and researched price in the
// "Title:/Description:/Price:" layout understood by listing.Parse.
func ListingPrompt(category, condition, location, details string, isBundle bool) string {
	return format(listingTemplate, category, condition, bundleClause(isBundle), details, category, location)
}

// StructuredListingPrompt asks for the same content as a JSON object.
func StructuredListingPrompt(category, condition, location, details string, isBundle bool) string {
	return format(structuredListingTemplate, category, condition, bundleClause(isBundle), details, category, location)
}

// ResponsePrompt asks for reply drafts to a buyer message.
func ResponsePrompt(buyerMessage, availability, locations string) string {
	return format(responseTemplate, buyerMessage, availability, locations)
}
