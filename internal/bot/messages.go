package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgCancelled     = "Cancelled."
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgStartPrompt   = `
		I help you sell used items on Facebook Marketplace.

		/listing - create a listing from photos
		/reply - draft replies to a buyer
		/location - view or set your default item location
		/meetups - view or set your preferred meeting spots
		/usage - show model usage and estimated cost
		/cancel - cancel what you are doing
	`
	MsgUseCommand = "Use /listing to create a listing or /reply to answer a buyer."
)

// =============================================================================
// Listing flow messages
// =============================================================================

const (
	MsgSelectCategory     = "What are you selling? Pick a category:"
	MsgCategorySelected   = "Category: *%s*"
	MsgSelectCondition    = "What condition is it in?"
	MsgConditionSelected  = "Condition: *%s*"
	MsgEnterLocation      = "Where is the item? Send a city or neighborhood."
	MsgEnterLocationSaved = "Where is the item? Send a city or neighborhood, or tap your saved location."
	MsgEnterDetails       = "Any details to include? Brand, size, age, flaws... Send /skip if none."
	MsgBundleQuestion     = "Are you selling several items together as a bundle?"
	MsgBundleSelected     = "Bundle: *%s*"
	MsgSendPhotos         = "Now send photos of the item. Send /done when finished."
	MsgPhotoAdded         = "Photo added! Photos in total: %d. Send more or /done."
	MsgNotAnImage         = "That file is not an image."
	MsgNoPhotos           = "Send at least one photo first."
	MsgPhotosNotExpected  = "Start with /listing to create a listing from photos."
	MsgPhotosTooEarly     = "Answer the questions above first, then send photos."
	MsgImageDownloadFail  = "Error: downloading the photo failed"
	MsgGeneratingListing  = "Analyzing %s and researching prices..."
	MsgNoListingToRetry   = "Nothing to retry. Start a new listing with /listing."
	MsgListingResult      = "📦 %s\n\n%s\n\n💰 %s"
	MsgListingSources     = "\n\nSources:\n%s"
	MsgListingRetryPrompt = "The response looks incomplete. You can try again."
	MsgNoActiveListing    = "No listing in progress. Start with /listing."
)

// Button labels for listing flow
const (
	BtnYes   = "Yes"
	BtnNo    = "No"
	BtnRetry = "🔄 Retry"
)

// =============================================================================
// Reply flow messages
// =============================================================================

const (
	MsgEnterBuyerMessage   = "Paste the buyer's message."
	MsgSelectAvailability  = "When are you available to meet? %s.\nTap to toggle, ✏️ to add a custom time, then Done."
	MsgEnterCustomTime     = "Send a custom time for *%s* (e.g. after 4pm). Send /skip to clear it."
	MsgAvailabilitySummary = "Availability: %s"
	MsgEnterMeetups        = "Where do you prefer to meet? e.g. library parking lot."
	MsgEnterMeetupsSaved   = "Where do you prefer to meet? Send new spots or tap your saved ones."
	MsgEmptyReply          = "The model returned an empty response. Try /reply again."
	MsgNoActiveReply       = "No reply in progress. Start with /reply."
)

// Button labels for availability keyboard
const (
	BtnDone   = "✅ Done"
	BtnCustom = "✏️"
	BtnCheck  = "✓ "
)

// =============================================================================
// Settings messages
// =============================================================================

const (
	MsgLocationCurrent     = "Your default item location is *%s*.\n\nSend a new one or /cancel."
	MsgLocationNotSet      = "No default item location set.\n\nSend one (e.g. Seattle, WA) or /cancel."
	MsgLocationUpdated     = "✅ Default location updated: %s"
	MsgMeetupsCurrent      = "Your preferred meeting spots are *%s*.\n\nSend new ones or /cancel."
	MsgMeetupsNotSet       = "No preferred meeting spots set.\n\nSend them (e.g. library parking lot) or /cancel."
	MsgMeetupsUpdated      = "✅ Meeting spots updated: %s"
	MsgSettingsCancelled   = "Ok, nothing changed."
	MsgSettingsUnavailable = "Settings are not available."
	MsgNothingToSkip       = "Nothing to skip right now."
	MsgUsage               = `
		*Model usage*

		Last 30 days: %s, %d failed
		Tokens: %d in / %d out
		Estimated cost: $%.4f

		All time: %s, $%.4f
	`
)
