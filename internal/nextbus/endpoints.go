package nextbus

const (
	// BaseURL is the NextBus public JSON feed
	BaseURL = "https://retro.umoiq.com/service/publicJSONFeed"

	// DefaultAgency is the agency tag used when none is configured
	DefaultAgency = "ttc"

	// CommandPredictions returns arrival predictions for one route at one stop
	// Required params: a (agency), r (route tag), s (stop tag)
	CommandPredictions = "predictions"
)
