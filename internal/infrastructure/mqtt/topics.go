package mqtt

// Topic prefixes for the controller's MQTT surface.
//
// The scheme is deckd/{category}/{subject}. State topics are retained
// so late subscribers immediately see the current deck state; event
// topics are not.
const (
	// TopicPrefix is the base for all controller topics.
	TopicPrefix = "deckd"

	// TopicPrefixState is the base for retained state topics.
	TopicPrefixState = "deckd/state"

	// TopicPrefixEvent is the base for fire-and-forget event topics.
	TopicPrefixEvent = "deckd/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "deckd/system"
)

// Topics provides builders for controller MQTT topics. Using these
// helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// PageState returns the topic for page mutations and activations.
//
// Topic: deckd/state/page
func (Topics) PageState() string {
	return TopicPrefixState + "/page"
}

// ButtonState returns the topic for button mutations.
//
// Topic: deckd/state/button
func (Topics) ButtonState() string {
	return TopicPrefixState + "/button"
}

// BrightnessState returns the topic for backlight changes.
//
// Topic: deckd/state/brightness
func (Topics) BrightnessState() string {
	return TopicPrefixState + "/brightness"
}

// DeviceState returns the topic for panel connectivity transitions.
//
// Topic: deckd/state/device
func (Topics) DeviceState() string {
	return TopicPrefixState + "/device"
}

// DispatchEvent returns the topic for action dispatch outcomes.
//
// Topic: deckd/event/dispatch
func (Topics) DispatchEvent() string {
	return TopicPrefixEvent + "/dispatch"
}

// SystemStatus returns the topic for online/offline status, including
// the Last Will message.
//
// Topic: deckd/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllStates returns a wildcard matching every retained state topic.
//
// Topic: deckd/state/+
func (Topics) AllStates() string {
	return TopicPrefixState + "/+"
}
