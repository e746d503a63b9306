package bus

const (
	// TopicPage carries PageEvent: page created, deleted, renamed,
	// recolored, or activated.
	TopicPage = "deck.page"

	// TopicButton carries ButtonEvent: a button set, cleared, swapped
	// or moved.
	TopicButton = "deck.button"

	// TopicBrightness carries BrightnessEvent.
	TopicBrightness = "deck.brightness"

	// TopicDeviceState carries DeviceStateEvent: connectivity transitions
	// of the physical panel.
	TopicDeviceState = "device.state"

	// TopicDispatch carries DispatchEvent: the outcome of a key-press
	// action dispatch.
	TopicDispatch = "dispatch.result"
)
