package bus

import "time"

// PageEventType distinguishes page mutations.
type PageEventType string

const (
	PageCreated   PageEventType = "created"
	PageDeleted   PageEventType = "deleted"
	PageUpdated   PageEventType = "updated"
	PageActivated PageEventType = "activated"
)

// PageEvent is published on TopicPage for every page-level mutation.
type PageEvent struct {
	Type   PageEventType `json:"type"`
	PageID string        `json:"page_id"`
}

// ButtonEventType distinguishes button mutations.
type ButtonEventType string

const (
	ButtonSet     ButtonEventType = "set"
	ButtonCleared ButtonEventType = "cleared"
	ButtonSwapped ButtonEventType = "swapped"
	ButtonMoved   ButtonEventType = "moved"
)

// ButtonEvent is published on TopicButton for every button-level mutation.
// OtherSlot is set for swaps; OtherPageID for moves.
type ButtonEvent struct {
	Type        ButtonEventType `json:"type"`
	PageID      string          `json:"page_id"`
	Slot        int             `json:"slot"`
	OtherSlot   int             `json:"other_slot,omitempty"`
	OtherPageID string          `json:"other_page_id,omitempty"`
}

// BrightnessEvent is published on TopicBrightness when the configured
// panel brightness changes.
type BrightnessEvent struct {
	Level int `json:"level"`
}

// DeviceStateEvent is published on TopicDeviceState on every connectivity
// transition of the device synchronizer.
type DeviceStateEvent struct {
	State     string    `json:"state"`
	Err       string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchEvent is published on TopicDispatch after every key-press
// dispatch attempt, including no-op resolutions.
type DispatchEvent struct {
	PageID   string        `json:"page_id"`
	Slot     int           `json:"slot"`
	PluginID string        `json:"plugin_id,omitempty"`
	OK       bool          `json:"ok"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}
