package deck

import "fmt"

// Validation constants.
const (
	maxTitleLength = 100
	maxLabelLength = 64
	maxIconLength  = 128
	minFontSize    = 6
	maxFontSize    = 48

	// MinBrightness and MaxBrightness bound the panel backlight level.
	MinBrightness = 0
	MaxBrightness = 100
)

// ValidateTitle checks a page title.
func ValidateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidTitle)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, maxTitleLength)
	}
	return nil
}

// ValidateButton checks the structural fields of a button configuration.
// Action schema validation happens separately against the plugin registry.
func ValidateButton(b *Button) error {
	if b == nil {
		return ErrInvalidButton
	}
	if len(b.Label) > maxLabelLength {
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidButton, maxLabelLength)
	}
	if len(b.Icon) > maxIconLength {
		return fmt.Errorf("%w: icon reference exceeds %d characters", ErrInvalidButton, maxIconLength)
	}
	if b.FontSize < minFontSize || b.FontSize > maxFontSize {
		return fmt.Errorf("%w: font size must be %d-%d", ErrInvalidButton, minFontSize, maxFontSize)
	}
	if b.Action != nil {
		switch b.Action.Type {
		case ActionNone:
			// A none action never carries a plugin reference.
			if b.Action.PluginID != "" {
				return fmt.Errorf("%w: none action must not name a plugin", ErrInvalidButton)
			}
		case ActionPlugin:
			if b.Action.PluginID == "" {
				return fmt.Errorf("%w: plugin action requires a plugin id", ErrInvalidButton)
			}
		default:
			return fmt.Errorf("%w: unknown action type %q", ErrInvalidButton, b.Action.Type)
		}
	}
	return nil
}

// ValidateSlot checks a slot index against the device key count.
func ValidateSlot(slot, keyCount int) error {
	if slot < 0 || slot >= keyCount {
		return fmt.Errorf("%w: slot %d not in [0, %d)", ErrSlotOutOfRange, slot, keyCount)
	}
	return nil
}

// ValidateBrightness checks a backlight level.
func ValidateBrightness(level int) error {
	if level < MinBrightness || level > MaxBrightness {
		return fmt.Errorf("%w: got %d", ErrInvalidBrightness, level)
	}
	return nil
}
