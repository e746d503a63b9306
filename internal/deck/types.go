package deck

import (
	"encoding/json"
	"fmt"
	"time"
)

// RGB is a 24-bit colour, serialised as "#rrggbb" in JSON and YAML.
type RGB struct {
	R, G, B uint8
}

// Common defaults for page colours.
var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ParseRGB parses "#rrggbb" (case-insensitive) into an RGB.
func ParseRGB(s string) (RGB, error) {
	var c RGB
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("%w: colour %q must be #rrggbb", ErrInvalidColor, s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("%w: colour %q must be #rrggbb", ErrInvalidColor, s)
	}
	return c, nil
}

// Hex returns the "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalJSON serialises the colour as a hex string.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

// UnmarshalJSON parses a "#rrggbb" hex string.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRGB(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ActionType distinguishes action variants bound to a button.
type ActionType string

const (
	// ActionNone is a button with no bound action; presses are no-ops.
	ActionNone ActionType = "none"

	// ActionPlugin invokes a registered plugin with a validated config.
	ActionPlugin ActionType = "plugin"
)

// Action is the tagged variant bound to a button. For ActionPlugin,
// Config must satisfy the referenced plugin's schema at save time.
type Action struct {
	Type     ActionType     `json:"type"`
	PluginID string         `json:"plugin_id,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

// DeepCopy creates an independent copy of the Action.
func (a *Action) DeepCopy() *Action {
	if a == nil {
		return nil
	}
	cpy := *a
	cpy.Config = deepCopyMap(a.Config)
	return &cpy
}

// Button is one slot's configuration within a page. Colour overrides are
// optional; nil falls back to the page default.
type Button struct {
	Label      string  `json:"label"`
	Icon       string  `json:"icon,omitempty"`
	FontSize   int     `json:"font_size"`
	Background *RGB    `json:"bg_color,omitempty"`
	TextColor  *RGB    `json:"text_color,omitempty"`
	Enabled    bool    `json:"enabled"`
	Action     *Action `json:"action,omitempty"`
}

// DeepCopy creates an independent copy of the Button.
func (b *Button) DeepCopy() *Button {
	if b == nil {
		return nil
	}
	cpy := *b
	if b.Background != nil {
		bg := *b.Background
		cpy.Background = &bg
	}
	if b.TextColor != nil {
		fg := *b.TextColor
		cpy.TextColor = &fg
	}
	cpy.Action = b.Action.DeepCopy()
	return &cpy
}

// HasAction reports whether pressing this button should dispatch anything.
func (b *Button) HasAction() bool {
	return b != nil && b.Enabled && b.Action != nil && b.Action.Type == ActionPlugin
}

// Page is an ordered collection of button slots sharing default colours.
// The ID is stable and immutable once created; Position is the display
// order index.
type Page struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Position   int             `json:"position"`
	Background RGB             `json:"bg_color"`
	TextColor  RGB             `json:"text_color"`
	Buttons    map[int]*Button `json:"buttons"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Page.
// The button map and every button are cloned so modifications to the
// copy do not affect store-owned data.
func (p *Page) DeepCopy() *Page {
	if p == nil {
		return nil
	}
	cpy := *p
	if p.Buttons != nil {
		cpy.Buttons = make(map[int]*Button, len(p.Buttons))
		for slot, b := range p.Buttons {
			cpy.Buttons[slot] = b.DeepCopy()
		}
	}
	return &cpy
}

// Snapshot is the full persisted state of the deck: every page in display
// order plus deck-level settings. The repository loads one at startup and
// saves one after every successful mutation.
type Snapshot struct {
	Pages        []Page `json:"pages"`
	ActivePageID string `json:"active_page_id"`
	Brightness   int    `json:"brightness"`
}

// DeepCopy creates an independent copy of the Snapshot.
func (s *Snapshot) DeepCopy() *Snapshot {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.Pages != nil {
		cpy.Pages = make([]Page, len(s.Pages))
		for i := range s.Pages {
			cpy.Pages[i] = *s.Pages[i].DeepCopy()
		}
	}
	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}
