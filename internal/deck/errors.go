package deck

import "errors"

// Domain errors for the deck package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, deck.ErrLastPage) {
//	    // refuse the delete in the UI
//	}
var (
	// ErrPageNotFound is returned when a page ID does not exist.
	ErrPageNotFound = errors.New("deck: page not found")

	// ErrButtonNotFound is returned when a slot has no configured button.
	ErrButtonNotFound = errors.New("deck: button not found")

	// ErrLastPage is returned when deleting the only remaining page.
	ErrLastPage = errors.New("deck: cannot delete the last page")

	// ErrSlotOutOfRange is returned when a slot index is outside the
	// device key range.
	ErrSlotOutOfRange = errors.New("deck: slot out of range")

	// ErrNoFreeSlot is returned when moving a button to a page with
	// every slot occupied.
	ErrNoFreeSlot = errors.New("deck: no free slot on destination page")

	// ErrInvalidButton is returned when button validation fails.
	ErrInvalidButton = errors.New("deck: invalid button")

	// ErrInvalidTitle is returned when a page title is empty or too long.
	ErrInvalidTitle = errors.New("deck: invalid page title")

	// ErrInvalidColor is returned when a colour string cannot be parsed.
	ErrInvalidColor = errors.New("deck: invalid colour")

	// ErrInvalidBrightness is returned for brightness outside 0-100.
	ErrInvalidBrightness = errors.New("deck: brightness must be 0-100")
)
