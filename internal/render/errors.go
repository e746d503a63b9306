package render

import "errors"

// Domain errors for the render package.
var (
	// ErrFontLoad is returned when the embedded font cannot be parsed.
	ErrFontLoad = errors.New("render: font load failed")

	// ErrIconNotFound is returned when a button references an icon the
	// provider cannot supply.
	ErrIconNotFound = errors.New("render: icon not found")
)
