// Package render turns button configuration into key-sized bitmaps.
//
// Rendering is pure. Every visual input (key geometry, page colours,
// label, font size, icon reference, colour overrides, enabled flag) is
// folded into an FNV-64a content hash carried on the bitmap, so equal
// hashes guarantee equal pixels. The device synchronizer compares these
// hashes against what it last wrote and skips keys that have not
// changed; the LRU cache sits in front of the renderer so revisited
// pages repaint without redrawing.
//
// Text uses the embedded Go bold face. Labels that exceed the key width
// shrink in two point steps down to a floor; multi-line labels split on
// newlines and centre as a block. Icons load through an IconProvider
// and scale to fit with aspect ratio preserved. A missing icon logs a
// warning and the key renders text-only rather than failing.
package render
