package render

import "image"

// Bitmap is a rendered key face plus the content hash of the visual
// inputs that produced it. Equal hashes mean identical pixels, which is
// what the synchronizer compares to skip redundant device writes.
type Bitmap struct {
	img  *image.RGBA
	hash uint64
}

// Image returns the rendered pixels.
func (b *Bitmap) Image() *image.RGBA {
	return b.img
}

// Hash returns the content hash of the visual inputs.
func (b *Bitmap) Hash() uint64 {
	return b.hash
}
