package render

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/deckworks/deck-core/internal/deck"
)

// Logger is the minimal logging interface the renderer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// IconProvider supplies icon images by name. Implementations cache
// decoded images; the renderer asks for the same names repeatedly.
type IconProvider interface {
	Load(name string) (image.Image, error)
}

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// KeyPixels is the square edge length of one key face.
	KeyPixels int

	// Icons resolves button icon references. Nil disables icons; a
	// button naming one renders with label only and a warning.
	Icons IconProvider

	Logger Logger
}

// Renderer turns button configuration into key-sized bitmaps. Rendering
// is pure: the same inputs always yield the same pixels and the same
// content hash, so cached bitmaps never go stale.
type Renderer struct {
	keyPixels int
	icons     IconProvider
	logger    Logger

	fnt     *opentype.Font
	facesMu sync.Mutex
	faces   map[int]font.Face
}

// NewRenderer creates a renderer using the embedded bold sans face.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	keyPixels := opts.KeyPixels
	if keyPixels <= 0 {
		keyPixels = 72
	}
	return &Renderer{
		keyPixels: keyPixels,
		icons:     opts.Icons,
		logger:    logger,
		fnt:       fnt,
		faces:     make(map[int]font.Face),
	}, nil
}

// KeyPixels returns the edge length of rendered key faces.
func (r *Renderer) KeyPixels() int {
	return r.keyPixels
}

const (
	textMargin = 4
	minShrink  = 6

	// Disabled buttons render at half intensity.
	dimFactor = 2
)

// RenderButton draws one key face. A nil button renders the blank face
// for the page. The returned bitmap carries the content hash of every
// visual input, so two calls with equal inputs produce equal hashes.
func (r *Renderer) RenderButton(page *deck.Page, button *deck.Button) (*Bitmap, error) {
	bg, fg := r.resolveColours(page, button)

	img := image.NewRGBA(image.Rect(0, 0, r.keyPixels, r.keyPixels))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	label := ""
	iconName := ""
	fontSize := 0
	enabled := true
	if button != nil {
		label = button.Label
		iconName = button.Icon
		fontSize = button.FontSize
		enabled = button.Enabled
	}

	if iconName != "" {
		if err := r.drawIcon(img, iconName, enabled); err != nil {
			// A missing icon degrades to text only rather than a dead key.
			r.logger.Warn("icon unavailable", "icon", iconName, "error", err)
		}
	}

	if label != "" {
		r.drawLabel(img, label, fontSize, fg)
	}

	return &Bitmap{img: img, hash: r.contentHash(page, button)}, nil
}

// RenderBlank draws an empty key face using the page colours.
func (r *Renderer) RenderBlank(page *deck.Page) (*Bitmap, error) {
	return r.RenderButton(page, nil)
}

// effectiveColours applies the override-or-page-default rule. The
// returned colours are pre-dim; the enabled flag tells the caller
// whether dimming applies.
func effectiveColours(page *deck.Page, button *deck.Button) (bg, fg deck.RGB, enabled bool) {
	bg = page.Background
	fg = page.TextColor
	enabled = true
	if button != nil {
		if button.Background != nil {
			bg = *button.Background
		}
		if button.TextColor != nil {
			fg = *button.TextColor
		}
		enabled = button.Enabled
	}
	return bg, fg, enabled
}

// resolveColours resolves the effective colours and dims disabled
// buttons.
func (r *Renderer) resolveColours(page *deck.Page, button *deck.Button) (bg, fg color.RGBA) {
	background, textColor, enabled := effectiveColours(page, button)

	bg = color.RGBA{R: background.R, G: background.G, B: background.B, A: 255}
	fg = color.RGBA{R: textColor.R, G: textColor.G, B: textColor.B, A: 255}
	if !enabled {
		bg = dim(bg)
		fg = dim(fg)
	}
	return bg, fg
}

func dim(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / dimFactor, G: c.G / dimFactor, B: c.B / dimFactor, A: 255}
}

// drawLabel renders the label centred, shrinking the face in steps of
// two points until every line fits the key width or the floor is hit.
func (r *Renderer) drawLabel(img *image.RGBA, label string, fontSize int, fg color.RGBA) {
	lines := strings.Split(label, "\n")
	maxWidth := fixed.I(r.keyPixels - 2*textMargin)

	size := fontSize
	if size <= 0 {
		size = 14
	}

	var face font.Face
	for ; size >= minShrink; size -= 2 {
		face = r.face(size)
		if face == nil {
			return
		}
		fits := true
		for _, line := range lines {
			if font.MeasureString(face, line) > maxWidth {
				fits = false
				break
			}
		}
		if fits {
			break
		}
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	blockHeight := lineHeight * len(lines)
	top := (r.keyPixels-blockHeight)/2 + metrics.Ascent.Ceil()

	for i, line := range lines {
		width := font.MeasureString(face, line).Ceil()
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(fg),
			Face: face,
			Dot:  fixed.P((r.keyPixels-width)/2, top+i*lineHeight),
		}
		d.DrawString(line)
	}
}

// drawIcon scales the icon into the key face, preserving aspect ratio.
func (r *Renderer) drawIcon(img *image.RGBA, name string, enabled bool) error {
	if r.icons == nil {
		return fmt.Errorf("%w: no icon provider", ErrIconNotFound)
	}
	icon, err := r.icons.Load(name)
	if err != nil {
		return err
	}

	bounds := icon.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrIconNotFound, name)
	}

	avail := r.keyPixels - 2*textMargin
	scale := float64(avail) / float64(bounds.Dx())
	if s := float64(avail) / float64(bounds.Dy()); s < scale {
		scale = s
	}
	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	x := (r.keyPixels - w) / 2
	y := (r.keyPixels - h) / 2

	dst := image.Rect(x, y, x+w, y+h)
	xdraw.ApproxBiLinear.Scale(img, dst, icon, bounds, xdraw.Over, nil)

	if !enabled {
		overlay := image.NewUniform(color.RGBA{A: 128})
		draw.DrawMask(img, dst, image.NewUniform(color.RGBA{A: 255}), image.Point{}, overlay, image.Point{}, draw.Over)
	}
	return nil
}

// face returns a cached font face for the given point size.
func (r *Renderer) face(size int) font.Face {
	r.facesMu.Lock()
	defer r.facesMu.Unlock()

	if face, ok := r.faces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		r.logger.Warn("face creation failed", "size", size, "error", err)
		return nil
	}
	r.faces[size] = face
	return face
}

// Hash returns the content hash a render of these inputs would carry,
// without rendering. The synchronizer uses it to decide whether a key
// needs repainting before paying for pixels.
func (r *Renderer) Hash(page *deck.Page, button *deck.Button) uint64 {
	return r.contentHash(page, button)
}

// contentHash digests every input that affects pixels: geometry, the
// resolved effective colours, and the button's label, icon, font size
// and enabled flag. Hashing the resolved colours rather than the raw
// override fields lets a button whose override equals the page default
// share a cache entry with its default-coloured twin, and keeps a fully
// overridden button stable across page recolours.
func (r *Renderer) contentHash(page *deck.Page, button *deck.Button) uint64 {
	bg, fg, enabled := effectiveColours(page, button)

	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}

	write(fmt.Sprintf("%d", r.keyPixels), bg.Hex(), fg.Hex())

	label := ""
	icon := ""
	fontSize := 0
	if button != nil {
		label = button.Label
		icon = button.Icon
		fontSize = button.FontSize
	}
	write(label, icon, fmt.Sprintf("%d", fontSize))
	if !enabled {
		write("disabled")
	}
	return h.Sum64()
}
