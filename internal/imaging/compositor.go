// Package imaging renders caption lines onto segment background images.
package imaging

import (
	"bufio"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"video-maker/internal/faults"
	"video-maker/models"
)

// Request describes one composited frame.
type Request struct {
	Background      string
	Lines           []string
	Style           models.RoleStyle
	TextColor       models.RGB
	BackgroundColor models.RGB
	Output          string
}

// Compositor renders a Request to a PNG file.
type Compositor interface {
	Compose(ctx context.Context, req Request) error
}

// Renderer is the x/image implementation of Compositor.
type Renderer struct {
	fonts *FontSet
	mu    sync.Mutex // font faces are not safe for concurrent use
}

// NewRenderer returns a renderer drawing with fonts.
func NewRenderer(fonts *FontSet) *Renderer {
	return &Renderer{fonts: fonts}
}

// Compose draws req.Lines horizontally centered from the top of the
// background. The first Style.EmphasisLines lines use the bold face. Every
// line, including blank ones, advances by the tallest bold line's ink height.
func (r *Renderer) Compose(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bg, err := decodePNG(req.Background)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bold, err := r.fonts.Face(true, req.Style.FontSize)
	if err != nil {
		return err
	}
	regular, err := r.fonts.Face(false, req.Style.FontSize)
	if err != nil {
		return err
	}

	bounds := bg.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(rgba(req.BackgroundColor)), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), bg, bounds.Min, draw.Over)

	lineHeight := LineHeight(bold, req.Lines)
	drawer := &font.Drawer{Dst: canvas, Src: image.NewUniform(rgba(req.TextColor))}

	y := 0
	for i, line := range req.Lines {
		if line != "" {
			face := regular
			if i < req.Style.EmphasisLines {
				face = bold
			}
			drawer.Face = face
			ink, _ := drawer.BoundString(line)
			width := (ink.Max.X - ink.Min.X).Ceil()
			x := (canvas.Bounds().Dx()-width)/2 - ink.Min.X.Floor()
			// y is the top of the line; the drawer positions by baseline.
			drawer.Dot = fixed.Point26_6{
				X: fixed.I(x),
				Y: fixed.I(y) + face.Metrics().Ascent,
			}
			drawer.DrawString(line)
		}
		y += lineHeight
	}

	return encodePNG(req.Output, canvas)
}

// LineHeight is the tallest ink extent of lines drawn with face.
func LineHeight(face font.Face, lines []string) int {
	best := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		ink, _ := font.BoundString(face, line)
		if h := (ink.Max.Y - ink.Min.Y).Ceil(); h > best {
			best = h
		}
	}
	return best
}

func rgba(c models.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrMissingFile, "open background", path, err)
	}
	defer f.Close()

	img, err := png.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, faults.Wrap(faults.ErrUnsupportedFormat, "decode background", path, err)
	}
	return img, nil
}

func encodePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return faults.Wrap(nil, "create image directory", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return faults.Wrap(nil, "create image", path, err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return faults.Wrap(faults.ErrEncodingFailed, "encode image", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return faults.Wrap(nil, "write image", path, err)
	}
	return f.Close()
}
