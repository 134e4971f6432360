package video

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"gostepper/view"
)

// Views are laid out on a small canvas and scaled up to the panel.
const (
	CanvasWidth  = 128
	CanvasHeight = 64

	lineHeight   = 12
	visibleItems = 3
	margin       = 2
)

var (
	background = color.Black
	foreground = color.White
)

// newCanvas creates the drawing context. The default face is gg's built-in
// bitmap font.
func newCanvas(fontPath string, fontSize int) (*gg.Context, error) {
	dc := gg.NewContext(CanvasWidth, CanvasHeight)
	if fontPath != "" {
		if fontSize <= 0 {
			fontSize = 10
		}
		if err := dc.LoadFontFace(fontPath, float64(fontSize)); err != nil {
			return nil, fmt.Errorf("load font %s: %w", fontPath, err)
		}
	}
	return dc, nil
}

// window returns the range of n items to show so the cursor stays visible.
func window(n, cursor, size int) (start, end int) {
	if n <= size {
		return 0, n
	}
	start = cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

// baseline returns the y of text row i.
func baseline(i int) float64 {
	return float64(i*lineHeight + lineHeight - 2)
}

// drawView renders v onto dc.
func drawView(dc *gg.Context, v view.View) {
	w := float64(dc.Width())
	dc.SetColor(background)
	dc.Clear()
	dc.SetColor(foreground)

	row := 0
	dc.DrawStringAnchored(v.Title, w/2, baseline(row), 0.5, 0)
	dc.DrawLine(0, float64(lineHeight)+0.5, w, float64(lineHeight)+0.5)
	dc.SetLineWidth(1)
	dc.Stroke()
	row++

	start, end := window(len(v.Items), v.Cursor, visibleItems)
	for i := start; i < end; i++ {
		y := baseline(row)
		if i == v.Cursor {
			// Inverted bar under the selected row.
			dc.DrawRectangle(0, float64(row*lineHeight)+1, w, lineHeight)
			dc.Fill()
			dc.SetColor(background)
			dc.DrawString(v.Items[i], margin+6, y)
			dc.SetColor(foreground)
		} else {
			dc.DrawString(v.Items[i], margin+6, y)
		}
		row++
	}

	if v.Prompt != "" {
		lines := dc.WordWrap(v.Prompt, w-2*margin)
		for _, l := range lines {
			dc.DrawStringAnchored(l, w/2, baseline(row), 0.5, 0)
			row++
		}
	}

	if v.Button != "" {
		bw, _ := dc.MeasureString(v.Button)
		bw += 8
		top := float64(row*lineHeight) + 1
		dc.DrawRectangle((w-bw)/2, top, bw, lineHeight)
		dc.Fill()
		dc.SetColor(background)
		dc.DrawStringAnchored(v.Button, w/2, baseline(row), 0.5, 0)
		dc.SetColor(foreground)
		row++
	}

	if v.Status != "" {
		dc.DrawString(v.Status, margin, float64(CanvasHeight)-2)
	}
}

// scale copies src onto all of dst, keeping pixels square-edged.
func scale(dst *image.RGBA, src image.Image) {
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// toRGB565 packs img into a little-endian RGB565 buffer with the given row
// stride in bytes.
func toRGB565(buf []byte, img *image.RGBA, stride int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := (y - b.Min.Y) * stride
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			r, g, bl := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			pixel := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
			idx := row + (x-b.Min.X)*2
			if idx+1 >= len(buf) {
				return
			}
			buf[idx] = byte(pixel)
			buf[idx+1] = byte(pixel >> 8)
		}
	}
}
