//go:build screen

package video

import (
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"

	"gostepper/view"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Display implements view.Renderer on a framebuffer. Views are drawn on a
// background goroutine; if several arrive while one is being drawn only the
// latest is shown.
type Display struct {
	canvas          *gg.Context
	frame           *image.RGBA
	pixBuffer       []byte
	backBuffer      []byte
	width           int
	height          int
	lineLengthBytes int

	pending chan view.View
	wg      sync.WaitGroup
	once    sync.Once
}

// New opens the framebuffer and starts the render goroutine.
func New(cfg Config) (*Display, error) {
	fbLowLevel, err := framebuffer.OpenFrameBuffer(cfg.device(), os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get fixed screen info: %w", err)
	}
	if varInfo.BitsPerPixel != 16 {
		return nil, fmt.Errorf("framebuffer %s: %d bpp unsupported, need 16", cfg.device(), varInfo.BitsPerPixel)
	}

	canvas, err := newCanvas(cfg.FontPath, cfg.FontSize)
	if err != nil {
		return nil, err
	}

	d := &Display{
		canvas:          canvas,
		width:           int(varInfo.XRes),
		height:          int(varInfo.YRes),
		lineLengthBytes: int(fixedInfo.LineLength),
		pending:         make(chan view.View, 1),
	}
	d.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return nil, fmt.Errorf("get pixel data: %w", err)
	}
	d.backBuffer = make([]byte, d.height*d.lineLengthBytes)
	d.frame = image.NewRGBA(image.Rect(0, 0, d.width, d.height))

	log.Printf("Video: framebuffer %dx%d, %d bpp, stride %d bytes",
		d.width, d.height, varInfo.BitsPerPixel, d.lineLengthBytes)

	d.clear()
	d.wg.Add(1)
	go d.loop()
	return d, nil
}

// Show implements view.Renderer. It does not wait for the frame to be drawn.
func (d *Display) Show(v view.View) {
	v.Items = append([]string(nil), v.Items...)
	select {
	case d.pending <- v:
		return
	default:
	}
	// Replace the frame that has not been drawn yet.
	select {
	case <-d.pending:
	default:
	}
	select {
	case d.pending <- v:
	default:
	}
}

func (d *Display) loop() {
	defer d.wg.Done()
	for v := range d.pending {
		drawView(d.canvas, v)
		scale(d.frame, d.canvas.Image())
		d.update()
	}
}

func (d *Display) clear() {
	for i := range d.pixBuffer {
		d.pixBuffer[i] = 0
	}
}

func (d *Display) update() {
	toRGB565(d.backBuffer, d.frame, d.lineLengthBytes)
	copy(d.pixBuffer, d.backBuffer)
}

// Release stops the render goroutine and blanks the screen.
func (d *Display) Release() error {
	d.once.Do(func() {
		close(d.pending)
		d.wg.Wait()
		d.clear()
	})
	return nil
}

// Width returns the display width.
func (d *Display) Width() int {
	return d.width
}

// Height returns the display height.
func (d *Display) Height() int {
	return d.height
}
