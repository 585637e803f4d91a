package emulator

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/devices/v3/ssd1322/image4bit"
)

// Terminal draws panel images on an ANSI terminal, one character cell per
// horizontal pixel pair.
//
// Text written to the Terminal between two renders is shown below the frame
// and erased by the next Render, so the frame stays in place.
type Terminal struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
	drawn   bool
	lines   int // frame rows plus status lines since the last Render
}

// NewTerminal returns a Terminal writing to stdout. p can be nil to use
// ansi256.Default.
func NewTerminal(p *ansi256.Palette) *Terminal {
	return NewTerminalWriter(colorable.NewColorableStdout(), p)
}

// NewTerminalWriter returns a Terminal writing to w.
func NewTerminalWriter(w io.Writer, p *ansi256.Palette) *Terminal {
	if p == nil {
		p = ansi256.Default
	}
	return &Terminal{w: w, palette: *p}
}

// Render draws img, overwriting the previous rendering in place.
func (t *Terminal) Render(img *image4bit.HorizontalNibble) error {
	t.buf.Reset()
	if t.drawn && t.lines > 0 {
		// Move the cursor back to the top left of the previous frame.
		fmt.Fprintf(&t.buf, "\033[%dA\r", t.lines)
	}
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, v := range img.Row(y) {
			// Average the two nibbles of the byte.
			g := ((v >> 4) + (v & 0x0F) + 1) / 2 * 0x11
			_, _ = io.WriteString(&t.buf, t.palette.Block(color.NRGBA{R: g, G: g, B: g, A: 0xFF}))
		}
		t.buf.WriteString("\033[0m\n")
	}
	// Erase the status lines printed under the previous frame.
	t.buf.WriteString("\033[J")
	t.drawn = true
	t.lines = r.Dy()
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Write prints status text under the last frame. It implements io.Writer.
func (t *Terminal) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.lines += bytes.Count(p[:n], []byte{'\n'})
	return n, err
}

// Halt resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m"))
	return err
}

func (t *Terminal) String() string {
	return "Terminal"
}
