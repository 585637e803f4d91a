package ssd1322

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"iter"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1322/image4bit"
)

// Controller RAM geometry.
const (
	ramWidth  = 480 // pixels per row
	ramHeight = 128 // rows
	ramCols   = ramWidth / 4
)

// Reset pulse timings.
const (
	resetLow    = 10 * time.Millisecond
	resetSettle = 200 * time.Millisecond
)

// ErrHalted is returned by operations that write to the display after Halt.
var ErrHalted = errors.New("ssd1322: halted")

// Opts is the configuration for the SSD1322 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 256, multiple of 4 and ≤480)
	H int // Height (default: 64, ≤128)

	// ColumnOffset is the RAM column address of the leftmost panel pixel. A
	// column address covers 4 pixels. nil centers the panel in the 480 pixel
	// wide RAM, which is how 256x64 modules are wired (0x1C).
	ColumnOffset *int

	// Rotated turns the display by 180°.
	Rotated bool

	// Contrast is the segment current sent during Init. Zero uses 0xCF.
	Contrast byte

	// RST is the optional reset pin. When set, NewSPI pulses it before Init.
	RST gpio.PinOut
}

// DefaultOpts is the configuration of the common 256x64 modules.
var DefaultOpts = Opts{W: 256, H: 64}

const defaultContrast = 0xCF

// Pixel is a single gray level to write at a point.
type Pixel struct {
	image.Point
	Color image4bit.Gray4
}

// Dev is the device handle for the SSD1322 display.
//
// Drawing only updates the in-memory framebuffer; Flush sends what changed
// since the previous flush and FlushAll sends everything. Dev is not safe for
// concurrent use.
type Dev struct {
	t Transport

	// Display geometry
	rect         image.Rectangle
	columnOffset int
	rotated      bool
	contrast     byte

	fb      *image4bit.HorizontalNibble
	dirty   Region
	changed int

	halted bool
}

// New returns a Dev that talks to the controller through t.
//
// No bytes are sent: call Reset (when a reset pin is wired), Init and
// FlushAll before drawing.
//
// opts can be nil to use DefaultOpts.
func New(t Transport, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.W < 4 || opts.W%4 != 0 || opts.W > ramWidth {
		return nil, errors.New("ssd1322: width must be a multiple of 4 between 4 and 480")
	}
	if opts.H <= 0 || opts.H > ramHeight {
		return nil, errors.New("ssd1322: height must be between 1 and 128")
	}
	off := (ramWidth - opts.W) / 8
	if opts.ColumnOffset != nil {
		off = *opts.ColumnOffset
	}
	if off < 0 || off+opts.W/4 > ramCols {
		return nil, fmt.Errorf("ssd1322: column offset %d does not fit a %d pixel wide panel", off, opts.W)
	}
	contrast := opts.Contrast
	if contrast == 0 {
		contrast = defaultContrast
	}
	rect := image.Rect(0, 0, opts.W, opts.H)
	return &Dev{
		t:            t,
		rect:         rect,
		columnOffset: off,
		rotated:      opts.Rotated,
		contrast:     contrast,
		fb:           image4bit.NewHorizontalNibble(rect),
	}, nil
}

// NewSPI creates a new SSD1322 device connected via 4-wire SPI and brings it
// up: hardware reset (if opts.RST is set), Init, then a full flush of the
// blank framebuffer.
//
// The SPI port is configured for 10MHz, Mode0, 8-bit transfers.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	t, err := NewSPITransport(p, dc, 0)
	if err != nil {
		return nil, err
	}
	d, err := New(t, opts)
	if err != nil {
		return nil, err
	}
	if opts.RST != nil {
		if err := d.Reset(opts.RST, nil); err != nil {
			return nil, err
		}
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	if err := d.FlushAll(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset pulses the reset line: low for 10ms, then high and a 200ms settle
// time. It must be called before Init; the controller state is undefined
// otherwise.
//
// delay can be nil to use time.Sleep.
func (d *Dev) Reset(rst gpio.PinOut, delay func(time.Duration)) error {
	if delay == nil {
		delay = time.Sleep
	}
	if err := rst.Out(gpio.Low); err != nil {
		return &BusError{Op: "reset", Err: err}
	}
	delay(resetLow)
	if err := rst.Out(gpio.High); err != nil {
		return &BusError{Op: "reset", Err: err}
	}
	delay(resetSettle)
	return nil
}

// Init sends the initialization sequence and turns the display on.
//
// The order follows the datasheet power on sequence. The first failing
// command aborts Init; recover with Reset, Init and FlushAll.
func (d *Dev) Init() error {
	colStart, colEnd := d.columns(0, d.rect.Dx()/4-1)
	// Horizontal address increment is required by Flush.
	remapA := byte(0x14) // nibble remap, COM scan reversed
	if d.rotated {
		remapA = 0x06 // column remap, nibble remap
	}
	for _, c := range []Command{
		Unlock(),
		DisplayOff(),
		SetColumnAddress(colStart, colEnd),
		SetRowAddress(0, byte(d.rect.Dy()-1)),
		SetDisplayClock(0x91),
		SetMuxRatio(byte(d.rect.Dy() - 1)),
		SetDisplayOffset(0x00),
		SetStartLine(0x00),
		SetRemapFormat(remapA, 0x11), // dual COM line mode
		SetGPIO(0x00),
		SetFunctionSelection(0x01), // internal VDD regulator
		SetDisplayEnhancementA(0xA0, 0xFD),
		SetContrastCurrent(d.contrast),
		SetMasterCurrent(0x0F),
		SetLinearGrayScaleTable(),
		SetPhaseLength(0xE2),
		SetDisplayEnhancementB(0xA2, 0x20),
		SetPrechargeVoltage(0x1F),
		SetPrechargePeriod(0x08),
		SetVCOMH(0x07),
		NormalDisplayMode(),
		DisplayOn(),
	} {
		if err := c.send(d.t); err != nil {
			return err
		}
	}
	d.halted = false
	return nil
}

// Send sends a single command as is.
func (d *Dev) Send(c Command) error {
	return c.send(d.t)
}

// SetPixel writes one pixel to the framebuffer. Coordinates outside of
// Bounds are ignored.
func (d *Dev) SetPixel(x, y int, c image4bit.Gray4) {
	if d.fb.SetGray4(x, y, c) {
		d.changed++
		d.dirty.Touch(x/2, y)
	}
}

// DrawPixels writes every pixel of the sequence to the framebuffer. Pixels
// outside of Bounds are skipped.
func (d *Dev) DrawPixels(pixels iter.Seq[Pixel]) {
	for p := range pixels {
		d.SetPixel(p.X, p.Y, p.Color)
	}
}

// Clear fills the framebuffer with c.
//
// It does not record anything for Flush; call FlushAll afterward.
func (d *Dev) Clear(c image4bit.Gray4) {
	d.fb.Fill(c)
}

// Flush sends the part of the framebuffer modified since the last successful
// flush. It does nothing when nothing changed.
//
// On error the modified region is kept, so calling Flush again resends it.
func (d *Dev) Flush() error {
	if d.halted {
		return ErrHalted
	}
	_, _, rowMin, rowMax, ok := d.dirty.Bounds()
	if !ok {
		return nil
	}
	colMin, colMax, width := d.dirty.aligned()
	if err := d.setWindow(colMin/2, colMax/2, rowMin, rowMax); err != nil {
		return err
	}
	// One transfer per row: the window is usually narrower than a row.
	for row := rowMin; row <= rowMax; row++ {
		start := colMin + row*d.fb.Stride
		if err := d.t.SendData(d.fb.Pix[start : start+width]); err != nil {
			return err
		}
	}
	d.dirty.Reset()
	d.changed = 0
	return nil
}

// FlushAll sends the whole framebuffer regardless of what changed.
func (d *Dev) FlushAll() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.setWindow(0, d.rect.Dx()/4-1, 0, d.rect.Dy()-1); err != nil {
		return err
	}
	if err := d.t.SendData(d.fb.Pix); err != nil {
		return err
	}
	d.dirty.Reset()
	d.changed = 0
	return nil
}

// Region returns the area Flush would send.
func (d *Dev) Region() Region {
	return d.dirty
}

// Changed returns the number of pixel writes that modified the framebuffer
// since the last successful flush.
func (d *Dev) Changed() int {
	return d.changed
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image4bit.Gray4Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// At returns the framebuffer color at (x, y), which may not be on screen yet.
func (d *Dev) At(x, y int) color.Color {
	return d.fb.Gray4At(x, y)
}

// Set implements draw.Image so text and shape renderers can draw straight
// into the framebuffer. Call Flush to make the result visible.
func (d *Dev) Set(x, y int, c color.Color) {
	d.SetPixel(x, y, image4bit.Gray4Model.Convert(c).(image4bit.Gray4))
}

// Draw implements display.Drawer.
//
// src is copied into the framebuffer and the changed area is flushed. A
// full size *image4bit.HorizontalNibble drawn at the origin is sent as a
// whole frame instead.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	if img, ok := src.(*image4bit.HorizontalNibble); ok && r == d.rect && img.Rect == d.rect && sp == (image.Point{}) {
		copy(d.fb.Pix, img.Pix)
		return d.flushFrame()
	}
	d.DrawPixels(pixelsOf(d.rect, r, src, sp))
	return d.Flush()
}

// Write writes raw pixel data to the display in HorizontalNibble format.
// The data must be exactly W*H/2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.fb.Pix) {
		return 0, errors.New("ssd1322: invalid buffer size")
	}
	copy(d.fb.Pix, pixels)
	if err := d.flushFrame(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetContrast sets the segment current (0-255).
func (d *Dev) SetContrast(level byte) error {
	if d.halted {
		return ErrHalted
	}
	if err := d.Send(SetContrastCurrent(level)); err != nil {
		return err
	}
	d.contrast = level
	return nil
}

// DisplayMode selects what the panel shows.
type DisplayMode byte

// Display modes.
const (
	Normal  DisplayMode = opNormalDisplay
	Inverse DisplayMode = opInverseDisplay
	AllOn   DisplayMode = opAllPixelsOn
	AllOff  DisplayMode = opAllPixelsOff
)

// SetDisplayMode switches between showing RAM, inverted RAM, or all pixels
// forced on or off. RAM content is preserved.
func (d *Dev) SetDisplayMode(m DisplayMode) error {
	if d.halted {
		return ErrHalted
	}
	switch m {
	case Normal:
		return d.Send(NormalDisplayMode())
	case Inverse:
		return d.Send(InverseDisplayMode())
	case AllOn:
		return d.Send(AllPixelsOn())
	case AllOff:
		return d.Send(AllPixelsOff())
	default:
		return fmt.Errorf("ssd1322: unknown display mode %#02x", byte(m))
	}
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if invert {
		return d.SetDisplayMode(Inverse)
	}
	return d.SetDisplayMode(Normal)
}

// Halt turns the display off.
//
// Drawing to the framebuffer still works, but everything that sends pixels
// returns ErrHalted until Init is called again.
func (d *Dev) Halt() error {
	if err := d.Send(DisplayOff()); err != nil {
		return err
	}
	d.halted = true
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1322.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// flushFrame sends the whole frame after the framebuffer was replaced
// wholesale. On error every byte is marked for the next Flush since the
// framebuffer no longer matches the panel.
func (d *Dev) flushFrame() error {
	if err := d.FlushAll(); err != nil {
		d.dirty.Touch(0, 0)
		d.dirty.Touch(d.fb.Stride-1, d.rect.Dy()-1)
		return err
	}
	return nil
}

// setWindow selects the RAM window for the following data bytes. cols are
// panel relative column addresses.
func (d *Dev) setWindow(colStart, colEnd, rowStart, rowEnd int) error {
	cs, ce := d.columns(colStart, colEnd)
	for _, c := range []Command{
		SetColumnAddress(cs, ce),
		SetRowAddress(byte(rowStart), byte(rowEnd)),
		WriteRAM(),
	} {
		if err := c.send(d.t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) columns(start, end int) (byte, byte) {
	return byte(start + d.columnOffset), byte(end + d.columnOffset)
}

// pixelsOf yields the pixels of src that draw.Draw would copy to r.
func pixelsOf(bounds, r image.Rectangle, src image.Image, sp image.Point) iter.Seq[Pixel] {
	return func(yield func(Pixel) bool) {
		clipped := r.Intersect(bounds)
		sb := src.Bounds()
		for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
			for x := clipped.Min.X; x < clipped.Max.X; x++ {
				s := image.Pt(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)
				if !s.In(sb) {
					continue
				}
				c := image4bit.Gray4Model.Convert(src.At(s.X, s.Y)).(image4bit.Gray4)
				if !yield(Pixel{Point: image.Pt(x, y), Color: c}) {
					return
				}
			}
		}
	}
}

var _ display.Drawer = &Dev{}
