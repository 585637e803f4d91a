// Package emulator implements an in-memory SSD1322 controller.
//
// Controller decodes the command and data transfers a driver sends and keeps a
// copy of the 480×128 display RAM. It implements ssd1322.Transport, so it can
// stand in for a real bus: unit tests compare what reached the RAM with what
// was drawn, and the demo renders it to the terminal when no hardware is
// attached.
//
// Only horizontal address increment is modeled. Remap settings are recorded
// but the RAM is always presented unrotated.
package emulator

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/devices/v3/ssd1322/image4bit"
)

const (
	ramWidth  = 480
	ramHeight = 128
	ramCols   = ramWidth / 4 // column addresses
	rowBytes  = ramWidth / 2
)

// Opcodes decoded by the controller.
const (
	opSetColumnAddress       = 0x15
	opWriteRAM               = 0x5C
	opSetRowAddress          = 0x75
	opSetRemapFormat         = 0xA0
	opSetStartLine           = 0xA1
	opSetDisplayOffset       = 0xA2
	opAllPixelsOff           = 0xA4
	opAllPixelsOn            = 0xA5
	opNormalDisplay          = 0xA6
	opInverseDisplay         = 0xA7
	opExitPartialDisplay     = 0xA9
	opSetFunctionSelection   = 0xAB
	opDisplayOff             = 0xAE
	opDisplayOn              = 0xAF
	opSetPhaseLength         = 0xB1
	opSetDisplayClock        = 0xB3
	opSetDisplayEnhancementA = 0xB4
	opSetGPIO                = 0xB5
	opSetPrechargePeriod     = 0xB6
	opSetLinearGrayScale     = 0xB9
	opSetPrechargeVoltage    = 0xBB
	opSetVCOMH               = 0xBE
	opSetContrastCurrent     = 0xC1
	opSetMasterCurrent       = 0xC7
	opSetMuxRatio            = 0xCA
	opSetDisplayEnhancementB = 0xD1
	opSetCommandLock         = 0xFD
)

// Set Command Lock parameters.
const (
	unlockKey = 0x12
	lockKey   = 0x16
)

// arity is the number of parameter bytes of each supported opcode.
var arity = map[byte]int{
	opSetColumnAddress:       2,
	opWriteRAM:               0,
	opSetRowAddress:          2,
	opSetRemapFormat:         2,
	opSetStartLine:           1,
	opSetDisplayOffset:       1,
	opAllPixelsOff:           0,
	opAllPixelsOn:            0,
	opNormalDisplay:          0,
	opInverseDisplay:         0,
	opExitPartialDisplay:     0,
	opSetFunctionSelection:   1,
	opDisplayOff:             0,
	opDisplayOn:              0,
	opSetPhaseLength:         1,
	opSetDisplayClock:        1,
	opSetDisplayEnhancementA: 2,
	opSetGPIO:                1,
	opSetPrechargePeriod:     1,
	opSetLinearGrayScale:     0,
	opSetPrechargeVoltage:    1,
	opSetVCOMH:               1,
	opSetContrastCurrent:     1,
	opSetMasterCurrent:       1,
	opSetMuxRatio:            1,
	opSetDisplayEnhancementB: 2,
	opSetCommandLock:         1,
}

// Stats counts bus transfers.
type Stats struct {
	Commands  int // command phase transfers
	Data      int // data phase transfers
	DataBytes int // bytes sent in the data phase
}

// Controller is an emulated SSD1322. The zero value is not usable, use New.
type Controller struct {
	w, h         int
	columnOffset int

	ram [ramHeight][rowBytes]byte

	colStart, colEnd int
	rowStart, rowEnd int
	col, row, half   int

	op      byte
	params  []byte
	pending int
	writing bool

	locked   bool
	on       bool
	mode     byte
	contrast byte
	remap    [2]byte
	mux      byte

	stats Stats
}

// New returns a powered up controller driving a w×h panel whose left edge is
// at RAM column address columnOffset. A negative offset centers the panel,
// like the driver does when no offset is configured.
func New(w, h, columnOffset int) (*Controller, error) {
	if w < 4 || w%4 != 0 || w > ramWidth || h <= 0 || h > ramHeight {
		return nil, fmt.Errorf("emulator: invalid panel size %dx%d", w, h)
	}
	if columnOffset < 0 {
		columnOffset = (ramWidth - w) / 8
	}
	if columnOffset < 0 || columnOffset+w/4 > ramCols {
		return nil, fmt.Errorf("emulator: column offset %d does not fit a %d pixel wide panel", columnOffset, w)
	}
	c := &Controller{w: w, h: h, columnOffset: columnOffset}
	c.powerOn()
	return c, nil
}

// powerOn sets the registers to their reset values.
func (c *Controller) powerOn() {
	c.colStart, c.colEnd = 0, ramCols-1
	c.rowStart, c.rowEnd = 0, ramHeight-1
	c.col, c.row, c.half = c.colStart, c.rowStart, 0
	c.op, c.params, c.pending, c.writing = 0, c.params[:0], 0, false
	c.locked = false
	c.on = false
	c.mode = opNormalDisplay
	c.contrast = 0x7F
	c.mux = ramHeight - 1
}

// Reset emulates a pulse on the RES pin. RAM content is kept.
func (c *Controller) Reset() {
	c.powerOn()
}

// SendCommands implements ssd1322.Transport.
//
// The first byte is an opcode. Further bytes in the same transfer are taken
// as its parameters, so both the "opcode then data phase parameters" and the
// "everything in the command phase" conventions decode the same.
func (c *Controller) SendCommands(b []byte) error {
	c.stats.Commands++
	if len(b) == 0 {
		return errors.New("emulator: empty command transfer")
	}
	if c.pending != 0 {
		return fmt.Errorf("emulator: command %#02x while %#02x waits for %d parameter(s)", b[0], c.op, c.pending)
	}
	for len(b) > 0 {
		n, ok := arity[b[0]]
		if !ok {
			return fmt.Errorf("emulator: unsupported command %#02x", b[0])
		}
		c.op, c.params, c.pending, c.writing = b[0], c.params[:0], n, false
		b = b[1:]
		k := min(n, len(b))
		if err := c.feed(b[:k]); err != nil {
			return err
		}
		b = b[k:]
	}
	return nil
}

// SendData implements ssd1322.Transport.
func (c *Controller) SendData(b []byte) error {
	c.stats.Data++
	c.stats.DataBytes += len(b)
	if c.pending != 0 {
		k := min(c.pending, len(b))
		if err := c.feed(b[:k]); err != nil {
			return err
		}
		b = b[k:]
	}
	if len(b) == 0 {
		return nil
	}
	if !c.writing {
		return fmt.Errorf("emulator: %d data byte(s) without a pending command or WriteRAM", len(b))
	}
	for _, v := range b {
		c.writeRAM(v)
	}
	return nil
}

// feed appends parameters to the current command and executes it once
// complete.
func (c *Controller) feed(p []byte) error {
	c.params = append(c.params, p...)
	c.pending -= len(p)
	if c.pending == 0 {
		return c.exec()
	}
	return nil
}

func (c *Controller) exec() error {
	if c.locked && c.op != opSetCommandLock {
		return nil
	}
	p := c.params
	switch c.op {
	case opSetCommandLock:
		switch p[0] {
		case unlockKey:
			c.locked = false
		case lockKey:
			c.locked = true
		default:
			return fmt.Errorf("emulator: invalid command lock value %#02x", p[0])
		}
	case opSetColumnAddress:
		if p[0] > p[1] || int(p[1]) >= ramCols {
			return fmt.Errorf("emulator: invalid column window [%d, %d]", p[0], p[1])
		}
		c.colStart, c.colEnd = int(p[0]), int(p[1])
		c.col, c.half = c.colStart, 0
	case opSetRowAddress:
		if p[0] > p[1] || int(p[1]) >= ramHeight {
			return fmt.Errorf("emulator: invalid row window [%d, %d]", p[0], p[1])
		}
		c.rowStart, c.rowEnd = int(p[0]), int(p[1])
		c.row, c.half = c.rowStart, 0
	case opWriteRAM:
		c.col, c.row, c.half = c.colStart, c.rowStart, 0
		c.writing = true
	case opSetRemapFormat:
		if p[0]&0x01 != 0 {
			return errors.New("emulator: vertical address increment is not supported")
		}
		c.remap = [2]byte{p[0], p[1]}
	case opAllPixelsOff, opAllPixelsOn, opNormalDisplay, opInverseDisplay:
		c.mode = c.op
	case opDisplayOff:
		c.on = false
	case opDisplayOn:
		c.on = true
	case opSetContrastCurrent:
		c.contrast = p[0]
	case opSetMuxRatio:
		c.mux = p[0]
	}
	return nil
}

// writeRAM stores one byte at the cursor and advances it inside the window.
func (c *Controller) writeRAM(v byte) {
	c.ram[c.row][c.col*2+c.half] = v
	c.half++
	if c.half < 2 {
		return
	}
	c.half = 0
	c.col++
	if c.col <= c.colEnd {
		return
	}
	c.col = c.colStart
	c.row++
	if c.row > c.rowEnd {
		c.row = c.rowStart
	}
}

// Stats returns the transfer counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// ResetStats zeroes the transfer counters.
func (c *Controller) ResetStats() {
	c.stats = Stats{}
}

// On reports whether the display is on.
func (c *Controller) On() bool {
	return c.on
}

// Contrast returns the last contrast current set.
func (c *Controller) Contrast() byte {
	return c.contrast
}

// Bounds returns the panel size.
func (c *Controller) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.w, c.h)
}

// Frame returns a copy of the RAM bytes backing the panel, in the driver's
// framebuffer layout.
func (c *Controller) Frame() *image4bit.HorizontalNibble {
	img := image4bit.NewHorizontalNibble(c.Bounds())
	start := c.columnOffset * 2
	for y := 0; y < c.h; y++ {
		copy(img.Row(y), c.ram[y][start:start+img.Stride])
	}
	return img
}

// Image returns what the panel shows: the RAM as altered by the display
// mode, or black when the display is off.
func (c *Controller) Image() *image4bit.HorizontalNibble {
	img := c.Frame()
	switch {
	case !c.on || c.mode == opAllPixelsOff:
		img.Fill(image4bit.Black)
	case c.mode == opAllPixelsOn:
		img.Fill(image4bit.White)
	case c.mode == opInverseDisplay:
		for i, v := range img.Pix {
			img.Pix[i] = ^v
		}
	}
	// Rows beyond the multiplex ratio are not scanned.
	for y := int(c.mux) + 1; y < c.h; y++ {
		clear(img.Row(y))
	}
	return img
}
