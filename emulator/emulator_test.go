package emulator

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
	"periph.io/x/devices/v3/ssd1322/image4bit"
)

func mustNew(t *testing.T, w, h int) *Controller {
	t.Helper()
	c, err := New(w, h, -1)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func send(t *testing.T, c *Controller, op byte, params ...byte) {
	t.Helper()
	if err := c.SendCommands([]byte{op}); err != nil {
		t.Fatal(err)
	}
	if len(params) != 0 {
		if err := c.SendData(params); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		off     int
		wantErr bool
	}{
		{"256x64", 256, 64, -1, false},
		{"480x128", 480, 128, -1, false},
		{"explicit offset", 128, 64, 3, false},
		{"zero offset", 128, 64, 0, false},
		{"odd width", 254, 64, -1, true},
		{"too tall", 256, 129, -1, true},
		{"offset overflows", 256, 64, 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.off)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestColumnOffset(t *testing.T) {
	for _, tt := range []struct {
		name string
		off  int
		col  byte // RAM column address of the leftmost pixel
	}{
		{"centered", -1, 0x2C},
		{"zero", 0, 0},
		{"explicit", 3, 3},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(128, 64, tt.off)
			if err != nil {
				t.Fatal(err)
			}
			send(t, c, opSetColumnAddress, tt.col, tt.col)
			send(t, c, opSetRowAddress, 0, 0)
			send(t, c, opWriteRAM, 0x12, 0x34)
			if diff := cmp.Diff([]byte{0x12, 0x34, 0x00}, c.Frame().Row(0)[:3]); diff != "" {
				t.Errorf("Frame() difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPowerOnState(t *testing.T) {
	c := mustNew(t, 256, 64)
	if c.On() {
		t.Error("display on after power up")
	}
	if c.Contrast() != 0x7F {
		t.Errorf("Contrast() = %#02x, want reset value 0x7f", c.Contrast())
	}
	img := c.Image()
	for _, v := range img.Pix {
		if v != 0 {
			t.Fatal("Image() not black while the display is off")
		}
	}
}

func TestWriteWindow(t *testing.T) {
	c := mustNew(t, 256, 64)
	send(t, c, opDisplayOn)
	// Column addresses 0x1D-0x1E are panel bytes 2-5.
	send(t, c, opSetColumnAddress, 0x1D, 0x1E)
	send(t, c, opSetRowAddress, 3, 4)
	send(t, c, opWriteRAM)
	if err := c.SendData([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	// The cursor wraps back to the window start.
	if err := c.SendData([]byte{9, 10}); err != nil {
		t.Fatal(err)
	}

	f := c.Frame()
	if diff := cmp.Diff([]byte{0, 0, 9, 10, 3, 4, 0}, f.Row(3)[:7]); diff != "" {
		t.Errorf("row 3 difference (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0, 0, 5, 6, 7, 8, 0}, f.Row(4)[:7]); diff != "" {
		t.Errorf("row 4 difference (-want +got):\n%s", diff)
	}
}

func TestCommandPhaseParameters(t *testing.T) {
	c := mustNew(t, 256, 64)
	// Opcode and parameters all sent with D/C low.
	if err := c.SendCommands([]byte{opSetContrastCurrent, 0x42, opDisplayOn}); err != nil {
		t.Fatal(err)
	}
	if c.Contrast() != 0x42 || !c.On() {
		t.Errorf("Contrast() = %#02x, On() = %t", c.Contrast(), c.On())
	}
}

func TestLock(t *testing.T) {
	c := mustNew(t, 256, 64)
	send(t, c, opSetCommandLock, lockKey)
	send(t, c, opDisplayOn)
	if c.On() {
		t.Error("command accepted while locked")
	}
	send(t, c, opSetCommandLock, unlockKey)
	send(t, c, opDisplayOn)
	if !c.On() {
		t.Error("command ignored after unlock")
	}
}

func TestModes(t *testing.T) {
	tests := []struct {
		name string
		mode byte
		want byte
	}{
		{"normal", opNormalDisplay, 0x3C},
		{"inverse", opInverseDisplay, 0xC3},
		{"all on", opAllPixelsOn, 0xFF},
		{"all off", opAllPixelsOff, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustNew(t, 256, 64)
			send(t, c, opDisplayOn)
			send(t, c, opSetColumnAddress, 0x1C, 0x5B)
			send(t, c, opSetRowAddress, 0, 63)
			send(t, c, opWriteRAM)
			if err := c.SendData(bytes.Repeat([]byte{0x3C}, 256*64/2)); err != nil {
				t.Fatal(err)
			}
			send(t, c, tt.mode)
			if got := c.Image().Pix[100]; got != tt.want {
				t.Errorf("Image() byte = %#02x, want %#02x", got, tt.want)
			}
			// RAM is untouched by the mode.
			if got := c.Frame().Pix[100]; got != 0x3C {
				t.Errorf("Frame() byte = %#02x, want 0x3c", got)
			}
		})
	}
}

func TestMuxRatio(t *testing.T) {
	c := mustNew(t, 256, 64)
	send(t, c, opDisplayOn)
	send(t, c, opAllPixelsOn)
	send(t, c, opSetMuxRatio, 31)
	img := c.Image()
	if img.Gray4At(0, 31) != image4bit.White || img.Gray4At(0, 32) != image4bit.Black {
		t.Error("rows beyond the multiplex ratio are shown")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		f    func(c *Controller) error
		want string
	}{
		{"empty command", func(c *Controller) error { return c.SendCommands(nil) }, "empty"},
		{"unknown opcode", func(c *Controller) error { return c.SendCommands([]byte{0x00}) }, "unsupported"},
		{"stray data", func(c *Controller) error { return c.SendData([]byte{1}) }, "without a pending command"},
		{"command during parameters", func(c *Controller) error {
			if err := c.SendCommands([]byte{opSetColumnAddress}); err != nil {
				return err
			}
			return c.SendCommands([]byte{opDisplayOn})
		}, "waits for"},
		{"bad column window", func(c *Controller) error { return c.SendCommands([]byte{opSetColumnAddress, 0x20, 0x10}) }, "column window"},
		{"bad row window", func(c *Controller) error { return c.SendCommands([]byte{opSetRowAddress, 0, 200}) }, "row window"},
		{"vertical increment", func(c *Controller) error { return c.SendCommands([]byte{opSetRemapFormat, 0x15, 0x11}) }, "vertical"},
		{"bad lock key", func(c *Controller) error { return c.SendCommands([]byte{opSetCommandLock, 0x00}) }, "lock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f(mustNew(t, 256, 64))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want an error containing %q", err, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	c := mustNew(t, 256, 64)
	send(t, c, opSetColumnAddress, 0x1C, 0x5B)
	send(t, c, opDisplayOn)
	want := Stats{Commands: 2, Data: 1, DataBytes: 2}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("Stats() difference (-want +got):\n%s", diff)
	}
	c.ResetStats()
	if c.Stats() != (Stats{}) {
		t.Error("ResetStats() did not zero the counters")
	}
}

func TestResetKeepsRAM(t *testing.T) {
	c := mustNew(t, 256, 64)
	send(t, c, opSetColumnAddress, 0x1C, 0x1C)
	send(t, c, opSetRowAddress, 0, 0)
	send(t, c, opWriteRAM, 0xAB, 0xCD)
	send(t, c, opDisplayOn)
	c.Reset()
	if c.On() {
		t.Error("display on after Reset()")
	}
	if diff := cmp.Diff([]byte{0xAB, 0xCD}, c.Frame().Row(0)[:2]); diff != "" {
		t.Errorf("RAM difference after Reset() (-want +got):\n%s", diff)
	}
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminalWriter(&buf, nil)
	img := image4bit.NewHorizontalNibble(image.Rect(0, 0, 4, 2))
	img.Fill(image4bit.White)
	if err := term.Render(img); err != nil {
		t.Fatal(err)
	}
	first := buf.String()
	if strings.Count(first, "\n") != 2 {
		t.Errorf("Render() wrote %d lines, want 2", strings.Count(first, "\n"))
	}
	if strings.Contains(first, "\033[2A") {
		t.Error("first Render() moved the cursor up")
	}
	white := ansi256.Default.Block(color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	if got := strings.Count(first, white); got != 4 {
		t.Errorf("Render() wrote %d white cells, want 4: %q", got, first)
	}

	buf.Reset()
	if err := term.Render(img); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\033[2A\r") {
		t.Errorf("second Render() does not overwrite the first: %q", buf.String())
	}

	// Status lines printed between frames are overwritten too.
	buf.Reset()
	if _, err := io.WriteString(term, "one\ntwo\n"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "one\ntwo\n" {
		t.Errorf("Write() wrote %q", buf.String())
	}
	buf.Reset()
	if err := term.Render(img); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\033[4A\r") {
		t.Errorf("Render() after status lines starts with %q, want the cursor 4 lines up", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\033[J") {
		t.Errorf("Render() does not erase the old status lines: %q", buf.String())
	}
	buf.Reset()
	if err := term.Render(img); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\033[2A\r") {
		t.Errorf("status lines still counted after a Render(): %q", buf.String())
	}

	buf.Reset()
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\033[0m" {
		t.Errorf("Halt() wrote %q", buf.String())
	}
}
