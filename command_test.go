package ssd1322

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// xfer is one transfer seen by recorder.
type xfer struct {
	Cmd bool
	B   []byte
}

func cmdX(b ...byte) xfer  { return xfer{Cmd: true, B: b} }
func dataX(b ...byte) xfer { return xfer{B: b} }

// recorder is a Transport that records every transfer. When failAt is
// non-zero, the failAt-th transfer (1 based) returns err instead.
type recorder struct {
	ops    []xfer
	n      int
	failAt int
	err    error
}

func (r *recorder) SendCommands(b []byte) error { return r.record(true, b) }
func (r *recorder) SendData(b []byte) error     { return r.record(false, b) }

func (r *recorder) record(cmd bool, b []byte) error {
	r.n++
	if r.failAt != 0 && r.n == r.failAt {
		return r.err
	}
	r.ops = append(r.ops, xfer{Cmd: cmd, B: append([]byte(nil), b...)})
	return nil
}

func (r *recorder) reset() {
	r.ops = nil
	r.n = 0
}

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		want []byte
	}{
		{Unlock(), []byte{0xFD, 0x12}},
		{SetColumnAddress(0x1C, 0x5B), []byte{0x15, 0x1C, 0x5B}},
		{SetRowAddress(0x00, 0x3F), []byte{0x75, 0x00, 0x3F}},
		{SetDisplayClock(0x91), []byte{0xB3, 0x91}},
		{SetMuxRatio(0x3F), []byte{0xCA, 0x3F}},
		{SetDisplayOffset(0x01), []byte{0xA2, 0x01}},
		{SetStartLine(0x02), []byte{0xA1, 0x02}},
		{SetRemapFormat(0x14, 0x11), []byte{0xA0, 0x14, 0x11}},
		{SetGPIO(0x00), []byte{0xB5, 0x00}},
		{SetFunctionSelection(0x01), []byte{0xAB, 0x01}},
		{SetDisplayEnhancementA(0xA0, 0xFD), []byte{0xB4, 0xA0, 0xFD}},
		{SetContrastCurrent(0xCF), []byte{0xC1, 0xCF}},
		{SetMasterCurrent(0x0F), []byte{0xC7, 0x0F}},
		{SetLinearGrayScaleTable(), []byte{0xB9}},
		{SetPhaseLength(0xE2), []byte{0xB1, 0xE2}},
		{SetDisplayEnhancementB(0xA2, 0x20), []byte{0xD1, 0xA2, 0x20}},
		{SetPrechargeVoltage(0x1F), []byte{0xBB, 0x1F}},
		{SetPrechargePeriod(0x08), []byte{0xB6, 0x08}},
		{SetVCOMH(0x07), []byte{0xBE, 0x07}},
		{NormalDisplayMode(), []byte{0xA6}},
		{InverseDisplayMode(), []byte{0xA7}},
		{AllPixelsOn(), []byte{0xA5}},
		{AllPixelsOff(), []byte{0xA4}},
		{ExitPartialDisplay(), []byte{0xA9}},
		{WriteRAM(), []byte{0x5C}},
		{DisplayOn(), []byte{0xAF}},
		{DisplayOff(), []byte{0xAE}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cmd.Bytes()); diff != "" {
				t.Errorf("Bytes() difference (-want +got):\n%s", diff)
			}
			if tt.cmd.Opcode() != tt.want[0] {
				t.Errorf("Opcode() = %#02x, want %#02x", tt.cmd.Opcode(), tt.want[0])
			}
			if got, want := len(tt.cmd.Params()), len(tt.want)-1; got != want {
				t.Errorf("len(Params()) = %d, want %d", got, want)
			}
		})
	}
}

func TestCommandSend(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []xfer
	}{
		{"no parameter", DisplayOn(), []xfer{cmdX(0xAF)}},
		{"one parameter", SetVCOMH(0x07), []xfer{cmdX(0xBE), dataX(0x07)}},
		{"two parameters", SetRowAddress(3, 9), []xfer{cmdX(0x75), dataX(3, 9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			if err := tt.cmd.send(r); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, r.ops); diff != "" {
				t.Errorf("transfers difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandSendError(t *testing.T) {
	errBus := errors.New("bus stuck")

	r := &recorder{failAt: 1, err: errBus}
	if err := SetContrastCurrent(0x10).send(r); err != errBus {
		t.Errorf("send() = %v, want %v unchanged", err, errBus)
	}
	if len(r.ops) != 0 {
		t.Errorf("parameters sent after a failed opcode: %v", r.ops)
	}

	r = &recorder{failAt: 2, err: errBus}
	if err := SetContrastCurrent(0x10).send(r); err != errBus {
		t.Errorf("send() = %v, want %v unchanged", err, errBus)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{WriteRAM(), "WriteRAM"},
		{SetMuxRatio(0x3F), "SetMuxRatio(0x3f)"},
		{SetColumnAddress(0x1C, 0x5B), "SetColumnAddress(0x1c 0x5b)"},
		{Command{}, "Command(0x00)"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandZeroValue(t *testing.T) {
	r := &recorder{}
	if err := (Command{}).send(r); err != nil {
		t.Fatal(err)
	}
	if len(r.ops) != 0 {
		t.Errorf("zero Command sent %v", r.ops)
	}
}
