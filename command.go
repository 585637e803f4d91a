package ssd1322

import "fmt"

// Opcodes understood by the SSD1322. See section 9 of the datasheet.
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

// unlockKey is the Set Command Lock parameter that re-enables the MCU interface.
const unlockKey = 0x12

var opNames = map[byte]string{
	opSetColumnAddress:       "SetColumnAddress",
	opWriteRAM:               "WriteRAM",
	opSetRowAddress:          "SetRowAddress",
	opSetRemapFormat:         "SetRemapFormat",
	opSetStartLine:           "SetStartLine",
	opSetDisplayOffset:       "SetDisplayOffset",
	opAllPixelsOff:           "AllPixelsOff",
	opAllPixelsOn:            "AllPixelsOn",
	opNormalDisplay:          "NormalDisplayMode",
	opInverseDisplay:         "InverseDisplayMode",
	opExitPartialDisplay:     "ExitPartialDisplay",
	opSetFunctionSelection:   "SetFunctionSelection",
	opDisplayOff:             "DisplayOff",
	opDisplayOn:              "DisplayOn",
	opSetPhaseLength:         "SetPhaseLength",
	opSetDisplayClock:        "SetDisplayClock",
	opSetDisplayEnhancementA: "SetDisplayEnhancementA",
	opSetGPIO:                "SetGPIO",
	opSetPrechargePeriod:     "SetPrechargePeriod",
	opSetLinearGrayScale:     "SetLinearGrayScaleTable",
	opSetPrechargeVoltage:    "SetPrechargeVoltage",
	opSetVCOMH:               "SetVCOMH",
	opSetContrastCurrent:     "SetContrastCurrent",
	opSetMasterCurrent:       "SetMasterCurrent",
	opSetMuxRatio:            "SetMuxRatio",
	opSetDisplayEnhancementB: "SetDisplayEnhancementB",
	opSetCommandLock:         "Unlock",
}

// Command is one SSD1322 instruction: an opcode followed by up to two
// parameter bytes.
//
// The set of commands is closed; values can only be built with the
// constructors of this package.
type Command struct {
	buf [3]byte
	n   uint8
}

func cmd(op byte, params ...byte) Command {
	c := Command{n: uint8(1 + len(params))}
	c.buf[0] = op
	copy(c.buf[1:], params)
	return c
}

// Unlock enables the MCU interface to accept commands.
func Unlock() Command { return cmd(opSetCommandLock, unlockKey) }

// SetColumnAddress sets the RAM column window. Each column address covers 4
// pixels (2 bytes).
func SetColumnAddress(start, end byte) Command { return cmd(opSetColumnAddress, start, end) }

// SetRowAddress sets the RAM row window.
func SetRowAddress(start, end byte) Command { return cmd(opSetRowAddress, start, end) }

// SetDisplayClock sets the front clock divider and oscillator frequency.
func SetDisplayClock(v byte) Command { return cmd(opSetDisplayClock, v) }

// SetMuxRatio sets the multiplex ratio, that is the number of rows minus one.
func SetMuxRatio(v byte) Command { return cmd(opSetMuxRatio, v) }

// SetDisplayOffset shifts the mapping of the RAM counter.
func SetDisplayOffset(v byte) Command { return cmd(opSetDisplayOffset, v) }

// SetStartLine shifts the RAM display start line.
func SetStartLine(v byte) Command { return cmd(opSetStartLine, v) }

// SetRemapFormat sets address increment, nibble remap and COM scan direction.
func SetRemapFormat(a, b byte) Command { return cmd(opSetRemapFormat, a, b) }

// SetGPIO configures the GPIO0/GPIO1 pins.
func SetGPIO(v byte) Command { return cmd(opSetGPIO, v) }

// SetFunctionSelection selects the internal or external VDD regulator.
func SetFunctionSelection(v byte) Command { return cmd(opSetFunctionSelection, v) }

// SetDisplayEnhancementA sets the VSL source and low gray scale quality.
func SetDisplayEnhancementA(a, b byte) Command { return cmd(opSetDisplayEnhancementA, a, b) }

// SetContrastCurrent sets the segment output current.
func SetContrastCurrent(v byte) Command { return cmd(opSetContrastCurrent, v) }

// SetMasterCurrent scales the contrast current (0x00-0x0F).
func SetMasterCurrent(v byte) Command { return cmd(opSetMasterCurrent, v) }

// SetLinearGrayScaleTable selects the built-in linear gray scale table.
func SetLinearGrayScaleTable() Command { return cmd(opSetLinearGrayScale) }

// SetPhaseLength sets the reset (phase 1) and first precharge (phase 2) periods.
func SetPhaseLength(v byte) Command { return cmd(opSetPhaseLength, v) }

// SetDisplayEnhancementB sets the display enhancement B register.
func SetDisplayEnhancementB(a, b byte) Command { return cmd(opSetDisplayEnhancementB, a, b) }

// SetPrechargeVoltage sets the precharge voltage level.
func SetPrechargeVoltage(v byte) Command { return cmd(opSetPrechargeVoltage, v) }

// SetPrechargePeriod sets the second precharge period.
func SetPrechargePeriod(v byte) Command { return cmd(opSetPrechargePeriod, v) }

// SetVCOMH sets the COM deselect voltage level.
func SetVCOMH(v byte) Command { return cmd(opSetVCOMH, v) }

// NormalDisplayMode shows the RAM content.
func NormalDisplayMode() Command { return cmd(opNormalDisplay) }

// InverseDisplayMode shows the RAM content with inverted gray levels.
func InverseDisplayMode() Command { return cmd(opInverseDisplay) }

// AllPixelsOn lights every pixel at gray level 15, ignoring RAM.
func AllPixelsOn() Command { return cmd(opAllPixelsOn) }

// AllPixelsOff turns every pixel off, ignoring RAM.
func AllPixelsOff() Command { return cmd(opAllPixelsOff) }

// ExitPartialDisplay leaves partial display mode.
func ExitPartialDisplay() Command { return cmd(opExitPartialDisplay) }

// WriteRAM announces that following data bytes go to the RAM window.
func WriteRAM() Command { return cmd(opWriteRAM) }

// DisplayOn leaves sleep mode.
func DisplayOn() Command { return cmd(opDisplayOn) }

// DisplayOff enters sleep mode.
func DisplayOff() Command { return cmd(opDisplayOff) }

// Opcode returns the command byte.
func (c Command) Opcode() byte {
	return c.buf[0]
}

// Params returns the parameter bytes, in wire order.
func (c Command) Params() []byte {
	if c.n <= 1 {
		return nil
	}
	return c.buf[1:c.n]
}

// Bytes returns the opcode followed by its parameters.
func (c Command) Bytes() []byte {
	return c.buf[:c.n]
}

func (c Command) String() string {
	name, ok := opNames[c.buf[0]]
	if !ok || c.n == 0 {
		return fmt.Sprintf("Command(%#02x)", c.buf[0])
	}
	if c.n == 1 {
		return name
	}
	return fmt.Sprintf("%s(% #x)", name, c.buf[1:c.n])
}

// send writes the opcode as a command phase transfer, then the parameters,
// if any, as a single data phase transfer.
//
// A failure is returned as is; on a failed parameter transfer the controller
// is left waiting for parameters and must be reinitialized.
func (c Command) send(t Transport) error {
	if c.n == 0 {
		return nil
	}
	buf := c.buf
	if err := t.SendCommands(buf[:1]); err != nil {
		return err
	}
	if c.n > 1 {
		return t.SendData(buf[1:c.n])
	}
	return nil
}
