package ssd1322

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Transport is the bus the controller is attached to.
//
// SendCommands transfers bytes with the D/C line low, SendData with the D/C
// line high. Both block until the transfer completes. Transfers must reach
// the controller in the order they were issued.
type Transport interface {
	SendCommands(b []byte) error
	SendData(b []byte) error
}

// BusError is returned when a transfer to the controller or a reset pin
// change fails.
type BusError struct {
	Op  string // "command", "data" or "reset"
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("ssd1322: %s write failed: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// SPI is a 4-wire SPI Transport: SPI for the bytes and a GPIO for the D/C
// line.
type SPI struct {
	c     conn.Conn
	dc    gpio.PinOut
	maxTx int
}

// DefaultSPIFrequency is a conservative clock; the SSD1322 is rated for 10MHz
// writes.
const DefaultSPIFrequency = 10 * physic.MegaHertz

// NewSPITransport connects to p in Mode0 with 8-bit words.
//
// dc must be a valid output pin; the SSD1322 3-wire mode (9-bit words) is not
// supported. f can be 0 to use DefaultSPIFrequency.
func NewSPITransport(p spi.Port, dc gpio.PinOut, f physic.Frequency) (*SPI, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("ssd1322: a D/C pin is required, 3-wire SPI is not supported")
	}
	if f == 0 {
		f = DefaultSPIFrequency
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	// SSD1322 supports Mode0 (CPOL=0, CPHA=0) or Mode3 (CPOL=1, CPHA=1).
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	s := &SPI{c: c, dc: dc}
	if l, ok := c.(conn.Limits); ok {
		s.maxTx = l.MaxTxSize()
	}
	return s, nil
}

func (s *SPI) String() string {
	return fmt.Sprintf("%s, %s", s.c, s.dc)
}

// SendCommands implements Transport.
func (s *SPI) SendCommands(b []byte) error {
	return s.tx("command", gpio.Low, b)
}

// SendData implements Transport.
func (s *SPI) SendData(b []byte) error {
	return s.tx("data", gpio.High, b)
}

func (s *SPI) tx(op string, l gpio.Level, b []byte) error {
	if err := s.dc.Out(l); err != nil {
		return &BusError{Op: op, Err: err}
	}
	// spidev rejects transfers larger than its buffer; a full frame is 8KiB.
	for len(b) > 0 {
		n := len(b)
		if s.maxTx > 0 && n > s.maxTx {
			n = s.maxTx
		}
		if err := s.c.Tx(b[:n], nil); err != nil {
			return &BusError{Op: op, Err: err}
		}
		b = b[n:]
	}
	return nil
}

var _ Transport = &SPI{}
