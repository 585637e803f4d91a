// Package ssd1322 controls a SSD1322 OLED display via SPI.
//
// The SSD1322 is a 4-bit grayscale OLED controller supporting up to 480×128 pixels.
// This driver implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 4-bit grayscale with 16 intensity levels (0-15)
// - Support for various resolutions (typically 256×64 or 128×64)
// - 480-column internal RAM; the panel window is placed with Opts.ColumnOffset
// - Write only: the driver keeps the framebuffer in memory
//
// # Hardware Connection
//
// Connect the SSD1322 display to your system via 4-wire SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL/CLK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select (or GND if always selected)
//	RES         → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	host.Init()
//	spiBus, _ := spireg.Open("")
//	dev, _ := ssd1322.NewSPI(spiBus, gpioreg.ByName("GPIO25"), &ssd1322.Opts{
//		W:   256,
//		H:   64,
//		RST: gpioreg.ByName("GPIO24"),
//	})
//	defer dev.Halt()
//
//	for y := 1; y < 8; y++ {
//		dev.SetPixel(1, y, image4bit.White)
//	}
//	dev.Flush()
//
// NewSPI resets (when RST is set), initializes and blanks the display. With a
// custom Transport use New, then Reset, Init and FlushAll yourself.
//
// # Framebuffer and Flushing
//
// Drawing never touches the bus. Every pixel write that changes a byte of the
// framebuffer widens a bounding box (Region) in units of framebuffer bytes and
// rows. Flush rounds the box out to whole RAM column addresses (4 pixels),
// sets the RAM window to it and sends one data transfer per row. FlushAll
// always sends the whole frame; use it after Clear or Write, or to resync
// after an error.
//
// Dev also implements draw.Image, so golang.org/x/image/font drawers and other
// renderers can draw into it directly:
//
//	drawer := font.Drawer{Dst: dev, Src: image.NewUniform(image4bit.White), Face: basicfont.Face7x13}
//	drawer.DrawString("12:00")
//	dev.Flush()
//
// # Errors
//
// Bus failures are reported as *BusError and are never retried. After a failed
// Init or Flush the RAM window of the controller is unknown; the recovery is
// Reset, Init and FlushAll.
//
// # Datasheet
//
// For detailed register descriptions and timing information, see:
// https://www.displayfuture.com/Display/datasheet/controller/SSD1322.pdf
package ssd1322
