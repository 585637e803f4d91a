// Package image4bit provides a 4-bit grayscale image format for the SSD1322 display controller.
//
// The SSD1322 OLED controller uses 4-bit grayscale (16 intensity levels from 0-15).
// Pixels are stored in horizontal nibble packing where each byte contains 2 pixels.
//
// Memory layout example for a 4-pixel row:
//
//	Pixels: 0  1  2  3
//	Values: 5  10 3  12
//	Bytes:  0x5A     0x3C
//
// HorizontalNibble is the framebuffer of the driver. SetGray4 reports whether
// the packed byte changed, which is what the driver uses to decide whether a
// pixel must be sent again:
//
//	img := image4bit.NewHorizontalNibble(image.Rect(0, 0, 256, 64))
//	if img.SetGray4(10, 20, image4bit.Gray4{Y: 8}) {
//		// byte 10/2 + 20*128 now differs from what was last sent
//	}
//
// Fill sets both nibbles of every byte at once and is the cheapest way to clear
// the whole image.
package image4bit
