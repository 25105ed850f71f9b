package proto

import (
	"fmt"
	"strings"
)

// PageID identifies a page within a multi-page message.
type PageID uint8

// PageFlipStyle reports who is in charge of advancing pages once they have
// been sent to a sign.
type PageFlipStyle int

const (
	// PageFlipManual means the controller must call ShowLoadedPage and
	// LoadNextPage itself to advance through sent pages.
	PageFlipManual PageFlipStyle = iota
	// PageFlipAutomatic means the sign cycles pages on its own once they
	// have all been received.
	PageFlipAutomatic
)

func (s PageFlipStyle) String() string {
	if s == PageFlipAutomatic {
		return "Automatic"
	}
	return "Manual"
}

// WrongPageLength signals that raw page bytes didn't match the byte count
// implied by a page's width and height.
type WrongPageLength struct {
	Width    uint32
	Height   uint32
	Expected int
	Actual   int
}

func (e *WrongPageLength) Error() string {
	return fmt.Sprintf("proto: wrong number of data bytes for a %dx%d page: expected %d, got %d",
		e.Width, e.Height, e.Expected, e.Actual)
}

// Page is a single column-major bitmap destined for a sign's display.
//
// The on-wire layout is a 4-byte header (page ID, then three bytes that
// are always 0x10 0x00 0x00 for pages built with NewPage) followed by
// pixel data, padded with 0xFF to a multiple of 16 bytes. Pixel data is
// column-major: each column occupies ceil(height/8) bytes, least
// significant bit toward the top of the display.
type Page struct {
	width, height uint32
	bytes         []byte
}

// NewPage returns a blank page of the given dimensions with the given ID.
func NewPage(id PageID, width, height uint32) Page {
	data := make([]byte, dataBytes(width, height), totalBytes(width, height))
	data[0], data[1], data[2], data[3] = byte(id), 0x10, 0x00, 0x00
	for i := 4; i < len(data); i++ {
		data[i] = 0x00
	}
	for len(data) < cap(data) {
		data = append(data, 0xFF)
	}
	return Page{width: width, height: height, bytes: data}
}

// PageFromBytes wraps raw on-wire bytes as a Page of the given dimensions.
// The header and padding bytes are taken as given and are not validated.
func PageFromBytes(width, height uint32, data []byte) (Page, error) {
	want := totalBytes(width, height)
	if len(data) != want {
		return Page{}, &WrongPageLength{Width: width, Height: height, Expected: want, Actual: len(data)}
	}
	return Page{width: width, height: height, bytes: data}, nil
}

// ID returns the page number encoded in the page's header byte.
func (p Page) ID() PageID { return PageID(p.bytes[0]) }

// Width returns the page's width in pixels.
func (p Page) Width() uint32 { return p.width }

// Height returns the page's height in pixels.
func (p Page) Height() uint32 { return p.height }

// Bytes returns the raw on-wire representation of the page.
func (p Page) Bytes() []byte { return p.bytes }

// GetPixel reports whether the pixel at (x, y) is lit. Panics if x or y is
// out of bounds.
func (p Page) GetPixel(x, y uint32) bool {
	byteIdx, bitIdx := p.indices(x, y)
	return p.bytes[byteIdx]&(1<<bitIdx) != 0
}

// SetPixel turns the pixel at (x, y) on or off. Panics if x or y is out of
// bounds.
func (p *Page) SetPixel(x, y uint32, on bool) {
	byteIdx, bitIdx := p.indices(x, y)
	if on {
		p.bytes[byteIdx] |= 1 << bitIdx
	} else {
		p.bytes[byteIdx] &^= 1 << bitIdx
	}
}

func (p Page) indices(x, y uint32) (byteIdx int, bitIdx uint32) {
	if x >= p.width || y >= p.height {
		panic(fmt.Sprintf("proto: coordinate (%d, %d) out of bounds for page of size %dx%d", x, y, p.width, p.height))
	}
	return 4 + int(x)*bytesPerColumn(p.height) + int(y/8), y % 8
}

func bytesPerColumn(height uint32) int { return (int(height) + 7) / 8 }

func dataBytes(width, height uint32) int { return 4 + int(width)*bytesPerColumn(height) }

func totalBytes(width, height uint32) int {
	return (dataBytes(width, height) + 15) / 16 * 16
}

// String renders the page as ASCII art, one character per pixel, bordered.
func (p Page) String() string {
	var b strings.Builder
	border := strings.Repeat("-", int(p.width))
	fmt.Fprintf(&b, "+%s+\n", border)
	for y := uint32(0); y < p.height; y++ {
		b.WriteByte('|')
		for x := uint32(0); x < p.width; x++ {
			if p.GetPixel(x, y) {
				b.WriteByte('@')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString("|\n")
	}
	fmt.Fprintf(&b, "+%s+", border)
	return b.String()
}
