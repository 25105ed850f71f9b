package proto

import (
	"bytes"
	"errors"
	"testing"
)

func TestOneBytePerColumnEmpty(t *testing.T) {
	p := NewPage(3, 90, 7)
	want := make([]byte, 96)
	want[0], want[1] = 0x03, 0x10
	want[94], want[95] = 0xFF, 0xFF
	if got := p.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}

	p2, err := PageFromBytes(90, 7, p.Bytes())
	if err != nil {
		t.Fatalf("PageFromBytes: %s", err)
	}
	if !bytes.Equal(p2.Bytes(), p.Bytes()) {
		t.Errorf("round trip mismatch")
	}
}

func TestTwoBytesPerColumnEmpty(t *testing.T) {
	p := NewPage(1, 40, 12)
	if got, want := len(p.Bytes()), 96; got != want {
		t.Fatalf("got %d bytes, want %d", got, want)
	}
	// Two bytes per column * 40 cols + 4-byte header = 84 data bytes,
	// rounded up to the next multiple of 16 = 96; last 12 bytes are padding.
	b := p.Bytes()
	for i := len(b) - 12; i < len(b); i++ {
		if b[i] != 0xFF {
			t.Errorf("byte %d = %#02x, want 0xFF padding", i, b[i])
		}
	}
}

func TestSetGetPixels(t *testing.T) {
	p := NewPage(1, 16, 16)

	p.SetPixel(0, 0, true)
	if !p.GetPixel(0, 0) {
		t.Error("expected pixel (0,0) on")
	}
	p.SetPixel(0, 0, false)
	if p.GetPixel(0, 0) {
		t.Error("expected pixel (0,0) off")
	}

	p.SetPixel(13, 10, true)
	if !p.GetPixel(13, 10) {
		t.Error("expected pixel (13,10) on")
	}
}

func TestOneBytePerColumnSetBits(t *testing.T) {
	p := NewPage(3, 90, 7)
	p.SetPixel(0, 0, true)
	p.SetPixel(89, 5, true)
	p.SetPixel(89, 6, true)
	p.SetPixel(4, 4, true)
	p.SetPixel(4, 4, false)

	want := make([]byte, 96)
	want[0], want[1] = 0x03, 0x10
	want[4] = 0x01
	want[93] = 0x60
	want[94], want[95] = 0xFF, 0xFF
	if got := p.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestWrongSizeRejected(t *testing.T) {
	_, err := PageFromBytes(90, 7, []byte{0x01, 0x01, 0x03})
	var wrong *WrongPageLength
	if !errors.As(err, &wrong) {
		t.Fatalf("got %v, want *WrongPageLength", err)
	}
	if wrong.Expected != 96 || wrong.Actual != 3 {
		t.Errorf("got %+v", wrong)
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	p := NewPage(1, 8, 8)
	p.SetPixel(9, 0, true)
}

func TestPageDisplay(t *testing.T) {
	p := NewPage(1, 2, 2)
	p.SetPixel(0, 0, true)
	p.SetPixel(1, 1, true)
	want := "+--+\n|@ |\n| @|\n+--+"
	if got := p.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
