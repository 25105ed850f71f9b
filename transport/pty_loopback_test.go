package transport

import (
	"testing"
	"time"

	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/proto"
)

func TestPTYLoopbackRoundTrip(t *testing.T) {
	device := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	l, err := NewPTYLoopback(device)
	if err != nil {
		t.Fatalf("NewPTYLoopback: %s", err)
	}
	defer l.Close()

	resp, ok, err := l.Exchange(proto.Hello{Address: 3})
	if err != nil {
		t.Fatalf("Exchange: %s", err)
	}
	if !ok {
		t.Fatalf("expected a response")
	}
	want := proto.ReportState{Address: 3, State: proto.Unconfigured}
	if resp.String() != want.String() {
		t.Errorf("got %v, want %v", resp, want)
	}
}

func TestPTYLoopbackNoResponse(t *testing.T) {
	device := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	l, err := NewPTYLoopback(device)
	if err != nil {
		t.Fatalf("NewPTYLoopback: %s", err)
	}
	defer l.Close()

	_, ok, err := l.Exchange(proto.Hello{Address: 99})
	if err != nil {
		t.Fatalf("Exchange: %s", err)
	}
	if ok {
		t.Fatalf("expected no response for an unknown address")
	}
}

// TestPTYLoopbackSkipsReadWhenNoReplyExpected asserts that messages the
// protocol never replies to return immediately, rather than blocking for
// replyTimeout waiting on a frame that will never arrive.
func TestPTYLoopbackSkipsReadWhenNoReplyExpected(t *testing.T) {
	device := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	l, err := NewPTYLoopback(device)
	if err != nil {
		t.Fatalf("NewPTYLoopback: %s", err)
	}
	defer l.Close()

	for _, m := range []proto.Message{
		proto.SendData{Offset: 0, Data: []byte{0x00}},
		proto.DataChunksSent{Chunks: 1},
		proto.PixelsComplete{Address: 3},
		proto.Goodbye{Address: 3},
	} {
		start := time.Now()
		_, ok, err := l.Exchange(m)
		if err != nil {
			t.Fatalf("Exchange(%s): %s", m, err)
		}
		if ok {
			t.Fatalf("Exchange(%s): expected no response", m)
		}
		if elapsed := time.Since(start); elapsed >= replyTimeout {
			t.Fatalf("Exchange(%s) took %s, expected it to skip the read entirely (replyTimeout is %s)",
				m, elapsed, replyTimeout)
		}
	}
}
