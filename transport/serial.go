// Package transport carries proto.Message values over a physical RS-485
// line or an in-process loopback, implementing bus.Bus so a signctl.Sign
// never has to know which.
package transport

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	serial "github.com/daedaluz/goserial"

	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/frame"
	"github.com/flipdot/signctl/proto"
)

// Line settings for the RS-485 transceivers this protocol was designed
// around: 19200 baud, 8 data bits, no parity, one stop bit.
const baudRate = serial.B19200

// Transport-level delays. These belong here, not in the protocol core,
// because they model line settling time rather than anything the message
// format encodes: a short guard after every SendData, and a longer one
// whenever a sign reports that it's mid-operation.
const (
	postSendDataDelay   = 30 * time.Millisecond
	inProgressPollDelay = 100 * time.Millisecond
)

// Serial is a bus.Bus backed by a real RS-485 serial port.
type Serial struct {
	port *serial.Port
	r    *frame.Reader
	log  *log.Logger
}

// OpenSerial opens the named serial device (e.g. "/dev/ttyUSB0"), configures
// it for this protocol's line settings, and enables RS-485 direction
// control if the driver supports it.
func OpenSerial(name string) (*Serial, error) {
	port, err := serial.Open(name, serial.NewOptions().SetReadTimeout(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", name, err)
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: get attrs: %w", err)
	}
	attrs.MakeRaw()
	attrs.SetSpeed(baudRate)
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: set attrs: %w", err)
	}

	if rs485, err := port.GetRS485(); err == nil {
		rs485.Flags |= serial.RS485Enabled
		_ = port.SetRS485(rs485)
	}

	return &Serial{
		port: port,
		r:    frame.NewReader(port),
		log:  log.Default().With("transport", "serial", "device", name),
	}, nil
}

// Close releases the underlying serial port.
func (s *Serial) Close() error { return s.port.Close() }

// Exchange writes m's frame to the line and, if the protocol calls for a
// reply to this message type, waits for it, translating it back to a
// proto.Message. ok is false if no reply was expected, or if the line
// went quiet (read timeout) rather than erroring outright.
func (s *Serial) Exchange(m proto.Message) (proto.Message, bool, error) {
	f := proto.ToFrame(m)
	if err := f.EncodeNewline(writerFunc(s.port.Write)); err != nil {
		return nil, false, fmt.Errorf("transport: write frame: %w", err)
	}

	if _, ok := m.(proto.SendData); ok {
		time.Sleep(postSendDataDelay)
	}

	if !responseExpected(m) {
		return nil, false, nil
	}

	reply, err := s.r.ReadFrame()
	if err != nil {
		s.log.Debugf("no reply: %s", err)
		return nil, false, nil
	}

	resp := proto.FromFrame(reply)
	if rs, ok := resp.(proto.ReportState); ok &&
		(rs.State == proto.PageLoadInProgress || rs.State == proto.PageShowInProgress) {
		time.Sleep(inProgressPollDelay)
	}
	return resp, true, nil
}

// responseExpected reports whether a sign is expected to reply to m. Only
// messages that query a sign's state or request an operation get a reply;
// SendData, DataChunksSent, PixelsComplete, and Goodbye do not.
func responseExpected(m proto.Message) bool {
	switch m.(type) {
	case proto.Hello, proto.QueryState, proto.RequestOperation:
		return true
	default:
		return false
	}
}

// writerFunc adapts a Write method to io.Writer.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

var _ bus.Bus = (*Serial)(nil)
