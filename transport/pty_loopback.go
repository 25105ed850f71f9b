package transport

import (
	"os"
	"syscall"
	"time"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"

	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/frame"
	"github.com/flipdot/signctl/proto"
)

// replyTimeout bounds how long Exchange waits for the device loop to
// answer before reporting no response, mirroring a real sign simply
// staying silent on the line.
const replyTimeout = 200 * time.Millisecond

// PTYLoopback exercises the real frame encoding over a pseudo-terminal
// pair, with an in-process bus.Bus (typically a bus.VirtualSignBus)
// standing in for the hardware on the other end. Useful for testing
// transport-level framing and timing without a physical line.
type PTYLoopback struct {
	master *os.File
	slave  *os.File
	r      *frame.Reader
	log    *log.Logger
}

// NewPTYLoopback opens a pty pair and starts a device loop on the slave
// side that answers every frame by running it through device.
func NewPTYLoopback(device bus.Bus) (*PTYLoopback, error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, err
	}

	l := &PTYLoopback{
		master: ptmx,
		slave:  pts,
		r:      frame.NewReader(ptmx),
		log:    log.Default().With("transport", "pty-loopback"),
	}
	// Raw mode: frames are not echoed to the master; CR/LF pass unchanged.
	var t syscall.Termios
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, pts.Fd(), syscall.TCGETS, uintptr(unsafe.Pointer(&t)))
	if errno == 0 {
		t.Iflag &^= syscall.ICRNL | syscall.INLCR | syscall.IGNCR | syscall.IXON
		t.Oflag &^= syscall.OPOST
		t.Lflag &^= syscall.ECHO | syscall.ECHONL | syscall.ICANON | syscall.ISIG | syscall.IEXTEN
		_, _, errno = syscall.Syscall(syscall.SYS_IOCTL, pts.Fd(), syscall.TCSETS, uintptr(unsafe.Pointer(&t)))
	}
	if errno != 0 {
		l.Close()
		return nil, errno
	}
	go l.serve(device)
	return l, nil
}

// Close releases both ends of the pty pair.
func (l *PTYLoopback) Close() error {
	l.slave.Close()
	return l.master.Close()
}

// Exchange sends m over the pty as a real encoded frame and, if the
// protocol calls for a reply to this message type, decodes whatever the
// device loop writes back.
func (l *PTYLoopback) Exchange(m proto.Message) (proto.Message, bool, error) {
	f := proto.ToFrame(m)
	if err := f.EncodeNewline(l.master); err != nil {
		return nil, false, err
	}
	if !responseExpected(m) {
		return nil, false, nil
	}
	l.master.SetReadDeadline(time.Now().Add(replyTimeout))
	reply, err := l.r.ReadFrame()
	if err != nil {
		return nil, false, nil
	}
	return proto.FromFrame(reply), true, nil
}

// serve reads frames from the slave side, dispatches each to device, and
// writes back any response, until the pty is closed.
func (l *PTYLoopback) serve(device bus.Bus) {
	r := frame.NewReader(l.slave)
	for {
		f, err := r.ReadFrame()
		if err != nil {
			l.log.Debugf("device loop stopped: %s", err)
			return
		}
		resp, ok, err := device.Exchange(proto.FromFrame(f))
		if err != nil {
			l.log.Errorf("device exchange failed: %s", err)
			continue
		}
		if !ok {
			continue
		}
		if err := proto.ToFrame(resp).EncodeNewline(l.slave); err != nil {
			l.log.Errorf("device write failed: %s", err)
		}
	}
}

var _ bus.Bus = (*PTYLoopback)(nil)
