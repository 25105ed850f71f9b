// Package signctl drives a single sign on a bus.Bus: configuring it,
// sending pages of pixel data, and flipping between them.
package signctl

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/proto"
)

// dataSendAttempts bounds how many times in total Sign attempts a data-send
// operation (config or pixels); it retries after the sign reports the
// matching failure state, in case the data was corrupted in transit.
const dataSendAttempts = 3

// UnexpectedResponse signals that a sign did not reply the way the
// protocol requires. Recommended recovery is to re-Configure the sign.
type UnexpectedResponse struct {
	Expected string
	Actual   string
}

func (e *UnexpectedResponse) Error() string {
	return fmt.Sprintf("signctl: sign did not respond as expected: expected %s, got %s", e.Expected, e.Actual)
}

// BusError wraps a failure from the underlying bus.Bus.
type BusError struct {
	Err error
}

func (e *BusError) Error() string { return fmt.Sprintf("signctl: bus exchange failed: %s", e.Err) }
func (e *BusError) Unwrap() error { return e.Err }

// Sign represents a single sign at a fixed address and type on an
// associated bus. The signs that this protocol targets have no display
// logic of their own; every operation is remotely driven.
type Sign struct {
	address  proto.Address
	signType proto.SignType
	bus      bus.Bus
	log      *log.Logger
}

// New returns a Sign that will control the device at address on b,
// assuming it to be of the given type.
func New(b bus.Bus, address proto.Address, signType proto.SignType) *Sign {
	return &Sign{
		address:  address,
		signType: signType,
		bus:      b,
		log:      log.Default().With("sign", address),
	}
}

// Address returns the sign's address.
func (s *Sign) Address() proto.Address { return s.address }

// SignType returns the sign's configured type.
func (s *Sign) SignType() proto.SignType { return s.signType }

// Width returns the width in pixels of the sign's display area.
func (s *Sign) Width() uint32 { w, _ := s.signType.Dimensions(); return w }

// Height returns the height in pixels of the sign's display area.
func (s *Sign) Height() uint32 { _, h := s.signType.Dimensions(); return h }

// CreatePage returns a blank page with the given ID, matching the sign's
// dimensions.
func (s *Sign) CreatePage(id proto.PageID) proto.Page {
	w, h := s.signType.Dimensions()
	return proto.NewPage(id, w, h)
}

// Configure opens communications with the sign and sends its
// configuration block. Must be called before any other operation. If the
// sign was already configured, it is reset first and its page memory is
// cleared.
func (s *Sign) Configure() error {
	if err := s.ensureUnconfigured(); err != nil {
		return err
	}
	return s.sendData([][]byte{s.signType.ConfigBytes()}, proto.ReceiveConfig, proto.ConfigReceived, proto.ConfigFailed)
}

// SendPages sends one or more pages of pixel data, replacing any pages
// previously sent. Can be called any time after Configure. On return, the
// first page is loaded and ready to show (PageFlipManual), or the sign has
// already begun showing the pages itself (PageFlipAutomatic).
func (s *Sign) SendPages(pages ...proto.Page) (proto.PageFlipStyle, error) {
	chunks := make([][]byte, len(pages))
	for i, p := range pages {
		chunks[i] = p.Bytes()
	}
	if err := s.sendData(chunks, proto.ReceivePixels, proto.PixelsReceived, proto.PixelsFailed); err != nil {
		return proto.PageFlipManual, err
	}

	if _, err := s.exchangeExpect(proto.PixelsComplete{Address: s.address}, nil); err != nil {
		return proto.PageFlipManual, err
	}

	resp, err := s.exchange(proto.QueryState{Address: s.address})
	if err != nil {
		return proto.PageFlipManual, err
	}
	if rs, ok := resp.(proto.ReportState); ok && rs.Address == s.address && rs.State == proto.ShowingPages {
		return proto.PageFlipAutomatic, nil
	}
	return proto.PageFlipManual, nil
}

// LoadNextPage loads the next stored page into memory, once the currently
// loaded one has been shown. Has no effect if SendPages reported
// PageFlipAutomatic.
func (s *Sign) LoadNextPage() error {
	return s.switchPage(proto.PageLoaded, proto.PageShown, proto.LoadNextPage)
}

// ShowLoadedPage shows the currently loaded page. Has no effect if
// SendPages reported PageFlipAutomatic.
func (s *Sign) ShowLoadedPage() error {
	return s.switchPage(proto.PageShown, proto.PageLoaded, proto.ShowLoadedPage)
}

// ShutDown blanks the display and shuts the sign down. The sign will be
// unusable for 30 seconds afterward. Generally optional, since removing
// switched power has the same effect.
func (s *Sign) ShutDown() error {
	_, err := s.exchangeExpect(proto.Goodbye{Address: s.address}, nil)
	return err
}

// exchange sends m over the bus, logging the round trip, and wraps any
// transport failure as *BusError.
func (s *Sign) exchange(m proto.Message) (proto.Message, error) {
	s.log.Debugf("--> %s", m)
	resp, ok, err := s.bus.Exchange(m)
	if err != nil {
		return nil, &BusError{Err: err}
	}
	if !ok {
		s.log.Debug("<-- (no response)")
		return nil, nil
	}
	s.log.Debugf("<-- %s", resp)
	return resp, nil
}

// exchangeExpect sends m and fails with *UnexpectedResponse unless the
// reply matches want exactly (nil means no reply expected).
func (s *Sign) exchangeExpect(m proto.Message, want proto.Message) (proto.Message, error) {
	resp, err := s.exchange(m)
	if err != nil {
		return nil, err
	}
	if !messagesEqual(resp, want) {
		return nil, &UnexpectedResponse{Expected: describeMessage(want), Actual: describeMessage(resp)}
	}
	return resp, nil
}

// ensureUnconfigured drives the sign to the Unconfigured state, via a
// reset if necessary, before configuration begins.
func (s *Sign) ensureUnconfigured() error {
	resp, err := s.exchange(proto.Hello{Address: s.address})
	if err != nil {
		return err
	}

	switch rs, ok := resp.(proto.ReportState); {
	case ok && rs.Address == s.address && rs.State == proto.Unconfigured:
		return nil

	case ok && rs.Address == s.address && rs.State == proto.ReadyToReset:
		if _, err := s.exchangeExpect(
			proto.RequestOperation{Address: s.address, Operation: proto.FinishReset},
			proto.AckOperation{Address: s.address, Operation: proto.FinishReset},
		); err != nil {
			return err
		}
		_, err := s.exchangeExpect(
			proto.Hello{Address: s.address},
			proto.ReportState{Address: s.address, State: proto.Unconfigured},
		)
		return err

	default:
		if _, err := s.exchangeExpect(
			proto.RequestOperation{Address: s.address, Operation: proto.StartReset},
			proto.AckOperation{Address: s.address, Operation: proto.StartReset},
		); err != nil {
			return err
		}
		if _, err := s.exchangeExpect(
			proto.Hello{Address: s.address},
			proto.ReportState{Address: s.address, State: proto.ReadyToReset},
		); err != nil {
			return err
		}
		if _, err := s.exchangeExpect(
			proto.RequestOperation{Address: s.address, Operation: proto.FinishReset},
			proto.AckOperation{Address: s.address, Operation: proto.FinishReset},
		); err != nil {
			return err
		}
		_, err := s.exchangeExpect(
			proto.Hello{Address: s.address},
			proto.ReportState{Address: s.address, State: proto.Unconfigured},
		)
		return err
	}
}

// sendData requests operation, sends each item in 16-byte chunks, and
// verifies the sign reports success. On failure it retries the whole
// operation, making at most dataSendAttempts attempts in total, in case
// the data was corrupted in transit; any other reported state fails
// immediately.
func (s *Sign) sendData(items [][]byte, operation proto.Operation, success, failure proto.State) error {
	for attempt := 1; ; attempt++ {
		if _, err := s.exchangeExpect(
			proto.RequestOperation{Address: s.address, Operation: operation},
			proto.AckOperation{Address: s.address, Operation: operation},
		); err != nil {
			return err
		}

		var chunksSent uint16
		for _, item := range items {
			for i := 0; i*16 < len(item) || (i == 0 && len(item) == 0); i++ {
				lo, hi := i*16, i*16+16
				if hi > len(item) {
					hi = len(item)
				}
				if _, err := s.exchangeExpect(
					proto.SendData{Offset: proto.Offset(i * 16), Data: item[lo:hi]},
					nil,
				); err != nil {
					return err
				}
				chunksSent++
				if hi == len(item) {
					break
				}
			}
		}

		if _, err := s.exchangeExpect(proto.DataChunksSent{Chunks: proto.ChunkCount(chunksSent)}, nil); err != nil {
			return err
		}

		resp, err := s.exchange(proto.QueryState{Address: s.address})
		if err != nil {
			return err
		}
		if rs, ok := resp.(proto.ReportState); ok && rs.Address == s.address && rs.State == failure && attempt < dataSendAttempts {
			s.log.Warnf("data send failed (attempt %d/%d), retrying", attempt, dataSendAttempts)
			continue
		}

		want := proto.ReportState{Address: s.address, State: success}
		if !messagesEqual(resp, want) {
			return &UnexpectedResponse{Expected: describeMessage(want), Actual: describeMessage(resp)}
		}
		return nil
	}
}

// switchPage polls the sign's state until it reaches target, issuing
// operation when it observes trigger. Signs that flip their own pages
// report ShowingPages instead, in which case this is a no-op.
func (s *Sign) switchPage(target, trigger proto.State, operation proto.Operation) error {
	for {
		resp, err := s.exchange(proto.QueryState{Address: s.address})
		if err != nil {
			return err
		}
		rs, ok := resp.(proto.ReportState)
		switch {
		case ok && rs.Address == s.address && rs.State == proto.ShowingPages:
			s.log.Warn("sign flips its own pages automatically; ShowLoadedPage/LoadNextPage have no effect")
			return nil

		case ok && rs.Address == s.address && rs.State == target:
			return nil

		case ok && rs.Address == s.address && rs.State == trigger:
			if _, err := s.exchangeExpect(
				proto.RequestOperation{Address: s.address, Operation: operation},
				proto.AckOperation{Address: s.address, Operation: operation},
			); err != nil {
				return err
			}

		case ok && rs.Address == s.address && (rs.State == proto.PageLoadInProgress || rs.State == proto.PageShowInProgress):
			// still in flight; poll again

		default:
			return &UnexpectedResponse{
				Expected: fmt.Sprintf("ReportState{%04X, Page*}", s.address),
				Actual:   describeMessage(resp),
			}
		}
	}
}

func messagesEqual(a, b proto.Message) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

func describeMessage(m proto.Message) string {
	if m == nil {
		return "(no response)"
	}
	return m.String()
}
