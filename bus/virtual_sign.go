package bus

import (
	"github.com/charmbracelet/log"

	"github.com/flipdot/signctl/proto"
)

// VirtualSign is a mock implementation of a single sign, simulating the
// real protocol well enough to drive a Sign controller without hardware.
// It is not a bit-exact model of any particular firmware; it is sufficient
// to exercise the controller's configure/send-pages/show/reset logic.
type VirtualSign struct {
	address      proto.Address
	state        proto.State
	pages        []proto.Page
	pendingData  []byte
	dataChunks   uint16
	width        uint32
	height       uint32
	signType     proto.SignType
	hasSignType  bool
	log          *log.Logger
}

// NewVirtualSign returns a VirtualSign at the given address, initially
// Unconfigured.
func NewVirtualSign(address proto.Address) *VirtualSign {
	return &VirtualSign{
		address: address,
		state:   proto.Unconfigured,
		log:     log.Default().With("vsign", address),
	}
}

// Address returns the sign's address.
func (s *VirtualSign) Address() proto.Address { return s.address }

// State returns the sign's current state.
func (s *VirtualSign) State() proto.State { return s.state }

// SignType returns the sign's configured type, or false if it has not
// been configured, or was configured with an unrecognized config block.
func (s *VirtualSign) SignType() (proto.SignType, bool) { return s.signType, s.hasSignType }

// Pages returns the sign's currently loaded pages. May be empty.
func (s *VirtualSign) Pages() []proto.Page { return s.pages }

// Process handles a single bus message addressed to this sign, updating
// its state and returning a response if the protocol calls for one.
func (s *VirtualSign) Process(m proto.Message) (proto.Message, bool) {
	switch m := m.(type) {
	case proto.Hello:
		if m.Address == s.address {
			return s.queryState()
		}
	case proto.QueryState:
		if m.Address == s.address {
			return s.queryState()
		}
	case proto.RequestOperation:
		if m.Address != s.address {
			break
		}
		switch m.Operation {
		case proto.ReceiveConfig:
			return s.receiveConfig()
		case proto.ReceivePixels:
			return s.receivePixels()
		case proto.ShowLoadedPage:
			return s.showLoadedPage()
		case proto.LoadNextPage:
			return s.loadNextPage()
		case proto.StartReset:
			return s.startReset()
		case proto.FinishReset:
			return s.finishReset()
		}
	case proto.SendData:
		return s.sendData(m.Offset, m.Data)
	case proto.DataChunksSent:
		return s.dataChunksSent(m.Chunks)
	case proto.PixelsComplete:
		if m.Address == s.address {
			return s.pixelsComplete()
		}
	case proto.Goodbye:
		if m.Address == s.address {
			return s.goodbye()
		}
	}
	return nil, false
}

func (s *VirtualSign) queryState() (proto.Message, bool) {
	state := s.state
	switch state {
	case proto.PageLoadInProgress:
		s.state = proto.PageLoaded
	case proto.PageShowInProgress:
		s.state = proto.PageShown
	}
	return proto.ReportState{Address: s.address, State: state}, true
}

func (s *VirtualSign) receiveConfig() (proto.Message, bool) {
	switch s.state {
	case proto.Unconfigured, proto.ConfigFailed:
		s.state = proto.ConfigInProgress
		return proto.AckOperation{Address: s.address, Operation: proto.ReceiveConfig}, true
	default:
		return nil, false
	}
}

func (s *VirtualSign) sendData(offset proto.Offset, data []byte) (proto.Message, bool) {
	switch {
	case s.state == proto.ConfigInProgress && offset == 0 && len(data) == 16:
		kind, width, height, ok := describeConfig(data)
		if !ok {
			s.log.Warnf("ignoring configuration block of unknown family: % X", data)
			break
		}
		s.log.Infof("configuration: %dx%d %s sign", width, height, kind)

		st, err := proto.SignTypeFromBytes(data)
		if err == nil {
			s.signType, s.hasSignType = st, true
			s.log.Infof("matches known type: %s", st)
		} else {
			s.hasSignType = false
			s.log.Warnf("unrecognized configuration block: % X", data)
		}

		s.width, s.height = uint32(width), uint32(height)
		s.dataChunks++

	case s.state == proto.PixelsInProgress:
		if offset == 0 {
			s.flushPixels()
		}
		s.pendingData = append(s.pendingData, data...)
		s.dataChunks++
	}
	return nil, false
}

// describeConfig extracts the family name and dimensions directly from the
// configuration bytes, independent of whether they match a known SignType
// — mirroring firmware that derives its own geometry from the block
// rather than looking it up in a fixed table.
func describeConfig(data []byte) (kind string, width, height byte, ok bool) {
	switch data[0] {
	case 0x04:
		var w int
		for _, b := range data[5:9] {
			w += int(b)
		}
		return "Max3000", byte(w), data[4], true
	case 0x08:
		return "Horizon", data[7], data[5], true
	default:
		return "", 0, 0, false
	}
}

func (s *VirtualSign) dataChunksSent(chunks proto.ChunkCount) (proto.Message, bool) {
	if proto.ChunkCount(s.dataChunks) == chunks {
		switch s.state {
		case proto.ConfigInProgress:
			s.state = proto.ConfigReceived
		case proto.PixelsInProgress:
			s.state = proto.PixelsReceived
		}
	} else {
		switch s.state {
		case proto.ConfigInProgress:
			s.state = proto.ConfigFailed
		case proto.PixelsInProgress:
			s.state = proto.PixelsFailed
		}
	}
	s.flushPixels()
	s.dataChunks = 0
	return nil, false
}

func (s *VirtualSign) receivePixels() (proto.Message, bool) {
	switch s.state {
	case proto.ConfigReceived, proto.PixelsFailed, proto.PageLoaded,
		proto.PageLoadInProgress, proto.PageShown, proto.PageShowInProgress:
		s.state = proto.PixelsInProgress
		s.pages = nil
		return proto.AckOperation{Address: s.address, Operation: proto.ReceivePixels}, true
	default:
		return nil, false
	}
}

func (s *VirtualSign) pixelsComplete() (proto.Message, bool) {
	if s.state == proto.PixelsReceived {
		s.state = proto.PageLoaded
		for _, page := range s.pages {
			s.log.Infof("page %d (%dx%d)\n%s", page.ID(), page.Width(), page.Height(), page)
		}
	}
	return nil, false
}

func (s *VirtualSign) showLoadedPage() (proto.Message, bool) {
	if s.state == proto.PageLoaded {
		s.state = proto.PageShowInProgress
		return proto.AckOperation{Address: s.address, Operation: proto.ShowLoadedPage}, true
	}
	return nil, false
}

func (s *VirtualSign) loadNextPage() (proto.Message, bool) {
	if s.state == proto.PageShown {
		s.state = proto.PageLoadInProgress
		return proto.AckOperation{Address: s.address, Operation: proto.LoadNextPage}, true
	}
	return nil, false
}

func (s *VirtualSign) startReset() (proto.Message, bool) {
	s.state = proto.ReadyToReset
	return proto.AckOperation{Address: s.address, Operation: proto.StartReset}, true
}

func (s *VirtualSign) finishReset() (proto.Message, bool) {
	if s.state == proto.ReadyToReset {
		s.reset()
		return proto.AckOperation{Address: s.address, Operation: proto.FinishReset}, true
	}
	return nil, false
}

func (s *VirtualSign) goodbye() (proto.Message, bool) {
	s.reset()
	return nil, false
}

// flushPixels turns any buffered pixel bytes into a Page and appends it.
func (s *VirtualSign) flushPixels() {
	if len(s.pendingData) == 0 {
		return
	}
	data := s.pendingData
	s.pendingData = nil
	if s.width > 0 && s.height > 0 {
		page, err := proto.PageFromBytes(s.width, s.height, data)
		if err != nil {
			s.log.Errorf("discarding malformed page: %s", err)
			return
		}
		s.pages = append(s.pages, page)
	}
}

func (s *VirtualSign) reset() {
	s.state = proto.Unconfigured
	s.pages = nil
	s.pendingData = nil
	s.dataChunks = 0
	s.width, s.height = 0, 0
	s.hasSignType = false
}
