// Package proto gives meaning to frame.Frame values: the sign-bus message
// layer and sign configuration/page formats. The bus abstraction that
// exchanges messages with signs lives in package bus.
package proto

import (
	"fmt"

	"github.com/flipdot/signctl/frame"
)

// Address and MsgType are re-exported from frame since every Message
// carries one or the other (or, for SendData/DataChunksSent, repurposes
// the wire address field as an Offset/ChunkCount).
type Address = frame.Address
type MsgType = frame.MsgType

// Offset is the memory offset for data sent via a SendData message.
type Offset uint16

// ChunkCount is the number of chunks sent in SendData messages, reported
// by a following DataChunksSent message.
type ChunkCount uint16

// State is the operating state a sign reports in ReportState, in response
// to Hello or QueryState.
type State int

const (
	Unconfigured State = iota
	ConfigInProgress
	ConfigReceived
	ConfigFailed
	PixelsInProgress
	PixelsReceived
	PixelsFailed
	PageLoaded
	PageLoadInProgress
	PageShown
	PageShowInProgress
	ReadyToReset
	// ShowingPages indicates the sign is flipping through previously sent
	// pages on its own; the controller should not call ShowLoadedPage or
	// LoadNextPage. Not part of the original protocol description; its
	// wire byte (0x09) was chosen from the unused range of the State
	// byte space.
	ShowingPages
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case ConfigInProgress:
		return "ConfigInProgress"
	case ConfigReceived:
		return "ConfigReceived"
	case ConfigFailed:
		return "ConfigFailed"
	case PixelsInProgress:
		return "PixelsInProgress"
	case PixelsReceived:
		return "PixelsReceived"
	case PixelsFailed:
		return "PixelsFailed"
	case PageLoaded:
		return "PageLoaded"
	case PageLoadInProgress:
		return "PageLoadInProgress"
	case PageShown:
		return "PageShown"
	case PageShowInProgress:
		return "PageShowInProgress"
	case ReadyToReset:
		return "ReadyToReset"
	case ShowingPages:
		return "ShowingPages"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Operation is requested of a sign via RequestOperation, triggering an
// action and/or state change.
type Operation int

const (
	ReceiveConfig Operation = iota
	ReceivePixels
	ShowLoadedPage
	LoadNextPage
	StartReset
	FinishReset
)

func (o Operation) String() string {
	switch o {
	case ReceiveConfig:
		return "ReceiveConfig"
	case ReceivePixels:
		return "ReceivePixels"
	case ShowLoadedPage:
		return "ShowLoadedPage"
	case LoadNextPage:
		return "LoadNextPage"
	case StartReset:
		return "StartReset"
	case FinishReset:
		return "FinishReset"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

var stateWire = map[State]byte{
	Unconfigured:       0x0F,
	ConfigInProgress:   0x0D,
	ConfigReceived:     0x07,
	ConfigFailed:       0x0C,
	PixelsInProgress:   0x03,
	PixelsReceived:     0x01,
	PixelsFailed:       0x0B,
	PageLoaded:         0x10,
	PageLoadInProgress: 0x13,
	PageShown:          0x12,
	PageShowInProgress: 0x11,
	ReadyToReset:       0x08,
	ShowingPages:       0x09,
}

var wireState = func() map[byte]State {
	m := make(map[byte]State, len(stateWire))
	for s, b := range stateWire {
		m[b] = s
	}
	return m
}()

var requestOperationWire = map[Operation]byte{
	ReceiveConfig:  0xA1,
	ReceivePixels:  0xA2,
	ShowLoadedPage: 0xA9,
	LoadNextPage:   0xAA,
	StartReset:     0xA6,
	FinishReset:    0xA7,
}

var wireRequestOperation = func() map[byte]Operation {
	m := make(map[byte]Operation, len(requestOperationWire))
	for o, b := range requestOperationWire {
		m[b] = o
	}
	return m
}()

var ackOperationWire = map[Operation]byte{
	ReceiveConfig:  0x95,
	ReceivePixels:  0x91,
	ShowLoadedPage: 0x96,
	LoadNextPage:   0x97,
	StartReset:     0x93,
	FinishReset:    0x94,
}

var wireAckOperation = func() map[byte]Operation {
	m := make(map[byte]Operation, len(ackOperationWire))
	for o, b := range ackOperationWire {
		m[b] = o
	}
	return m
}()

// Message is the high-level sign-bus vocabulary: a closed set of variants
// freely convertible to and from a frame.Frame, with Unknown as an escape
// hatch so every valid frame round-trips even when it matches no known
// shape. Each concrete type below implements Message via the unexported
// messageTag method, mirroring the sum-type idiom used for ast.Node in the
// standard library.
type Message interface {
	messageTag()
	String() string
}

type SendData struct {
	Offset Offset
	Data   frame.Data
}

type DataChunksSent struct{ Chunks ChunkCount }

type Hello struct{ Address Address }

type QueryState struct{ Address Address }

type ReportState struct {
	Address Address
	State   State
}

type RequestOperation struct {
	Address   Address
	Operation Operation
}

type AckOperation struct {
	Address   Address
	Operation Operation
}

type PixelsComplete struct{ Address Address }

type Goodbye struct{ Address Address }

// Unknown wraps a frame that does not correspond to any known message
// shape, so that FromFrame/ToFrame round-trip every valid frame.
type Unknown struct{ Frame frame.Frame }

func (SendData) messageTag()         {}
func (DataChunksSent) messageTag()   {}
func (Hello) messageTag()            {}
func (QueryState) messageTag()       {}
func (ReportState) messageTag()      {}
func (RequestOperation) messageTag() {}
func (AckOperation) messageTag()     {}
func (PixelsComplete) messageTag()   {}
func (Goodbye) messageTag()          {}
func (Unknown) messageTag()          {}

func (m SendData) String() string {
	s := fmt.Sprintf("SendData [Offset %04X] ", m.Offset)
	for _, b := range m.Data {
		s += fmt.Sprintf("%02X ", b)
	}
	return s
}
func (m DataChunksSent) String() string   { return fmt.Sprintf("DataChunksSent [%04X]", m.Chunks) }
func (m Hello) String() string            { return fmt.Sprintf("[Addr %04X] <-- Hello", m.Address) }
func (m QueryState) String() string       { return fmt.Sprintf("[Addr %04X] <-- QueryState", m.Address) }
func (m ReportState) String() string {
	return fmt.Sprintf("[Addr %04X] --> ReportState [%s]", m.Address, m.State)
}
func (m RequestOperation) String() string {
	return fmt.Sprintf("[Addr %04X] <-- RequestOperation [%s]", m.Address, m.Operation)
}
func (m AckOperation) String() string {
	return fmt.Sprintf("[Addr %04X] --> AckOperation [%s]", m.Address, m.Operation)
}
func (m PixelsComplete) String() string { return fmt.Sprintf("[Addr %04X] <-- PixelsComplete", m.Address) }
func (m Goodbye) String() string        { return fmt.Sprintf("[Addr %04X] <-- Goodbye", m.Address) }
func (m Unknown) String() string        { return fmt.Sprintf("Unknown %v", m.Frame) }

// FromFrame interprets a frame as a Message, dispatching on
// (len(data), msg_type, data[0]). Every valid Frame is representable; an
// unrecognized shape becomes Unknown so it can still round-trip.
func FromFrame(f frame.Frame) Message {
	switch len(f.Data) {
	case 0:
		if f.MsgType == 1 {
			return DataChunksSent{Chunks: ChunkCount(f.Address)}
		}
		return Unknown{Frame: f}

	case 1:
		b := f.Data[0]
		switch f.MsgType {
		case 2:
			switch b {
			case 0xFF:
				return Hello{Address: f.Address}
			case 0x00:
				return QueryState{Address: f.Address}
			case 0x55:
				return Goodbye{Address: f.Address}
			}
		case 4:
			if s, ok := wireState[b]; ok {
				return ReportState{Address: f.Address, State: s}
			}
		case 3:
			if o, ok := wireRequestOperation[b]; ok {
				return RequestOperation{Address: f.Address, Operation: o}
			}
		case 5:
			if o, ok := wireAckOperation[b]; ok {
				return AckOperation{Address: f.Address, Operation: o}
			}
		case 6:
			if b == 0x00 {
				return PixelsComplete{Address: f.Address}
			}
		}
		return Unknown{Frame: f}

	default:
		if f.MsgType == 0 {
			return SendData{Offset: Offset(f.Address), Data: f.Data}
		}
		return Unknown{Frame: f}
	}
}

// ToFrame converts a Message to its wire frame. Every Message is
// representable; Unknown returns its wrapped frame unchanged.
func ToFrame(m Message) frame.Frame {
	mustFrame := func(f frame.Frame, err error) frame.Frame {
		if err != nil {
			panic(err) // only a SendData payload over frame.MaxDataLen can fail here
		}
		return f
	}

	switch m := m.(type) {
	case SendData:
		return mustFrame(frame.New(Address(m.Offset), 0, m.Data))
	case DataChunksSent:
		return mustFrame(frame.New(Address(m.Chunks), 1, nil))
	case Hello:
		return mustFrame(frame.New(m.Address, 2, []byte{0xFF}))
	case Goodbye:
		return mustFrame(frame.New(m.Address, 2, []byte{0x55}))
	case QueryState:
		return mustFrame(frame.New(m.Address, 2, []byte{0x00}))
	case ReportState:
		return mustFrame(frame.New(m.Address, 4, []byte{stateWire[m.State]}))
	case RequestOperation:
		return mustFrame(frame.New(m.Address, 3, []byte{requestOperationWire[m.Operation]}))
	case AckOperation:
		return mustFrame(frame.New(m.Address, 5, []byte{ackOperationWire[m.Operation]}))
	case PixelsComplete:
		return mustFrame(frame.New(m.Address, 6, []byte{0x00}))
	case Unknown:
		return m.Frame
	default:
		panic(fmt.Sprintf("proto: unknown Message type %T", m))
	}
}
