// Package bus abstracts over the transports and virtual devices that
// exchange proto.Message values: real signs over a physical line, or
// in-memory VirtualSign/VirtualSignBus stand-ins for testing without
// hardware.
package bus

import "github.com/flipdot/signctl/proto"

// Bus delivers a message to whatever is attached to the other end and
// returns its response, if any. Implementations model the RS-485 bus as
// a single synchronous request/response operation; there is no
// independent receive path.
type Bus interface {
	// Exchange sends m and returns the response, if one was produced.
	// ok is false when nothing on the bus responded.
	Exchange(m proto.Message) (resp proto.Message, ok bool, err error)
}
