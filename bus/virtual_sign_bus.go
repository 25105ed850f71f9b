package bus

import (
	"github.com/charmbracelet/log"

	"github.com/flipdot/signctl/proto"
)

// VirtualSignBus offers a message to each of its signs in turn and
// returns the first response produced, simulating a shared bus on which
// only the addressee replies. Signs after the one that replies are not
// offered that message.
type VirtualSignBus struct {
	signs []*VirtualSign
	log   *log.Logger
}

// NewVirtualSignBus returns a VirtualSignBus containing the given signs,
// tried in the given order.
func NewVirtualSignBus(signs ...*VirtualSign) *VirtualSignBus {
	return &VirtualSignBus{signs: signs, log: log.Default().With("component", "virtual-bus")}
}

// Sign returns the sign at the given index, in the order passed to
// NewVirtualSignBus. Useful in tests that need to inspect one sign's state
// directly.
func (b *VirtualSignBus) Sign(index int) *VirtualSign { return b.signs[index] }

// Exchange implements Bus.
func (b *VirtualSignBus) Exchange(m proto.Message) (proto.Message, bool, error) {
	b.log.Debugf("bus message: %s", m)
	for _, s := range b.signs {
		if resp, ok := s.Process(m); ok {
			b.log.Debugf("vsign %04X: %s", s.Address(), resp)
			return resp, true, nil
		}
	}
	return nil, false, nil
}
