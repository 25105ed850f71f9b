package bus

import "github.com/flipdot/signctl/proto"

// ScriptedBus replays a fixed sequence of responses regardless of what
// message it's given, recording every message it receives. Used to drive
// the Sign controller through exact response sequences — including
// malformed or out-of-protocol ones — that a VirtualSign would never
// produce on its own, such as controller retry-on-failure paths.
type ScriptedBus struct {
	Responses []ScriptedResponse
	Received  []proto.Message

	pos int
}

// ScriptedResponse is one canned reply in a ScriptedBus's script.
type ScriptedResponse struct {
	Message proto.Message // ignored if Ok is false
	Ok      bool
	Err     error
}

// Exchange implements Bus, returning the next scripted response in order.
// Once the script is exhausted, every further call returns (nil, false, nil).
func (b *ScriptedBus) Exchange(m proto.Message) (proto.Message, bool, error) {
	b.Received = append(b.Received, m)
	if b.pos >= len(b.Responses) {
		return nil, false, nil
	}
	r := b.Responses[b.pos]
	b.pos++
	return r.Message, r.Ok, r.Err
}
