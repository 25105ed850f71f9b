package bus

import (
	"sync"

	"github.com/flipdot/signctl/proto"
)

// serialized wraps a Bus with a mutex so that concurrent controllers
// sharing one underlying bus (transport or virtual) never interleave an
// Exchange call with another's.
type serialized struct {
	mu   sync.Mutex
	next Bus
}

// Serialize returns a Bus equivalent to next but safe to share between
// goroutines, serializing every Exchange call.
func Serialize(next Bus) Bus {
	return &serialized{next: next}
}

func (s *serialized) Exchange(m proto.Message) (proto.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Exchange(m)
}
