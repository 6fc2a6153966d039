// Package observability aggregates relay telemetry for periodic reporting.
package observability

import (
	"sync/atomic"
)

// RelayStats counts what the relay has done since startup.
// All counters are atomic so the hot path never takes a lock.
type RelayStats struct {
	MessagesRouted    uint64
	MessagesDelivered uint64
	MessagesSeen      uint64
	BacklogFlushed    uint64
	TypingRelayed     uint64
	TypingDropped     uint64
	NotificationMiss  uint64
}

func NewRelayStats() *RelayStats {
	return &RelayStats{}
}

func (s *RelayStats) IncrRouted()           { atomic.AddUint64(&s.MessagesRouted, 1) }
func (s *RelayStats) IncrDelivered()        { atomic.AddUint64(&s.MessagesDelivered, 1) }
func (s *RelayStats) IncrSeen()             { atomic.AddUint64(&s.MessagesSeen, 1) }
func (s *RelayStats) IncrFlushed()          { atomic.AddUint64(&s.BacklogFlushed, 1) }
func (s *RelayStats) IncrTypingRelayed()    { atomic.AddUint64(&s.TypingRelayed, 1) }
func (s *RelayStats) IncrTypingDropped()    { atomic.AddUint64(&s.TypingDropped, 1) }
func (s *RelayStats) IncrNotificationMiss() { atomic.AddUint64(&s.NotificationMiss, 1) }

// Snapshot returns a consistent-enough copy for logging.
type Snapshot struct {
	MessagesRouted    uint64
	MessagesDelivered uint64
	MessagesSeen      uint64
	BacklogFlushed    uint64
	TypingRelayed     uint64
	TypingDropped     uint64
	NotificationMiss  uint64
}

func (s *RelayStats) GetLatest() Snapshot {
	return Snapshot{
		MessagesRouted:    atomic.LoadUint64(&s.MessagesRouted),
		MessagesDelivered: atomic.LoadUint64(&s.MessagesDelivered),
		MessagesSeen:      atomic.LoadUint64(&s.MessagesSeen),
		BacklogFlushed:    atomic.LoadUint64(&s.BacklogFlushed),
		TypingRelayed:     atomic.LoadUint64(&s.TypingRelayed),
		TypingDropped:     atomic.LoadUint64(&s.TypingDropped),
		NotificationMiss:  atomic.LoadUint64(&s.NotificationMiss),
	}
}
