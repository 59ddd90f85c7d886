package events

import (
	"fmt"
	"sync"
)

// Sequencer hands out per-partition sequence numbers for one producer
// instance. Sequences start at 1 and reset when the process restarts; the
// producer id in the envelope tells restarted instances apart.
type Sequencer struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[string]int64)}
}

func (s *Sequencer) Next(partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[partitionKey]++
	return s.last[partitionKey], nil
}
