package calc

import "sync/atomic"

// Sequencer hands out monotonically increasing request numbers so that a
// response can be dropped when a newer request has been issued since.
type Sequencer struct {
	latest atomic.Uint64
}

// NewSequencer starts counting after last, which lets a persisted counter
// resume.
func NewSequencer(last uint64) *Sequencer {
	s := &Sequencer{}
	s.latest.Store(last)
	return s
}

// Next issues a new sequence number.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Latest reports the most recently issued number.
func (s *Sequencer) Latest() uint64 {
	return s.latest.Load()
}

// IsCurrent reports whether seq is still the newest request.
func (s *Sequencer) IsCurrent(seq uint64) bool {
	return seq != 0 && seq == s.latest.Load()
}
