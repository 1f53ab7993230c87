package job

import "sync"

// outcome is a job's single terminal result.
type outcome struct {
	bytes []byte
	err   error
}

// settlement is the single-assignment guard resolving the race between the
// timeout callback and the message handler: only the first settle has
// effect, the loser is a no-op. A settled job never transitions again.
type settlement struct {
	once sync.Once
	ch   chan outcome
}

func newSettlement() *settlement {
	return &settlement{ch: make(chan outcome, 1)}
}

// settle records the terminal outcome and reports whether this call won.
func (s *settlement) settle(bytes []byte, err error) bool {
	won := false
	s.once.Do(func() {
		won = true
		s.ch <- outcome{bytes: bytes, err: err}
	})
	return won
}

// wait blocks until the job settles.
func (s *settlement) wait() outcome {
	return <-s.ch
}
