package adaptive

// Streak counts consecutive identical outcomes. At most one counter is
// non-zero at any time.
type Streak struct {
	Correct int
	Wrong   int
}

// Record counts an outcome and clears the opposite run.
func (s *Streak) Record(correct bool) {
	if correct {
		s.Correct++
		s.Wrong = 0
		return
	}
	s.Wrong++
	s.Correct = 0
}

// Reset clears both counters. Called whenever difficulty changes.
func (s *Streak) Reset() {
	s.Correct = 0
	s.Wrong = 0
}
