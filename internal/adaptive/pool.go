package adaptive

import "github.com/abhisek/quizpath/internal/quiz"

// Pool holds the not-yet-served questions of an attempt, bucketed by
// difficulty. Buckets are consumed FIFO and never refilled.
type Pool struct {
	buckets map[quiz.Difficulty][]quiz.Question
}

// NewPool partitions questions by difficulty, keeping server order within
// each bucket. Questions with an unrecognised difficulty land in MEDIUM.
func NewPool(questions []quiz.Question) *Pool {
	p := &Pool{buckets: make(map[quiz.Difficulty][]quiz.Question, len(quiz.Difficulties))}
	for _, q := range questions {
		d := q.Difficulty
		if !d.Valid() {
			d = quiz.Medium
		}
		p.buckets[d] = append(p.buckets[d], q)
	}
	return p
}

// Pull removes and returns the head of the bucket for d.
func (p *Pool) Pull(d quiz.Difficulty) (quiz.Question, bool) {
	b := p.buckets[d]
	if len(b) == 0 {
		return quiz.Question{}, false
	}
	q := b[0]
	p.buckets[d] = b[1:]
	return q, true
}

// Take removes a specific question wherever it sits.
func (p *Pool) Take(id int64) (quiz.Question, bool) {
	for d, b := range p.buckets {
		for i, q := range b {
			if q.ID != id {
				continue
			}
			rest := make([]quiz.Question, 0, len(b)-1)
			rest = append(rest, b[:i]...)
			rest = append(rest, b[i+1:]...)
			p.buckets[d] = rest
			return q, true
		}
	}
	return quiz.Question{}, false
}

// Len returns the number of questions left at d.
func (p *Pool) Len(d quiz.Difficulty) int { return len(p.buckets[d]) }

// Remaining returns the number of questions left across all buckets.
func (p *Pool) Remaining() int {
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}

// Empty reports whether every bucket is exhausted.
func (p *Pool) Empty() bool { return p.Remaining() == 0 }

// Peek returns the ids left at d in serving order.
func (p *Pool) Peek(d quiz.Difficulty) []int64 {
	b := p.buckets[d]
	ids := make([]int64, len(b))
	for i, q := range b {
		ids[i] = q.ID
	}
	return ids
}
