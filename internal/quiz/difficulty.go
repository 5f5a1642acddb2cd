package quiz

import (
	"fmt"
	"strings"
)

// Difficulty is the bucket a question belongs to.
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// Difficulties lists every level from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty maps a wire value to a Difficulty. Matching is case-insensitive.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case Easy:
		return Easy, nil
	case Medium:
		return Medium, nil
	case Hard:
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Harder returns the next level up. HARD stays HARD.
func (d Difficulty) Harder() Difficulty {
	switch d {
	case Easy:
		return Medium
	case Medium:
		return Hard
	}
	return Hard
}

// Easier returns the next level down. EASY stays EASY.
func (d Difficulty) Easier() Difficulty {
	switch d {
	case Hard:
		return Medium
	case Medium:
		return Easy
	}
	return Easy
}

func (d Difficulty) String() string { return string(d) }
