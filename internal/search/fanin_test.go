package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexFanIn_Default(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 250}

	assert.Equal(t, 50, p.LexFanIn(5, 10000))
}

func TestLexFanIn_HardCap(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 250}

	// A huge gated population never widens the pool beyond the cap.
	assert.Equal(t, 250, p.LexFanIn(100, 50000))
	assert.Equal(t, 250, p.LexFanIn(100, 1000000))
}

func TestLexFanIn_NeverBelowTopK(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 5}

	// Even a cap smaller than top_k cannot cut below the requested results.
	assert.Equal(t, 10, p.LexFanIn(10, 10000))
}

func TestLexFanIn_ClampedToGateCount(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 250}

	assert.Equal(t, 3, p.LexFanIn(5, 3))
	assert.Equal(t, 0, p.LexFanIn(5, 0))
}

func TestLexFanIn_ZeroTopK(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 250}

	// top_k is treated as at least 1.
	assert.Equal(t, 10, p.LexFanIn(0, 10000))
}

func TestLexFanIn_IndependentOfGateSize(t *testing.T) {
	p := FanInPlanner{Multiplier: 10, Max: 250}

	// Growing the gate beyond the fan-in width changes nothing.
	a := p.LexFanIn(5, 1000)
	b := p.LexFanIn(5, 100000)
	assert.Equal(t, a, b)
}
