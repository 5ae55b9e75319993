package search

// FanInPlanner sizes the lexical retrieval pool. The width scales with the
// requested top_k, never with corpus or gate size, and is hard-capped.
type FanInPlanner struct {
	Multiplier int
	Max        int
}

// LexFanIn returns the number of candidates to pull from lexical retrieval:
// min(max, top_k*multiplier), raised to at least top_k, clamped to the gated
// population. Zero when nothing passed gating.
func (p FanInPlanner) LexFanIn(topK, gateCount int) int {
	if gateCount <= 0 {
		return 0
	}
	if topK < 1 {
		topK = 1
	}

	fanIn := topK * p.Multiplier
	if fanIn > p.Max {
		fanIn = p.Max
	}
	// The cap never cuts below the requested result count.
	if fanIn < topK {
		fanIn = topK
	}
	if fanIn > gateCount {
		fanIn = gateCount
	}
	return fanIn
}
