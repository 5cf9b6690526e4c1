package campaign

import "fmt"

// PollSampleSize is the number of simulated voters asked per road cell in a
// non-exact poll.
const PollSampleSize = 40

// PollRegion is an inclusive, axis-aligned rectangle of board coordinates.
type PollRegion struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// WholeBoard returns the region covering a size x size board.
func WholeBoard(size int) PollRegion {
	return PollRegion{StartRow: 0, EndRow: size - 1, StartCol: 0, EndCol: size - 1}
}

// Validate checks 0 <= start <= end < size on both axes.
func (r PollRegion) Validate(size int) error {
	if r.StartRow < 0 || r.StartCol < 0 || r.StartRow > r.EndRow || r.StartCol > r.EndCol ||
		r.EndRow >= size || r.EndCol >= size {
		return fmt.Errorf("%w: rows %d-%d cols %d-%d on %dx%d board",
			ErrInvalidRegion, r.StartRow, r.EndRow, r.StartCol, r.EndCol, size, size)
	}
	return nil
}

// Contains reports whether (row, col) lies inside the region.
func (r PollRegion) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// Poll is a sampled red-vote share over a region.
type Poll struct {
	Region     PollRegion `json:"region"`
	RedPercent float64    `json:"red_percent"`
}

// DummyPoll is the neutral poll substituted for a player who never polled.
func DummyPoll(size int) Poll {
	return Poll{Region: WholeBoard(size), RedPercent: 0.5}
}

// Sampler holds the red percent of every road cell on a board snapshot so
// repeated polls do not recompute line-of-sight.
type Sampler struct {
	size     int
	percents [][]float64
	roads    [][]bool
}

// NewSampler precomputes per-road percentages for b.
func NewSampler(b *Board) *Sampler {
	s := &Sampler{
		size:     b.Size,
		percents: make([][]float64, b.Size),
		roads:    make([][]bool, b.Size),
	}
	for r := 0; r < b.Size; r++ {
		s.percents[r] = make([]float64, b.Size)
		s.roads[r] = make([]bool, b.Size)
		for c := 0; c < b.Size; c++ {
			if !b.Cells[r][c].IsRoad() {
				continue
			}
			s.roads[r][c] = true
			s.percents[r][c] = PercentInfluence(
				RoadInfluence(Red, b, r, c),
				RoadInfluence(Blue, b, r, c),
			)
		}
	}
	return s
}

// Percent returns the red share at (row, col) and whether the cell is a
// road.
func (s *Sampler) Percent(row, col int) (float64, bool) {
	if row < 0 || col < 0 || row >= s.size || col >= s.size || !s.roads[row][col] {
		return 0, false
	}
	return s.percents[row][col], true
}

// RoadsIn counts the road cells inside region.
func (s *Sampler) RoadsIn(region PollRegion) int {
	n := 0
	s.each(region, func(float64) { n++ })
	return n
}

// Sample returns the mean red share across road cells in region. Exact
// polls average the true percentages; otherwise each road contributes the
// empirical fraction of PollSampleSize Bernoulli trials drawn from rng.
// Regions without roads return 0.5. rng may be nil for exact polls.
func (s *Sampler) Sample(region PollRegion, exact bool, rng Rand) float64 {
	sum := 0.0
	n := 0
	s.each(region, func(p float64) {
		if exact {
			sum += p
		} else {
			sum += binomialFraction(p, PollSampleSize, rng)
		}
		n++
	})
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func (s *Sampler) each(region PollRegion, fn func(p float64)) {
	r0, r1 := max(region.StartRow, 0), min(region.EndRow, s.size-1)
	c0, c1 := max(region.StartCol, 0), min(region.EndCol, s.size-1)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if s.roads[r][c] {
				fn(s.percents[r][c])
			}
		}
	}
}

// SampleRegion polls region on b. See Sampler.Sample.
func SampleRegion(b *Board, region PollRegion, exact bool, rng Rand) float64 {
	return NewSampler(b).Sample(region, exact, rng)
}

// ValidatePollRegion rejects out-of-range regions and regions with no road
// cells. Sampling itself never fails; this is for callers that want to
// refuse an uninformative poll up front.
func (b *Board) ValidatePollRegion(region PollRegion) error {
	if err := region.Validate(b.Size); err != nil {
		return err
	}
	if NewSampler(b).RoadsIn(region) == 0 {
		return ErrEmptyPollRegion
	}
	return nil
}

func binomialFraction(p float64, n int, rng Rand) float64 {
	hits := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			hits++
		}
	}
	return float64(hits) / float64(n)
}
