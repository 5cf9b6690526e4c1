package campaign

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRoadInfluence(t *testing.T) {
	tests := []struct {
		name  string
		board string
		color Color
		row   int
		col   int
		want  float64
	}{
		{"no influence is base 1", ".,./.,.", Red, 0, 0, 1},
		{"building cell is zero", "r,./.,.", Red, 0, 0, 0},
		{"out of bounds is zero", ".,./.,.", Red, 5, 0, 0},
		{"diagonal at distance 2", ".,.,./.,.,./.,.,r", Red, 0, 0, 1.5},
		{"orthogonal at distance 2", ".,.,./.,.,./.,.,r", Red, 2, 0, 2},
		{"orthogonal at distance 1", ".,.,./.,.,./.,.,r", Red, 1, 2, 3},
		{"other color ignored", ".,.,./.,.,./.,.,r", Blue, 1, 2, 1},
		{"two floors both visible", ".,.,rr,./.,.,.,./.,.,.,./.,.,.,.", Red, 0, 0, 5},
		{"shorter building hides lower floor", ".,-,rr,./.,.,.,./.,.,.,./.,.,.,.", Red, 0, 0, 3},
		{"taller building hides everything behind", ".,rrr,r,./.,.,.,./.,.,.,./.,.,.,.", Red, 0, 0, 10},
		{"equal height hides all floors behind", ".,--,rr,./.,.,.,./.,.,.,./.,.,.,.", Red, 0, 0, 1},
		{"occluder of other color still blocks", ".,b,rr,./.,.,.,./.,.,.,./.,.,.,.", Red, 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustDecodeBoard(tt.board)
			if got := RoadInfluence(tt.color, b, tt.row, tt.col); !approxEqual(got, tt.want) {
				t.Errorf("RoadInfluence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoadInfluence_NonNegativeOnGeneratedBoards(t *testing.T) {
	for seed := int64(0); seed < 30; seed++ {
		rng := NewRand(seed)
		b := GenerateBoard(5, 12, rng)
		for r := 0; r < b.Size; r++ {
			for c := 0; c < b.Size; c++ {
				for f := range b.Cells[r][c].Floors {
					b.Cells[r][c].Floors[f].Influence = []Color{None, Red, Blue}[rng.Intn(3)]
				}
			}
		}
		for r := 0; r < b.Size; r++ {
			for c := 0; c < b.Size; c++ {
				for _, color := range AllColors() {
					got := RoadInfluence(color, b, r, c)
					if b.Cells[r][c].IsBuilding() && got != 0 {
						t.Fatalf("seed %d: building (%d,%d) has influence %v", seed, r, c, got)
					}
					if b.Cells[r][c].IsRoad() && got < 1 {
						t.Fatalf("seed %d: road (%d,%d) influence %v below base", seed, r, c, got)
					}
				}
			}
		}
	}
}

func TestTotalInfluence(t *testing.T) {
	b := MustDecodeBoard(".,.,./.,.,./.,.,r")
	// Eight roads at base 1. The red floor reaches (0,0) +0.5, (0,2) +1,
	// (1,1) +1, (1,2) +2, (2,0) +1 and (2,1) +2; (0,1) and (1,0) see nothing.
	want := 8 + 0.5 + 1 + 1 + 2 + 1 + 2.0
	if got := TotalInfluence(Red, b); !approxEqual(got, want) {
		t.Errorf("TotalInfluence(red) = %v, want %v", got, want)
	}
	if got := TotalInfluence(Blue, b); !approxEqual(got, 8) {
		t.Errorf("TotalInfluence(blue) = %v, want 8", got)
	}
}

func TestPercentInfluence(t *testing.T) {
	tests := []struct {
		red, blue float64
		want      float64
	}{
		{0, 0, 0.5},
		{3, 0, 1},
		{0, 3, 0},
		{1, 1, 0.5},
		{3, 1, 0.75},
	}
	for _, tt := range tests {
		if got := PercentInfluence(tt.red, tt.blue); !approxEqual(got, tt.want) {
			t.Errorf("PercentInfluence(%v,%v) = %v, want %v", tt.red, tt.blue, got, tt.want)
		}
	}
}

func TestRoadInfluence_GroundFloorsHiddenFirst(t *testing.T) {
	tests := []struct {
		name  string
		board string
		want  float64
	}{
		// The short building in front hides the ground floor behind it.
		{"hidden ground floor", ".,-,r--/-,-,-/-,-,-", 1},
		{"visible top floor", ".,-,--r/-,-,-/-,-,-", 2},
		{"middle floor above the blocker", ".,-,-r-/-,-,-/-,-,-", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustDecodeBoard(tt.board)
			if got := RoadInfluence(Red, b, 0, 0); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
