package campaign

import "testing"

func TestGenerateBoard_Invariants(t *testing.T) {
	tests := []struct {
		size     int
		maxRoads int
	}{
		{2, 3},
		{3, 4},
		{5, 12},
		{5, 0},
		{5, 25},
		{6, 10},
		{8, 30},
	}
	for _, tt := range tests {
		for seed := int64(0); seed < 50; seed++ {
			b := GenerateBoard(tt.size, tt.maxRoads, NewRand(seed))
			if b.HasSquareRoad() {
				t.Fatalf("size=%d maxRoads=%d seed=%d: 2x2 road block remains\n%s", tt.size, tt.maxRoads, seed, b)
			}
			if got := b.RoadCount(); got > tt.maxRoads {
				t.Fatalf("size=%d maxRoads=%d seed=%d: %d roads", tt.size, tt.maxRoads, seed, got)
			}
			for r := 0; r < b.Size; r++ {
				for c := 0; c < b.Size; c++ {
					cell := b.Cells[r][c]
					if cell.IsRoad() {
						continue
					}
					if h := cell.Height(); h < 1 || h > MaxBuildingHeight {
						t.Fatalf("building at (%d,%d) has height %d", r, c, h)
					}
					if cell.BaseCost != BaseCost(tt.size, r, c) {
						t.Fatalf("building at (%d,%d) base cost %d, want %d", r, c, cell.BaseCost, BaseCost(tt.size, r, c))
					}
					if cell.FloorsOwnedBy(None) != cell.Height() {
						t.Fatalf("building at (%d,%d) generated with influence", r, c)
					}
				}
			}
		}
	}
}

func TestGenerateBoard_Deterministic(t *testing.T) {
	a := GenerateBoard(5, 12, NewRand(42))
	b := GenerateBoard(5, 12, NewRand(42))
	if a.String() != b.String() {
		t.Errorf("same seed produced different boards:\n%s\n%s", a, b)
	}
}

func TestBaseCost(t *testing.T) {
	tests := []struct {
		size, r, c int
		want       int
	}{
		{5, 2, 2, 5},
		{5, 0, 0, 1},
		{5, 4, 4, 1},
		{5, 1, 2, 4},
		{5, 0, 4, 1},
		{3, 1, 1, 3},
		{4, 1, 1, 4},
		{4, 3, 3, 0},
	}
	for _, tt := range tests {
		if got := BaseCost(tt.size, tt.r, tt.c); got != tt.want {
			t.Errorf("BaseCost(%d,%d,%d) = %d, want %d", tt.size, tt.r, tt.c, got, tt.want)
		}
	}
}

func TestFloorCost_HigherFloorsCheaper(t *testing.T) {
	cell := NewBuilding(3, 5)
	want := []int{7, 6, 5}
	for i, w := range want {
		if got := cell.FloorCost(i); got != w {
			t.Errorf("floor %d cost = %d, want %d", i, got, w)
		}
	}
}

func TestBoard_ClearInfluence(t *testing.T) {
	b := MustDecodeBoard("rb,./.,-r")
	b.ClearInfluence()
	if got := b.String(); got != "--,./.,--" {
		t.Errorf("after clear: %s", got)
	}
}

func TestBoard_CloneIndependent(t *testing.T) {
	b := MustDecodeBoard("r-,./.,.")
	c := b.Clone()
	c.Cells[0][0].Floors[1].Influence = Blue
	if b.Cells[0][0].Floors[1].Influence != None {
		t.Error("mutating clone changed original floor")
	}
}

func TestBoard_At(t *testing.T) {
	b := NewRoadBoard(3)
	if b.At(-1, 0) != nil || b.At(0, 3) != nil {
		t.Error("out-of-bounds At should return nil")
	}
	if cell := b.At(2, 2); cell == nil || !cell.IsRoad() {
		t.Error("expected road at (2,2)")
	}
}
