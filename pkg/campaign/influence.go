package campaign

// ray is one of the eight viewing directions from a road cell.
type ray struct {
	dr, dc int
	weight float64
}

// rays lists the orthogonal directions (full weight) then the diagonals
// (half weight).
var rays = [8]ray{
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
	{-1, -1, 0.5}, {-1, 1, 0.5}, {1, -1, 0.5}, {1, 1, 0.5},
}

// RoadInfluence returns the voting weight color holds over the road at
// (row, col). Every road starts at a base of 1; each visible floor owned
// by color adds size-distance along its ray. Buildings and out-of-range
// coordinates yield 0.
func RoadInfluence(color Color, b *Board, row, col int) float64 {
	if !color.Valid() {
		return 0
	}
	cell := b.At(row, col)
	if cell == nil || !cell.IsRoad() {
		return 0
	}
	total := 1.0
	for _, d := range rays {
		total += d.weight * rayInfluence(color, b, row, col, d)
	}
	return total
}

// rayInfluence walks outward along d. lowestVisible tracks how many of the
// lower floors are hidden behind the tallest building passed so far.
// Floors are indexed ground-first, so the visible ones are h-1 down to
// lowestVisible.
func rayInfluence(color Color, b *Board, row, col int, d ray) float64 {
	sum := 0.0
	lowestVisible := 0
	r, c := row+d.dr, col+d.dc
	for distance := 1; b.InBounds(r, c); distance++ {
		cell := &b.Cells[r][c]
		if cell.IsBuilding() {
			h := len(cell.Floors)
			for f := h - 1; f >= lowestVisible; f-- {
				if cell.Floors[f].Influence == color {
					sum += float64(b.Size - distance)
				}
			}
			lowestVisible = max(lowestVisible, h)
		}
		r += d.dr
		c += d.dc
	}
	return sum
}

// TotalInfluence sums RoadInfluence over the whole board.
func TotalInfluence(color Color, b *Board) float64 {
	total := 0.0
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			total += RoadInfluence(color, b, r, c)
		}
	}
	return total
}

// PercentInfluence converts a pair of influence values into red's share.
// With no influence on either side the road is undecided (0.5).
func PercentInfluence(redInfluence, blueInfluence float64) float64 {
	if redInfluence == 0 && blueInfluence == 0 {
		return 0.5
	}
	return redInfluence / (redInfluence + blueInfluence)
}
