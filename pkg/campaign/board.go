package campaign

import "fmt"

// MaxBuildingHeight is the tallest building the generator produces.
const MaxBuildingHeight = 3

// Board is a square, row-major grid of cells.
type Board struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

// NewRoadBoard returns a size x size board made entirely of roads.
func NewRoadBoard(size int) *Board {
	cells := make([][]Cell, size)
	for r := range cells {
		cells[r] = make([]Cell, size)
		for c := range cells[r] {
			cells[r][c] = Road()
		}
	}
	return &Board{Size: size, Cells: cells}
}

// GenerateBoard builds a board with no 2x2 block of roads and at most
// maxRoadsAllowed road cells. Every conversion removes one road, so the
// process always terminates.
func GenerateBoard(size, maxRoadsAllowed int, rng Rand) *Board {
	b := NewRoadBoard(size)
	roads := size * size

	for {
		squares := b.squareRoads()
		if len(squares) == 0 {
			break
		}
		sq := squares[rng.Intn(len(squares))]
		corner := rng.Intn(4)
		r, c := sq.row+corner/2, sq.col+corner%2
		b.Cells[r][c] = randomBuilding(size, r, c, rng)
		roads--
	}

	for roads > maxRoadsAllowed && roads > 0 {
		pick := rng.Intn(roads)
		r, c := b.nthRoad(pick)
		b.Cells[r][c] = randomBuilding(size, r, c, rng)
		roads--
	}

	return b
}

type coord struct {
	row, col int
}

// squareRoads returns the top-left corner of every 2x2 all-road block.
func (b *Board) squareRoads() []coord {
	var out []coord
	for r := 0; r+1 < b.Size; r++ {
		for c := 0; c+1 < b.Size; c++ {
			if b.Cells[r][c].IsRoad() && b.Cells[r][c+1].IsRoad() &&
				b.Cells[r+1][c].IsRoad() && b.Cells[r+1][c+1].IsRoad() {
				out = append(out, coord{r, c})
			}
		}
	}
	return out
}

// nthRoad returns the coordinates of the n-th road cell in row-major order.
func (b *Board) nthRoad(n int) (int, int) {
	for r := range b.Cells {
		for c := range b.Cells[r] {
			if !b.Cells[r][c].IsRoad() {
				continue
			}
			if n == 0 {
				return r, c
			}
			n--
		}
	}
	panic(fmt.Sprintf("campaign: road index out of range (%d remaining)", n))
}

func randomBuilding(size, r, c int, rng Rand) Cell {
	return NewBuilding(1+rng.Intn(MaxBuildingHeight), BaseCost(size, r, c))
}

// BaseCost is the price basis of a building at (r, c). It falls off with
// Manhattan distance from the board center so central buildings cost most.
func BaseCost(size, r, c int) int {
	center := (size - 1) / 2
	return size - (abs(center-r) + abs(center-c))
}

// HasSquareRoad reports whether any 2x2 block is entirely road.
func (b *Board) HasSquareRoad() bool {
	return len(b.squareRoads()) > 0
}

// InBounds reports whether (r, c) lies on the board.
func (b *Board) InBounds(r, c int) bool {
	return r >= 0 && r < b.Size && c >= 0 && c < b.Size
}

// At returns the cell at (r, c), or nil when out of bounds.
func (b *Board) At(r, c int) *Cell {
	if !b.InBounds(r, c) {
		return nil
	}
	return &b.Cells[r][c]
}

// RoadCount returns the number of road cells.
func (b *Board) RoadCount() int {
	n := 0
	for r := range b.Cells {
		for c := range b.Cells[r] {
			if b.Cells[r][c].IsRoad() {
				n++
			}
		}
	}
	return n
}

// ClearInfluence removes every floor mark from the board.
func (b *Board) ClearInfluence() {
	for r := range b.Cells {
		for c := range b.Cells[r] {
			for f := range b.Cells[r][c].Floors {
				b.Cells[r][c].Floors[f].Influence = None
			}
		}
	}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{Size: b.Size, Cells: make([][]Cell, len(b.Cells))}
	for r := range b.Cells {
		out.Cells[r] = make([]Cell, len(b.Cells[r]))
		for c := range b.Cells[r] {
			out.Cells[r][c] = b.Cells[r][c].clone()
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
