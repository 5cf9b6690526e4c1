package campaign

// CellKind discriminates the two cell variants.
type CellKind string

const (
	RoadCell     CellKind = "road"
	BuildingCell CellKind = "building"
)

// Floor is a single storey of a building. At most one color owns it.
type Floor struct {
	Influence Color `json:"influence"`
}

// Cell is a tagged variant over Road and Building. Floors and BaseCost are
// only meaningful for buildings; Floors is ordered ground floor first.
type Cell struct {
	Kind     CellKind `json:"kind"`
	Floors   []Floor  `json:"floors,omitempty"`
	BaseCost int      `json:"base_cost,omitempty"`
}

// Road returns a road cell.
func Road() Cell {
	return Cell{Kind: RoadCell}
}

// NewBuilding returns a building with height unowned floors.
func NewBuilding(height, baseCost int) Cell {
	return Cell{
		Kind:     BuildingCell,
		Floors:   make([]Floor, height),
		BaseCost: baseCost,
	}
}

// IsRoad reports whether the cell is a road.
func (c Cell) IsRoad() bool {
	return c.Kind == RoadCell
}

// IsBuilding reports whether the cell is a building.
func (c Cell) IsBuilding() bool {
	return c.Kind == BuildingCell
}

// Height returns the number of floors; roads have height 0.
func (c Cell) Height() int {
	if c.Kind != BuildingCell {
		return 0
	}
	return len(c.Floors)
}

// FloorCost returns the advertising price of a floor. Higher floors are
// cheaper: baseCost + height - floorIndex - 1.
func (c Cell) FloorCost(floorIndex int) int {
	return c.BaseCost + c.Height() - floorIndex - 1
}

// FloorsOwnedBy counts the floors carrying the given color.
func (c Cell) FloorsOwnedBy(color Color) int {
	n := 0
	for _, f := range c.Floors {
		if f.Influence == color {
			n++
		}
	}
	return n
}

func (c Cell) clone() Cell {
	if c.Floors != nil {
		floors := make([]Floor, len(c.Floors))
		copy(floors, c.Floors)
		c.Floors = floors
	}
	return c
}
