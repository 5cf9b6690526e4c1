package campaign

// Color identifies one of the two campaigns. It doubles as the influence
// mark placed on a building floor; None means the floor is unowned.
type Color string

const (
	Red  Color = "red"
	Blue Color = "blue"
	None Color = ""
)

// AllColors returns the two player colors in canonical order.
func AllColors() []Color {
	return []Color{Red, Blue}
}

// Valid reports whether c is a player color (red or blue).
func (c Color) Valid() bool {
	return c == Red || c == Blue
}

// Opponent returns the other player color. None has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Red:
		return Blue
	case Blue:
		return Red
	}
	return None
}
