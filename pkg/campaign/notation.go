package campaign

import (
	"fmt"
	"strings"
)

// Board notation: rows separated by '/', cells by ','. A road is '.', a
// building is its floors bottom first, each '-' (unowned), 'r' or 'b'.
//
//	".,--r,./-,.,b/.,.,."
//
// Base costs are not encoded; DecodeBoard derives them from position.

var influenceToChar = map[Color]byte{
	None: '-',
	Red:  'r',
	Blue: 'b',
}

var charToInfluence = map[byte]Color{
	'-': None,
	'r': Red,
	'b': Blue,
}

// EncodeBoard serializes b in board notation.
func EncodeBoard(b *Board) string {
	var sb strings.Builder
	sb.Grow(b.Size * b.Size * 3)
	for r := 0; r < b.Size; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < b.Size; c++ {
			if c > 0 {
				sb.WriteByte(',')
			}
			cell := &b.Cells[r][c]
			if cell.IsRoad() {
				sb.WriteByte('.')
				continue
			}
			for _, f := range cell.Floors {
				sb.WriteByte(influenceToChar[f.Influence])
			}
		}
	}
	return sb.String()
}

// String returns the board notation of b.
func (b *Board) String() string {
	return EncodeBoard(b)
}

// DecodeBoard parses board notation. The grid must be square.
func DecodeBoard(s string) (*Board, error) {
	rows := strings.Split(s, "/")
	size := len(rows)
	b := &Board{Size: size, Cells: make([][]Cell, size)}
	for r, row := range rows {
		tokens := strings.Split(row, ",")
		if len(tokens) != size {
			return nil, fmt.Errorf("board notation: row %d has %d cells, want %d", r, len(tokens), size)
		}
		b.Cells[r] = make([]Cell, size)
		for c, tok := range tokens {
			cell, err := parseCell(tok, size, r, c)
			if err != nil {
				return nil, fmt.Errorf("board notation: cell (%d,%d): %w", r, c, err)
			}
			b.Cells[r][c] = cell
		}
	}
	return b, nil
}

func parseCell(tok string, size, r, c int) (Cell, error) {
	if tok == "." {
		return Road(), nil
	}
	if tok == "" {
		return Cell{}, fmt.Errorf("empty cell")
	}
	cell := NewBuilding(len(tok), BaseCost(size, r, c))
	for i := 0; i < len(tok); i++ {
		color, ok := charToInfluence[tok[i]]
		if !ok {
			return Cell{}, fmt.Errorf("unknown floor mark %q", tok[i])
		}
		cell.Floors[i].Influence = color
	}
	return cell, nil
}

// MustDecodeBoard is DecodeBoard for fixtures; it panics on error.
func MustDecodeBoard(s string) *Board {
	b, err := DecodeBoard(s)
	if err != nil {
		panic(err)
	}
	return b
}
