package campaign

import "testing"

func TestBoardNotation_RoundTrip(t *testing.T) {
	inputs := []string{
		".",
		".,--r/b,.",
		".,-,./r,.,bb-/.,---,.",
	}
	for _, in := range inputs {
		b, err := DecodeBoard(in)
		if err != nil {
			t.Fatalf("DecodeBoard(%q): %v", in, err)
		}
		if got := EncodeBoard(b); got != in {
			t.Errorf("round trip %q -> %q", in, got)
		}
	}
}

func TestDecodeBoard_DerivesBaseCost(t *testing.T) {
	b := MustDecodeBoard(".,.,./.,--,./.,.,.")
	cell := b.Cells[1][1]
	if !cell.IsBuilding() || cell.Height() != 2 {
		t.Fatalf("expected 2-storey building, got %+v", cell)
	}
	if cell.BaseCost != 3 {
		t.Errorf("base cost = %d, want 3", cell.BaseCost)
	}
}

func TestDecodeBoard_Errors(t *testing.T) {
	tests := []string{
		".,./.",
		".,x/.,.",
		".,/.,.",
	}
	for _, in := range tests {
		if _, err := DecodeBoard(in); err == nil {
			t.Errorf("DecodeBoard(%q) should fail", in)
		}
	}
}

func TestEncodeBoard_Generated(t *testing.T) {
	b := GenerateBoard(5, 12, NewRand(7))
	back := MustDecodeBoard(EncodeBoard(b))
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if back.Cells[r][c].Kind != b.Cells[r][c].Kind ||
				back.Cells[r][c].Height() != b.Cells[r][c].Height() ||
				back.Cells[r][c].BaseCost != b.Cells[r][c].BaseCost {
				t.Fatalf("cell (%d,%d) differs after notation round trip", r, c)
			}
		}
	}
}
