package layout

import (
	"fmt"

	"github.com/iKozay/TrackMyDegree-sub000/parser"
)

// Position is a point in document reading order. Positions are totally
// ordered by page, then vertical offset, then token index; the index breaks
// ties between tokens printed at the same height, so the earlier token wins.
type Position struct {
	Page  int     `json:"page"`
	Y     float64 `json:"y"`
	Index int     `json:"index"`
}

// PositionOf returns the position of a token.
func PositionOf(t parser.Token) Position {
	return Position{Page: t.Page, Y: t.Y0, Index: t.Index}
}

// Compare returns -1, 0 or +1 depending on whether p sorts before, equal to
// or after q.
func (p Position) Compare(q Position) int {
	switch {
	case p.Page != q.Page:
		return cmpInt(p.Page, q.Page)
	case p.Y != q.Y:
		if p.Y < q.Y {
			return -1
		}
		return 1
	default:
		return cmpInt(p.Index, q.Index)
	}
}

// Less reports whether p sorts strictly before q.
func (p Position) Less(q Position) bool { return p.Compare(q) < 0 }

func (p Position) String() string {
	return fmt.Sprintf("p%d@%.1f#%d", p.Page, p.Y, p.Index)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
