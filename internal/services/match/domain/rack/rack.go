// Package rack defines the pyramid slot layout and the adjacency table for
// the supported rack sizes. Both are pure lookups: the layout is derived from
// the rack size and the adjacency sets are precomputed once per size.
package rack

// Size is the number of cups in one side's rack. Only the two tournament
// sizes are valid; the constructor at the service boundary rejects anything
// else so the functions in this package never need an error path.
type Size int

const (
	// SizeSix is a 3-2-1 pyramid.
	SizeSix Size = 6
	// SizeTen is a 4-3-2-1 pyramid.
	SizeTen Size = 10
)

// Valid reports whether s is a supported rack size.
func (s Size) Valid() bool {
	return s == SizeSix || s == SizeTen
}

// Position locates one slot inside the pyramid. Row 0 is the widest row at
// the front of the rack; each following row has one fewer slot, ending in a
// single apex cup.
type Position struct {
	Row int
	Col int
}

// Layout returns the ordered slot positions for a rack size. Slot ids are the
// indexes into the returned slice: ids run left to right inside a row, front
// row first. An unsupported size returns nil.
func Layout(size Size) []Position {
	rows, ok := rowWidths(size)
	if !ok {
		return nil
	}
	positions := make([]Position, 0, int(size))
	for row, width := range rows {
		for col := 0; col < width; col++ {
			positions = append(positions, Position{Row: row, Col: col})
		}
	}
	return positions
}

// Touching returns the slot ids edge-adjacent to slotID in the triangular
// packing for the given rack size. Interior cups touch up to six neighbors,
// edge and corner cups two or four. An unknown slot id or unsupported size
// returns an empty set; callers treat "no neighbors" and "invalid id"
// identically.
func Touching(slotID int, size Size) []int {
	table, ok := adjacency[size]
	if !ok {
		return nil
	}
	if slotID < 0 || slotID >= len(table) {
		return nil
	}
	neighbors := make([]int, len(table[slotID]))
	copy(neighbors, table[slotID])
	return neighbors
}

func rowWidths(size Size) ([]int, bool) {
	switch size {
	case SizeSix:
		return []int{3, 2, 1}, true
	case SizeTen:
		return []int{4, 3, 2, 1}, true
	default:
		return nil, false
	}
}

// adjacency holds the precomputed neighbor sets keyed by rack size.
var adjacency = map[Size][][]int{
	SizeSix: buildAdjacency(SizeSix),
	SizeTen: buildAdjacency(SizeTen),
}

// buildAdjacency derives neighbor sets from the layout geometry. A cup in
// row r+1 sits in the gap between columns c and c+1 of row r, so two slots
// touch when they share a row with adjacent columns, or sit in consecutive
// rows with columns offset by zero or one.
func buildAdjacency(size Size) [][]int {
	positions := Layout(size)
	table := make([][]int, len(positions))
	for id, pos := range positions {
		var neighbors []int
		for other, otherPos := range positions {
			if other == id {
				continue
			}
			if touches(pos, otherPos) {
				neighbors = append(neighbors, other)
			}
		}
		table[id] = neighbors
	}
	return table
}

func touches(a, b Position) bool {
	switch b.Row - a.Row {
	case 0:
		return b.Col == a.Col-1 || b.Col == a.Col+1
	case 1:
		return b.Col == a.Col-1 || b.Col == a.Col
	case -1:
		return b.Col == a.Col || b.Col == a.Col+1
	default:
		return false
	}
}
