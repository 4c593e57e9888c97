package engine

// ExitPath returns the cells between the main vehicle's leading edge and the
// exit edge, nearest first.
func ExitPath(b Board) []Vector {
	if len(b.Vehicles) == 0 {
		return nil
	}
	main := b.Main()
	axis := main.Axis()
	step := Horizontal.Vector()
	if axis == AxisVertical {
		step = Vertical.Vector()
	}
	step = step.Scale(int(b.ExitDirection))

	var edge Vector
	if b.ExitDirection == Negative {
		edge = main.Position
	} else if axis == AxisVertical {
		edge = Vector{X: main.Position.X, Y: main.Position.Y + main.Size.Y - 1}
	} else {
		edge = Vector{X: main.Position.X + main.Size.X - 1, Y: main.Position.Y}
	}

	h := b.Heuristic()
	if h < 0 {
		return nil
	}
	cells := make([]Vector, 0, h)
	for i := 0; i < h; i++ {
		edge = edge.Add(step)
		cells = append(cells, edge)
	}
	return cells
}

// Blockers returns the indices of vehicles sitting on the main vehicle's
// exit path, nearest first, without duplicates.
func Blockers(b Board) []int {
	seen := make(map[int]bool)
	var blockers []int
	for _, cell := range ExitPath(b) {
		if i := b.VehicleAt(cell); i > 0 && !seen[i] {
			seen[i] = true
			blockers = append(blockers, i)
		}
	}
	return blockers
}

// Label returns the display letter for vehicle i: 'A' for the main vehicle,
// then 'B', 'C', ... in index order.
func Label(i int) string {
	if i < 0 || i >= MaxVehicles {
		return "?"
	}
	return string(rune('A' + i))
}

// LegalMoves lists every single-cell move available from b.
func LegalMoves(b Board) []MoveOption {
	succs := b.Successors()
	options := make([]MoveOption, 0, len(succs))
	for _, s := range succs {
		options = append(options, MoveOption{
			Vehicle:   s.Move.Vehicle,
			Label:     Label(s.Move.Vehicle),
			Direction: s.Move.Direction,
			Way:       string(b.Way(s.Move)),
		})
	}
	return options
}

// GridRows renders b as one string per row using vehicle labels and '.' for
// empty cells.
func GridRows(b Board) []string {
	if b.Size.X <= 0 || b.Size.Y <= 0 {
		return nil
	}
	cells := make([][]byte, b.Size.Y)
	for y := range cells {
		row := make([]byte, b.Size.X)
		for x := range row {
			row[x] = '.'
		}
		cells[y] = row
	}
	for i, v := range b.Vehicles {
		label := Label(i)[0]
		for _, c := range v.Cells() {
			if c.X >= 0 && c.X < b.Size.X && c.Y >= 0 && c.Y < b.Size.Y {
				cells[c.Y][c.X] = label
			}
		}
	}
	rows := make([]string, len(cells))
	for y, row := range cells {
		rows[y] = string(row)
	}
	return rows
}
