package engine

// NewVehicle builds a vehicle of the given length lying along o's axis.
func NewVehicle(o Orientation, position Vector, length int) Vehicle {
	size := Vector{X: length, Y: 1}
	if o.Axis() == AxisVertical {
		size = Vector{X: 1, Y: length}
	}
	return Vehicle{Orientation: o, Position: position, Size: size}
}

// Moved returns the vehicle one cell further along o*d. The result is not
// validated; legality is a board-level question.
func (v Vehicle) Moved(d Direction) Vehicle {
	return Vehicle{
		Orientation: v.Orientation,
		Position:    v.Position.Add(v.Orientation.Vector().Scale(int(d))),
		Size:        v.Size,
	}
}

// Axis returns the axis the vehicle slides along.
func (v Vehicle) Axis() Axis {
	return v.Orientation.Axis()
}

// Length returns the number of cells the vehicle covers along its axis.
func (v Vehicle) Length() int {
	return v.Size.Component(v.Axis())
}

// Cells lists every cell the vehicle occupies, row by row.
func (v Vehicle) Cells() []Vector {
	cells := make([]Vector, 0, v.Size.X*v.Size.Y)
	for y := v.Position.Y; y < v.Position.Y+v.Size.Y; y++ {
		for x := v.Position.X; x < v.Position.X+v.Size.X; x++ {
			cells = append(cells, Vector{X: x, Y: y})
		}
	}
	return cells
}

// Occupies reports whether cell c is covered by the vehicle.
func (v Vehicle) Occupies(c Vector) bool {
	return c.X >= v.Position.X && c.X < v.Position.X+v.Size.X &&
		c.Y >= v.Position.Y && c.Y < v.Position.Y+v.Size.Y
}

// Within reports whether the vehicle's rectangle lies inside [0,size.X)x[0,size.Y).
func (v Vehicle) Within(size Vector) bool {
	if v.Position.X < 0 || v.Position.Y < 0 {
		return false
	}
	return v.Position.X+v.Size.X <= size.X && v.Position.Y+v.Size.Y <= size.Y
}
