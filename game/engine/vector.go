package engine

import "fmt"

// Vector is an integer pair used for positions, sizes and unit directions.
type Vector struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the componentwise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v with both components multiplied by k.
func (v Vector) Scale(k int) Vector {
	return Vector{X: v.X * k, Y: v.Y * k}
}

// Component returns the coordinate of v along the given axis.
func (v Vector) Component(axis Axis) int {
	if axis == AxisVertical {
		return v.Y
	}
	return v.X
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}
