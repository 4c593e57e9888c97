package engine

import (
	"encoding/json"
	"testing"
)

func TestValidationConstants(t *testing.T) {
	tests := []struct {
		name     string
		actual   int
		expected int
	}{
		{"MinBoardSize", MinBoardSize, 1},
		{"MaxBoardSize", MaxBoardSize, 16},
		{"MaxVehicles", MaxVehicles, 26},
		{"MaxBulkMoves", MaxBulkMoves, 200},
	}

	for _, test := range tests {
		if test.actual != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.actual)
		}
	}
}

func TestVectorArithmetic(t *testing.T) {
	a := Vector{X: 2, Y: -3}
	b := Vector{X: -1, Y: 5}

	if got := a.Add(b); got != (Vector{X: 1, Y: 2}) {
		t.Errorf("Add: expected (1,2), got %s", got)
	}
	if got := a.Scale(-2); got != (Vector{X: -4, Y: 6}) {
		t.Errorf("Scale: expected (-4,6), got %s", got)
	}
	if got := a.Scale(0); got != (Vector{}) {
		t.Errorf("Scale by zero: expected (0,0), got %s", got)
	}
	if a.Component(AxisHorizontal) != 2 || a.Component(AxisVertical) != -3 {
		t.Errorf("Component: got %d,%d", a.Component(AxisHorizontal), a.Component(AxisVertical))
	}
	if a.String() != "(2,-3)" {
		t.Errorf("String: expected (2,-3), got %s", a.String())
	}
}

func TestOrientationVectors(t *testing.T) {
	tests := []struct {
		o    Orientation
		vec  Vector
		axis Axis
	}{
		{Up, Vector{X: 0, Y: -1}, AxisVertical},
		{Down, Vector{X: 0, Y: 1}, AxisVertical},
		{Left, Vector{X: -1, Y: 0}, AxisHorizontal},
		{Right, Vector{X: 1, Y: 0}, AxisHorizontal},
	}

	for _, test := range tests {
		if got := test.o.Vector(); got != test.vec {
			t.Errorf("%s: expected vector %s, got %s", test.o, test.vec, got)
		}
		if got := test.o.Axis(); got != test.axis {
			t.Errorf("%s: expected axis %s, got %s", test.o, test.axis, got)
		}
		if !test.o.Valid() {
			t.Errorf("%s should be valid", test.o)
		}
	}

	if Horizontal != Right || Vertical != Down {
		t.Error("axis tokens should share the vectors of right and down")
	}
	if Orientation("diagonal").Valid() {
		t.Error("unknown orientation should not be valid")
	}
}

func TestOrientationTimes(t *testing.T) {
	tests := []struct {
		o        Orientation
		d        Direction
		expected Orientation
	}{
		{Horizontal, Positive, Right},
		{Horizontal, Negative, Left},
		{Vertical, Positive, Down},
		{Vertical, Negative, Up},
		{Left, Positive, Left},
		{Left, Negative, Right},
		{Up, Negative, Down},
	}

	for _, test := range tests {
		if got := test.o.Times(test.d); got != test.expected {
			t.Errorf("%s * %s: expected %s, got %s", test.o, test.d, test.expected, got)
		}
		if got := test.o.Times(test.d).Vector(); got != test.o.Vector().Scale(int(test.d)) {
			t.Errorf("%s * %s: resolved vector %s does not match scaled vector", test.o, test.d, got)
		}
	}
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		input    string
		expected Orientation
		wantErr  bool
	}{
		{"up", Up, false},
		{"DOWN", Down, false},
		{" left ", Left, false},
		{"right", Right, false},
		{"horizontal", Right, false},
		{"h", Right, false},
		{"vertical", Down, false},
		{"V", Down, false},
		{"sideways", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		got, err := ParseOrientation(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseOrientation(%q): unexpected error state %v", test.input, err)
			continue
		}
		if got != test.expected {
			t.Errorf("ParseOrientation(%q): expected %s, got %s", test.input, test.expected, got)
		}
	}
}

func TestDirection(t *testing.T) {
	if Positive.Opposite() != Negative || Negative.Opposite() != Positive {
		t.Error("Opposite should flip the sign")
	}

	for _, input := range []string{"positive", "pos", "+", "1", "+1"} {
		if d, err := ParseDirection(input); err != nil || d != Positive {
			t.Errorf("ParseDirection(%q): expected positive, got %v (%v)", input, d, err)
		}
	}
	for _, input := range []string{"negative", "NEG", "-", "-1"} {
		if d, err := ParseDirection(input); err != nil || d != Negative {
			t.Errorf("ParseDirection(%q): expected negative, got %v (%v)", input, d, err)
		}
	}
	if _, err := ParseDirection("forward"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestMoveJSONMarshaling(t *testing.T) {
	move := Move{Vehicle: 3, Direction: Negative}

	data, err := json.Marshal(move)
	if err != nil {
		t.Fatalf("Failed to marshal move: %v", err)
	}
	if string(data) != `{"vehicle":3,"direction":"negative"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded Move
	if err := json.Unmarshal([]byte(`{"vehicle":1,"direction":"+"}`), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal move: %v", err)
	}
	if decoded.Vehicle != 1 || decoded.Direction != Positive {
		t.Errorf("unexpected move: %+v", decoded)
	}

	if err := json.Unmarshal([]byte(`{"vehicle":1,"direction":"sideways"}`), &decoded); err == nil {
		t.Error("expected error for invalid direction")
	}
}
