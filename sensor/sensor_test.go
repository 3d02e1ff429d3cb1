package sensor

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/vmath"
)

// fakeQuery returns canned hits and a fixed parent table
type fakeQuery struct {
	hits    []Hit
	parents map[BodyID]BodyID
	calls   int
}

func (f *fakeQuery) QueryForward(origin, dir vmath.Vec3F, radius, maxRange float64, filter Filter) []Hit {
	f.calls++
	return f.hits
}

func (f *fakeQuery) IsChildOf(body, ancestor BodyID) bool {
	for cur := body; cur != 0; cur = f.parents[cur] {
		if cur == ancestor {
			return true
		}
	}
	return false
}

var (
	origin  = vmath.Vec3F{}
	forward = vmath.Vec3F{Z: 1}
)

func TestSensePicksNearest(t *testing.T) {
	q := &fakeQuery{hits: []Hit{
		{Body: 2, Point: vmath.Vec3F{Z: 9}, Distance: 8},
		{Body: 3, Point: vmath.Vec3F{Z: 5}, Distance: 4},
		{Body: 4, Point: vmath.Vec3F{Z: 7}, Distance: 6},
	}}

	r := Sense(q, origin, forward, 1, 12, 0.2, Filter{}, 1)
	if !r.Found {
		t.Fatal("Expected a reading, got none")
	}
	if r.Body != 3 {
		t.Errorf("Expected nearest body 3, got %d", r.Body)
	}
	if math.Abs(r.Gap-3.0) > 1e-9 {
		t.Errorf("Expected gap 3.0, got %f", r.Gap)
	}
	if r.Point != (vmath.Vec3F{Z: 5}) {
		t.Errorf("Expected contact point %v, got %v", vmath.Vec3F{Z: 5}, r.Point)
	}
}

func TestSenseExcludesSelfAndHierarchy(t *testing.T) {
	q := &fakeQuery{
		hits: []Hit{
			{Body: 1, Point: vmath.Vec3F{Z: 1}, Distance: 0},
			{Body: 5, Point: vmath.Vec3F{Z: 2}, Distance: 0.5},
			{Body: 6, Point: vmath.Vec3F{Z: 3}, Distance: 1},
		},
		parents: map[BodyID]BodyID{5: 6, 6: 1},
	}

	// Own body and its descendants are never obstacles
	if r := Sense(q, origin, forward, 1, 12, 0.2, Filter{}, 1); r.Found {
		t.Errorf("Expected no reading, got body %d", r.Body)
	}
}

func TestSenseAlignmentFilter(t *testing.T) {
	tests := []struct {
		name  string
		point vmath.Vec3F
		found bool
	}{
		{"dead ahead", vmath.Vec3F{Z: 5}, true},
		{"graze at 80 degrees", vmath.Vec3F{X: 5, Z: 0.8}, false},
		{"just inside threshold", vmath.Vec3F{X: 4.8, Z: 1.1}, true},
		{"behind", vmath.Vec3F{Z: -2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuery{hits: []Hit{{Body: 9, Point: tt.point, Distance: 3}}}
			r := Sense(q, origin, forward, 1, 12, 0.2, Filter{}, 1)
			if r.Found != tt.found {
				t.Errorf("Expected found=%v, got %v", tt.found, r.Found)
			}
		})
	}
}

func TestSenseGapFloorsAtZero(t *testing.T) {
	q := &fakeQuery{hits: []Hit{{Body: 2, Point: vmath.Vec3F{Z: 0.5}, Distance: 0.4}}}
	r := Sense(q, origin, forward, 1, 12, 0.2, Filter{}, 1)
	if !r.Found {
		t.Fatal("Expected a reading, got none")
	}
	if r.Gap != 0 {
		t.Errorf("Expected gap 0, got %f", r.Gap)
	}
}

func TestSenseDegenerateInputs(t *testing.T) {
	q := &fakeQuery{hits: []Hit{{Body: 2, Point: vmath.Vec3F{Z: 5}, Distance: 4}}}

	if Sense(q, origin, vmath.Vec3F{}, 1, 12, 0.2, Filter{}, 1).Found {
		t.Error("Expected no reading for a zero forward vector")
	}
	if q.calls != 0 {
		t.Errorf("Expected zero forward to skip the cast, got %d calls", q.calls)
	}

	if Sense(nil, origin, forward, 1, 12, 0.2, Filter{}, 1).Found {
		t.Error("Expected no reading without a query")
	}

	// Negative radius is floored, the gap uses the floor
	r := Sense(q, origin, forward, -3, 12, 0.2, Filter{}, 1)
	if !r.Found {
		t.Fatal("Expected a reading with a floored radius, got none")
	}
	if math.Abs(r.Gap-3.99) > 1e-9 {
		t.Errorf("Expected gap 3.99, got %f", r.Gap)
	}
}

func TestSensorFrontGapDebugTrace(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	cfg := DefaultConfig()
	cfg.Debug = true
	q := &fakeQuery{hits: []Hit{{Body: 7, Point: vmath.Vec3F{Z: 6}, Distance: 5}}}
	s := New(cfg, q, log)

	gap, ok := s.FrontGap(origin, forward, 1)
	if !ok {
		t.Fatal("Expected a front gap, got none")
	}
	if math.Abs(gap-4.0) > 1e-9 {
		t.Errorf("Expected gap 4.0, got %f", gap)
	}
	if s.Last().Body != 7 {
		t.Errorf("Expected last body 7, got %d", s.Last().Body)
	}
	if !strings.Contains(buf.String(), `"hit":7`) {
		t.Errorf("Expected debug trace with hit 7, got %q", buf.String())
	}

	q.hits = nil
	if _, ok := s.FrontGap(origin, forward, 1); ok {
		t.Error("Expected no front gap once the hits clear")
	}
	if s.Last().Found {
		t.Error("Expected last reading cleared")
	}
}
