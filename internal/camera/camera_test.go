package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
)

func f(v float64) *float64 { return &v }

func TestTrackerObserveMergesPartial(t *testing.T) {
	tr := NewTracker(log.Discard())

	full := Update{
		Eye:    Vec(r3.Vec{X: 1.5, Y: -0.25, Z: 0.8}),
		Center: Vec(r3.Vec{}),
		Up:     Vec(r3.Vec{Z: 1}),
	}
	if !tr.Observe(full) {
		t.Fatal("first observation should be stored")
	}

	if !tr.Observe(Update{Eye: Vector{X: f(2.0)}}) {
		t.Fatal("partial change should be stored")
	}

	want := Orientation{
		Eye:    Vector{X: f(2.0), Y: f(-0.25), Z: f(0.8)},
		Center: Vec(r3.Vec{}),
		Up:     Vec(r3.Vec{Z: 1}),
	}
	if diff := cmp.Diff(want, tr.Current()); diff != "" {
		t.Errorf("merged orientation mismatch (-want +got):\n%s", diff)
	}
	if tr.Version() != 2 {
		t.Errorf("expected version 2, got %d", tr.Version())
	}
}

func TestTrackerObserveUnchanged(t *testing.T) {
	tr := NewTracker(log.Discard())
	tr.Observe(Update{Eye: Vec(r3.Vec{X: 1, Y: 1, Z: 1})})

	if tr.Observe(Update{Eye: Vector{Y: f(1)}}) {
		t.Error("identical component should not count as a change")
	}
	if tr.Observe(Update{}) {
		t.Error("empty update should not count as a change")
	}
	if tr.Version() != 1 {
		t.Errorf("expected version 1, got %d", tr.Version())
	}
}

func TestCurrentIsACopy(t *testing.T) {
	tr := NewTracker(log.Discard())
	tr.Observe(Update{Eye: Vec(r3.Vec{X: 1, Y: 2, Z: 3})})

	c := tr.Current()
	*c.Eye.X = 99
	if *tr.Current().Eye.X != 1 {
		t.Error("mutating Current leaked into the tracker")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	eye := r3.Vec{X: 0.1 + 0.2, Y: math.Pi, Z: -1e-300}
	o := Orientation{Eye: Vec(eye), Projection: "orthographic"}

	v, err := o.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *v.Eye != eye {
		t.Errorf("eye not reproduced bit for bit: %v vs %v", *v.Eye, eye)
	}
	if v.Center != nil || v.Up != nil {
		t.Error("unset vectors should resolve to nil")
	}
}

func TestResolveMalformed(t *testing.T) {
	tests := []struct {
		name string
		o    Orientation
	}{
		{"partial eye", Orientation{Eye: Vector{X: f(1)}}},
		{"nan up", Orientation{Up: Vector{X: f(0), Y: f(math.NaN()), Z: f(1)}}},
		{"bad projection", Orientation{Projection: "fisheye"}},
	}
	for _, tt := range tests {
		if _, err := tt.o.Resolve(); !errors.Is(err, neuro.ErrMalformedCamera) {
			t.Errorf("%s: expected ErrMalformedCamera, got %v", tt.name, err)
		}
	}

	if v, err := (Orientation{}).Resolve(); v != nil || err != nil {
		t.Errorf("empty orientation should resolve to nil, nil; got %v, %v", v, err)
	}
}

func TestFromRelayoutFlat(t *testing.T) {
	upd, ok := FromRelayout(map[string]any{
		"scene.camera.eye.x":           1.25,
		"scene.camera.eye.y":           -0.5,
		"scene.camera.projection.type": "orthographic",
		"xaxis.range[0]":               3,
	})
	if !ok {
		t.Fatal("expected camera data")
	}
	want := Update{Eye: Vector{X: f(1.25), Y: f(-0.5)}, Projection: "orthographic"}
	if diff := cmp.Diff(want, upd); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRelayoutNested(t *testing.T) {
	upd, ok := FromRelayout(map[string]any{
		"scene.camera": map[string]any{
			"eye":    map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
			"up":     map[string]any{"x": 0, "y": 0, "z": 1},
			"extra":  true,
			"center": "bogus",
		},
	})
	if !ok {
		t.Fatal("expected camera data")
	}
	want := Update{Eye: Vec(r3.Vec{X: 1, Y: 2, Z: 3}), Up: Vec(r3.Vec{Z: 1})}
	if diff := cmp.Diff(want, upd); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRelayoutNoCamera(t *testing.T) {
	if _, ok := FromRelayout(map[string]any{"scene.aspectratio.x": 1}); ok {
		t.Error("non-camera scene keys should be ignored")
	}
	if _, ok := FromRelayout(nil); ok {
		t.Error("nil payload should carry no camera")
	}
}

func TestOrbitPreservesDistance(t *testing.T) {
	v := &View{Eye: &r3.Vec{X: 2, Y: 0, Z: 0}, Center: &r3.Vec{}, Up: &r3.Vec{Z: 1}}
	upd := Orbit(v, math.Pi/2, 0, 1)
	got, err := upd.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r3.Norm(*got.Eye)-2) > 1e-9 {
		t.Errorf("orbit changed the eye distance: %v", *got.Eye)
	}
	if math.Abs(got.Eye.Y-2) > 1e-9 {
		t.Errorf("expected quarter turn onto +y, got %v", *got.Eye)
	}

	zoomed, _ := Orbit(v, 0, 0, 0.5).Resolve()
	if math.Abs(zoomed.Eye.X-1) > 1e-9 {
		t.Errorf("expected zoom to halve the distance, got %v", *zoomed.Eye)
	}
}
