package deform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/snowfield/pkg/math"
)

func stampAt(x float32) Stamp {
	return Stamp{Position: math.Vec3{X: x}, Strength: 0.1, Radius: 1}
}

func positions(stamps []Stamp) []float32 {
	out := make([]float32, len(stamps))
	for i, s := range stamps {
		out[i] = s.Position.X
	}
	return out
}

func TestQueue_DrainIsFIFO(t *testing.T) {
	q := NewQueue(8, DropOldest)
	for i := 0; i < 5; i++ {
		q.Push(stampAt(float32(i)))
	}
	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}

	got := positions(q.Drain())
	if diff := cmp.Diff([]float32{0, 1, 2, 3, 4}, got); diff != "" {
		t.Errorf("drain order mismatch (-want +got):\n%s", diff)
	}
	if q.Len() != 0 || q.Drain() != nil {
		t.Error("queue should be empty after Drain")
	}
}

func TestQueue_DropOldest(t *testing.T) {
	q := NewQueue(3, DropOldest)
	evicted := 0
	for i := 0; i < 5; i++ {
		if q.Push(stampAt(float32(i))) {
			evicted++
		}
	}

	if evicted != 2 || q.Dropped() != 2 {
		t.Errorf("evicted = %d, Dropped = %d, want 2", evicted, q.Dropped())
	}
	if diff := cmp.Diff([]float32{2, 3, 4}, positions(q.Drain())); diff != "" {
		t.Errorf("drain mismatch (-want +got):\n%s", diff)
	}

	// Reuse after drain keeps FIFO order.
	q.Push(stampAt(7))
	q.Push(stampAt(8))
	if diff := cmp.Diff([]float32{7, 8}, positions(q.Drain())); diff != "" {
		t.Errorf("second drain mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_Unbounded(t *testing.T) {
	q := NewQueue(0, DropOldest)
	for i := 0; i < 10000; i++ {
		if q.Push(stampAt(float32(i))) {
			t.Fatal("unbounded queue evicted a stamp")
		}
	}
	if q.Len() != 10000 {
		t.Errorf("Len = %d, want 10000", q.Len())
	}
	got := q.Drain()
	if got[0].Position.X != 0 || got[9999].Position.X != 9999 {
		t.Error("unbounded drain lost order")
	}
}

func TestParseOverflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OverflowPolicy
		wantErr bool
	}{
		{"", DropOldest, false},
		{"drop_oldest", DropOldest, false},
		{"unbounded", Unbounded, false},
		{"coalesce", DropOldest, true},
	}

	for _, tt := range tests {
		got, err := ParseOverflowPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOverflowPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOverflowPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStampValidate(t *testing.T) {
	nan := float32(0)
	nan = nan / nan

	tests := []struct {
		name  string
		stamp Stamp
		ok    bool
	}{
		{"valid", Stamp{Strength: 0.5, Radius: 1, RimWidth: 0.1, RimStrength: 0.2}, true},
		{"zero radius", Stamp{Strength: 0.5}, false},
		{"negative rim", Stamp{Strength: 0.5, Radius: 1, RimWidth: -1}, false},
		{"nan strength", Stamp{Strength: nan, Radius: 1}, false},
		{"nan position", Stamp{Position: math.Vec3{X: nan}, Radius: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stamp.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
