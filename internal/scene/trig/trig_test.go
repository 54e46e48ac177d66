package trig

import "testing"

func TestBuildCardinalAngles(t *testing.T) {
	tb := Build()
	near := func(got, want int) bool {
		d := got - want
		if d < 0 {
			d = -d
		}
		return d <= 2
	}
	cases := []struct {
		angle    int
		sin, cos int
	}{
		{0, 0, One},
		{512, One, 0},
		{1024, 0, -One},
		{1536, -One, 0},
	}
	for _, c := range cases {
		if !near(tb.Sin(c.angle), c.sin) || !near(tb.Cos(c.angle), c.cos) {
			t.Fatalf("angle %d: got sin=%d cos=%d", c.angle, tb.Sin(c.angle), tb.Cos(c.angle))
		}
	}
	if tb.Sin(Units+512) != tb.Sin(512) {
		t.Fatalf("expected angles to wrap")
	}
}
