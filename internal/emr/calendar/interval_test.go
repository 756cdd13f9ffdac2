package calendar

import "testing"

func d(y, m, dd int) Date { return Date{Year: y, Month: m, Day: dd} }

func TestInterval_Contains(t *testing.T) {
	iv := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 2, 1)}
	if !iv.Contains(d(2013, 1, 1)) || !iv.Contains(d(2013, 2, 1)) {
		t.Error("expected closed endpoints to be contained")
	}
	if iv.Contains(d(2012, 12, 31)) || iv.Contains(d(2013, 2, 2)) {
		t.Error("expected out-of-range dates to be excluded")
	}
}

func TestInterval_Point(t *testing.T) {
	p := Point(d(2013, 1, 1))
	if !p.IsPoint() {
		t.Error("expected Point to be a point")
	}
}

func TestInterval_AdjacentWithinGap(t *testing.T) {
	a := Interval{Lo: d(2013, 1, 12), Hi: d(2013, 2, 11)}
	b := Interval{Lo: d(2013, 3, 11), Hi: d(2013, 10, 7)}
	// Gap is 28 days (2013-02-11 to 2013-03-11).
	if !a.AdjacentWithinGap(b, 28) {
		t.Error("expected adjacency within 28-day gap")
	}
	if a.AdjacentWithinGap(b, 27) {
		t.Error("expected no adjacency within 27-day gap")
	}
}

func TestInterval_Intersects(t *testing.T) {
	a := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 2, 1)}
	b := Interval{Lo: d(2013, 1, 15), Hi: d(2013, 3, 1)}
	if !a.Intersects(b) {
		t.Error("expected overlap")
	}
	c := Interval{Lo: d(2013, 3, 2), Hi: d(2013, 4, 1)}
	if a.Intersects(c) {
		t.Error("expected no overlap")
	}
}

func TestInterval_Intersection(t *testing.T) {
	a := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 3, 1)}
	b := Interval{Lo: d(2013, 2, 1), Hi: d(2013, 4, 1)}
	got := a.Intersection(b)
	want := Interval{Lo: d(2013, 2, 1), Hi: d(2013, 3, 1)}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInterval_IsSubset(t *testing.T) {
	outer := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 12, 31)}
	inner := Interval{Lo: d(2013, 2, 1), Hi: d(2013, 3, 1)}
	if !inner.IsSubset(outer) {
		t.Error("expected inner to be a subset of outer")
	}
	if outer.IsSubset(inner) {
		t.Error("expected outer not to be a subset of inner")
	}
}

func TestInterval_Union(t *testing.T) {
	a := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 2, 1)}
	b := Interval{Lo: d(2013, 1, 15), Hi: d(2013, 3, 1)}
	got := a.Union(b)
	want := Interval{Lo: d(2013, 1, 1), Hi: d(2013, 3, 1)}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
