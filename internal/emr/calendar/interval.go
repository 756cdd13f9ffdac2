package calendar

// Interval is a closed-closed span [Lo, Hi] over dates by default; Lo == Hi
// denotes a single instant ("point"). LoOpen/HiOpen allow a caller to mark
// either endpoint open, matching the record format's optional open bounds.
type Interval struct {
	Lo, Hi         Date
	LoOpen, HiOpen bool
}

// Point builds a zero-length interval at d.
func Point(d Date) Interval {
	return Interval{Lo: d, Hi: d}
}

// IsPoint reports whether the interval denotes a single instant.
func (iv Interval) IsPoint() bool {
	return iv.Lo.Equal(iv.Hi)
}

// Contains reports whether t falls within the interval, honoring the open
// flags.
func (iv Interval) Contains(t Date) bool {
	if iv.LoOpen {
		if !t.After(iv.Lo) {
			return false
		}
	} else if t.Before(iv.Lo) {
		return false
	}
	if iv.HiOpen {
		if !t.Before(iv.Hi) {
			return false
		}
	} else if t.After(iv.Hi) {
		return false
	}
	return true
}

// Intersects reports whether iv and other share at least one instant.
func (iv Interval) Intersects(other Interval) bool {
	lo := Max(iv.Lo, other.Lo)
	hi := Min(iv.Hi, other.Hi)
	if lo.Before(hi) {
		return true
	}
	if !lo.Equal(hi) {
		return false
	}
	// Touching at a single point: only an intersection if neither side
	// excludes that point via an open endpoint.
	loOpen := (lo.Equal(iv.Lo) && iv.LoOpen) || (lo.Equal(other.Lo) && other.LoOpen)
	hiOpen := (hi.Equal(iv.Hi) && iv.HiOpen) || (hi.Equal(other.Hi) && other.HiOpen)
	return !loOpen && !hiOpen
}

// IsSubset reports whether iv is entirely contained within other.
func (iv Interval) IsSubset(other Interval) bool {
	loOK := iv.Lo.After(other.Lo) || (iv.Lo.Equal(other.Lo) && (!other.LoOpen || iv.LoOpen))
	hiOK := iv.Hi.Before(other.Hi) || (iv.Hi.Equal(other.Hi) && (!other.HiOpen || iv.HiOpen))
	return loOK && hiOK
}

// Intersection returns the overlap of iv and other. Callers must first
// check Intersects; Intersection of non-intersecting intervals returns a
// degenerate (Lo after Hi) interval.
func (iv Interval) Intersection(other Interval) Interval {
	lo, loOpen := iv.Lo, iv.LoOpen
	if other.Lo.After(lo) || (other.Lo.Equal(lo) && other.LoOpen) {
		lo, loOpen = other.Lo, other.LoOpen
	}
	hi, hiOpen := iv.Hi, iv.HiOpen
	if other.Hi.Before(hi) || (other.Hi.Equal(hi) && other.HiOpen) {
		hi, hiOpen = other.Hi, other.HiOpen
	}
	return Interval{Lo: lo, Hi: hi, LoOpen: loOpen, HiOpen: hiOpen}
}

// AdjacentWithinGap reports whether iv and other are adjacent within gap
// days: max(a.lo, b.lo) - min(a.hi, b.hi) <= gap. A negative result means
// the intervals overlap.
func (iv Interval) AdjacentWithinGap(other Interval, gap int) bool {
	loMax := Max(iv.Lo, other.Lo)
	hiMin := Min(iv.Hi, other.Hi)
	return loMax.Sub(hiMin) <= gap
}

// Union returns the smallest interval spanning both iv and other. Callers
// are responsible for only unioning intervals that should be merged (see
// the era aggregator).
func (iv Interval) Union(other Interval) Interval {
	lo, loOpen := iv.Lo, iv.LoOpen
	if other.Lo.Before(lo) || (other.Lo.Equal(lo) && !other.LoOpen) {
		lo, loOpen = other.Lo, other.LoOpen
	}
	hi, hiOpen := iv.Hi, iv.HiOpen
	if other.Hi.After(hi) || (other.Hi.Equal(hi) && !other.HiOpen) {
		hi, hiOpen = other.Hi, other.HiOpen
	}
	return Interval{Lo: lo, Hi: hi, LoOpen: loOpen, HiOpen: hiOpen}
}
