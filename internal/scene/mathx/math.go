package mathx

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ShadeHSL scales the lightness bits of a 16-bit HSL colour, keeping the
// result inside the visible band.
func ShadeHSL(hsl, lightness int) int {
	l := (hsl & 127) * lightness >> 7
	l = Clamp(l, 2, 126)
	return (hsl & 0xff80) + l
}
