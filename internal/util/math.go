package util

// Integer division rounding toward negative infinity
func FloorDivI32(a int32, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Remainder matching FloorDivI32, always in [0, b) for positive b
func FloorModI32(a int32, b int32) int32 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
