package product

// ParseWeight returns the integer formed by the leading decimal digits of w,
// ignoring any unit suffix ("450g" -> 450). Strings that do not start with a
// digit yield 0.
func ParseWeight(w string) int64 {
	var n int64
	for i := 0; i < len(w); i++ {
		c := w[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
		if n > 1<<40 {
			return 0 // overflow
		}
	}
	return n
}
