package compiler

import "strconv"

// parseInt converts a scanned integer lexeme (decimal, 0x hex, or 0b
// binary) to its int64 value. The scanner guarantees lexeme is
// well-formed, so conversion errors here would indicate a scanner bug.
func parseInt(lexeme string) int64 {
	switch {
	case len(lexeme) > 2 && lexeme[0] == '0' && (lexeme[1] == 'x' || lexeme[1] == 'X'):
		v, _ := strconv.ParseInt(lexeme[2:], 16, 64)
		return v
	case len(lexeme) > 2 && lexeme[0] == '0' && (lexeme[1] == 'b' || lexeme[1] == 'B'):
		v, _ := strconv.ParseInt(lexeme[2:], 2, 64)
		return v
	default:
		v, _ := strconv.ParseInt(lexeme, 10, 64)
		return v
	}
}

// parseFloat converts a scanned float lexeme to its float64 value.
func parseFloat(lexeme string) float64 {
	v, _ := strconv.ParseFloat(lexeme, 64)
	return v
}
