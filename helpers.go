package savgo

import "bytes"

// trimSpacesRight removes the trailing space padding SAV uses for
// fixed-width byte fields, returning the raw (not yet decoded) bytes.
func trimSpacesRight(b []byte) []byte {
	return bytes.TrimRight(b, " ")
}

// trimPadding removes trailing spaces and NUL bytes, covering both padding
// conventions used across SAV's fixed and info-record text fields.
func trimPadding(b []byte) []byte {
	return bytes.TrimRight(b, " \x00")
}

// padTo4 returns the number of padding bytes needed to round n up to the
// next multiple of 4.
func padTo4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// padTo8 returns the number of padding bytes needed to round n up to the
// next multiple of 8.
func padTo8(n int) int {
	if r := n % 8; r != 0 {
		return 8 - r
	}
	return 0
}
