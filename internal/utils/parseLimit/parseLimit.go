package utils

import "strconv"

// ParseLimit returns the positive integer in s, or 0 when s is empty or not
// a positive number.
func ParseLimit(s string) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 {
		return 0
	}

	return limit
}

func ParsePage(s string) int {
	return ParseLimit(s)
}
