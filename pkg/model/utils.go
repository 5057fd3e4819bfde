package model

import (
	"strings"
)

// shortIDLength is the number of characters kept by ShortID.
const shortIDLength = 8

// ShortID returns the abbreviated form of a node or job ID used when
// rendering tables.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func equal(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return strings.EqualFold(a, b)
}
