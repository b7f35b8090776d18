package model

import "strings"

// ReasonClass labels why an attempt failed.
type ReasonClass string

const (
	ReasonRateLimited  ReasonClass = "rate_limited"
	ReasonNotFound     ReasonClass = "not_found"
	ReasonUnavailable  ReasonClass = "unavailable"
	ReasonNetworkError ReasonClass = "network_error"
	ReasonUnknown      ReasonClass = "unknown"
)

// IsKnownReason reports whether the class is one this program produces.
func IsKnownReason(r ReasonClass) bool {
	switch r {
	case ReasonRateLimited, ReasonNotFound, ReasonUnavailable, ReasonNetworkError, ReasonUnknown:
		return true
	default:
		return false
	}
}

// classificationTable maps case-insensitive substrings of a fetcher error
// message to a reason class. Entries are checked in order; the first match
// wins, so the throttling hints stay ahead of the generic ones.
var classificationTable = []struct {
	hints []string
	class ReasonClass
}{
	{[]string{"403", "forbidden"}, ReasonRateLimited},
	{[]string{"unavailable", "private", "blocked"}, ReasonUnavailable},
	{[]string{"not found", "invalid"}, ReasonNotFound},
	{[]string{
		"timed out",
		"timeout",
		"connection reset",
		"connection refused",
		"network is unreachable",
		"temporary failure in name resolution",
		"no route to host",
	}, ReasonNetworkError},
}

// Classify maps a raw failure message onto a reason class.
func Classify(message string) ReasonClass {
	text := strings.ToLower(message)
	for _, row := range classificationTable {
		for _, h := range row.hints {
			if strings.Contains(text, h) {
				return row.class
			}
		}
	}
	return ReasonUnknown
}
