package potd

// DefaultQuote is used when quote generation fails.
const DefaultQuote = "Keep pushing! You’re closer than you think. 💪"

// DefaultHints is the static hint set used when hint generation fails.
var DefaultHints = []string{
	"Try to break the problem down into smaller pieces.",
	"Think about the data structures that might be useful here.",
	"Work through a small example by hand before writing code.",
}

// FallbackHints returns the first n default hints. n is clamped to the
// size of the default set.
func FallbackHints(n int) []string {
	if n <= 0 || n > len(DefaultHints) {
		n = len(DefaultHints)
	}
	out := make([]string, n)
	copy(out, DefaultHints[:n])
	return out
}
