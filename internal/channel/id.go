package channel

// DirectID derives the deterministic channel id for a 1:1
// conversation: the two participant ids sorted and joined, so both
// sides address the same log no matter who opens it first.
// DirectID(a, b) == DirectID(b, a).
func DirectID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}
