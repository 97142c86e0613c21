package presence

import "time"

// FormatLastSeen humanizes a last-activity timestamp in the viewer's
// local day boundaries: "Today at 15:04", "Yesterday at 15:04", then
// "2 Jan at 15:04". A zero timestamp (user record never touched by a
// presence write) renders as "recently".
func FormatLastSeen(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "recently"
	}

	local := t.In(now.Location())
	clock := local.Format("15:04")

	switch {
	case sameDay(local, now):
		return "Today at " + clock
	case sameDay(local, now.AddDate(0, 0, -1)):
		return "Yesterday at " + clock
	default:
		return local.Format("2 Jan") + " at " + clock
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
