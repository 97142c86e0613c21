package model

import (
	"sort"

	"github.com/Deepakk2104/Zync/internal/store"
)

// TypingStatus is the per-channel ephemeral typing document: one
// boolean per participant, last writer wins per field. Each
// participant only ever writes their own key, so there is no merge
// logic across keys. There is no expiry: a stale true persists until
// the owner's next input event or send.
type TypingStatus map[string]bool

func TypingFromDoc(d store.Doc) TypingStatus {
	t := TypingStatus{}
	for k := range d {
		t[k] = docBool(d, k)
	}
	return t
}

// ActiveTypers lists every participant currently typing, excluding
// the viewer's own entry, in stable order.
func (t TypingStatus) ActiveTypers(selfID string) []string {
	var out []string
	for id, typing := range t {
		if typing && id != selfID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (t TypingStatus) PeerTyping(selfID string) bool {
	for id, typing := range t {
		if typing && id != selfID {
			return true
		}
	}
	return false
}
