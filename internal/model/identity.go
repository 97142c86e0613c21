package model

import (
	"time"

	"github.com/Deepakk2104/Zync/internal/store"
)

// Identity is the authenticated account as supplied by the external
// identity provider. The sync core only consumes it; operations that
// need one are silent no-ops when it is absent.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

func (i Identity) Valid() bool { return i.ID != "" }

// ProfileFields is the merge-write payload upserted into the user
// record on every successful sign-in.
func (i Identity) ProfileFields(now time.Time) store.Doc {
	return store.Doc{
		"uid":      i.ID,
		"name":     i.Name,
		"email":    i.Email,
		"photoURL": i.AvatarURL,
		"online":   true,
		"lastSeen": now,
	}
}
