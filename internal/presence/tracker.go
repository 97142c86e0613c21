package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/store"
)

// Tracker maintains the online/lastSeen fields of user records. Every
// write is a merge, so repeated connects are harmless and concurrent
// sessions of the same user only race on equivalent values. A failed
// offline write on abrupt disconnect is an accepted miss; lastSeen
// stays stale until the next successful write.
type Tracker struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTracker(s store.Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: s, logger: logger, now: time.Now}
}

// SetPresence merge-writes {online, lastSeen: now} into the user
// record. No-op without an identity.
func (t *Tracker) SetPresence(ctx context.Context, userID string, online bool) error {
	if userID == "" {
		return nil
	}
	err := t.store.MergeWrite(ctx, store.UserPath(userID), store.Doc{
		"online":   online,
		"lastSeen": t.now().UTC(),
	})
	if err != nil {
		t.logger.Warn("presence write failed",
			zap.String("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// UpsertProfile merge-writes the identity's profile into its user
// record, marking it online. Called on every successful sign-in.
func (t *Tracker) UpsertProfile(ctx context.Context, id model.Identity) error {
	if !id.Valid() {
		return nil
	}
	return t.store.MergeWrite(ctx, store.UserPath(id.ID), id.ProfileFields(t.now().UTC()))
}

// UserWatch is a live view of one user record. Cancel must be called
// on teardown.
type UserWatch struct {
	C   <-chan model.User
	sub store.DocSubscription
}

func (w *UserWatch) Cancel() { w.sub.Cancel() }

// WatchUser streams the peer's presence record; used by a direct
// channel view for the Online / Last seen header.
func (t *Tracker) WatchUser(ctx context.Context, userID string) (*UserWatch, error) {
	sub, err := t.store.SubscribeDoc(ctx, store.UserPath(userID))
	if err != nil {
		return nil, err
	}

	out := make(chan model.User, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			if !snap.Exists {
				continue
			}
			u := model.UserFromDoc(userID, snap.Data)
			select {
			case out <- u:
			default:
				select {
				case <-out:
				default:
				}
				out <- u
			}
		}
	}()
	return &UserWatch{C: out, sub: sub}, nil
}

// StatusLine renders the channel header: "Online" while the peer has
// an active session, otherwise a humanized last-seen timestamp.
func StatusLine(u model.User, now time.Time) string {
	if u.Online {
		return "Online"
	}
	return "Last seen: " + FormatLastSeen(u.LastSeen, now)
}
