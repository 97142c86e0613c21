package typing

import (
	"context"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/store"
)

// Coordinator maintains the per-channel typing document. Each
// participant merge-writes only their own key, on every input change
// and forced to false right after a successful send. There is no
// debounce or TTL: a peer who navigates away with text in the input
// leaves a stale indicator until their next write. That is a known
// limitation of the data model, not something this layer papers over.
type Coordinator struct {
	store  store.Store
	logger *zap.Logger
}

func NewCoordinator(s store.Store, logger *zap.Logger) *Coordinator {
	return &Coordinator{store: s, logger: logger}
}

// SetTyping merge-writes {userID: isTyping} into the channel's typing
// document. No-op without an identity.
func (c *Coordinator) SetTyping(ctx context.Context, typingPath, userID string, isTyping bool) error {
	if userID == "" {
		return nil
	}
	err := c.store.MergeWrite(ctx, typingPath, store.Doc{userID: isTyping})
	if err != nil {
		c.logger.Warn("typing write failed",
			zap.String("path", typingPath),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	return err
}

// Watch is a live view of one channel's typing document, reduced to
// the participants currently typing other than the viewer.
type Watch struct {
	C   <-chan []string
	sub store.DocSubscription
}

func (w *Watch) Cancel() { w.sub.Cancel() }

func (c *Coordinator) Watch(ctx context.Context, typingPath, selfID string) (*Watch, error) {
	sub, err := c.store.SubscribeDoc(ctx, typingPath)
	if err != nil {
		return nil, err
	}

	out := make(chan []string, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			var typers []string
			if snap.Exists {
				typers = model.TypingFromDoc(snap.Data).ActiveTypers(selfID)
			}
			select {
			case out <- typers:
			default:
				select {
				case <-out:
				default:
				}
				out <- typers
			}
		}
	}()
	return &Watch{C: out, sub: sub}, nil
}
