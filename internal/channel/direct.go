package channel

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

var (
	ErrEmptyMessage  = errors.New("message text cannot be empty")
	ErrNotMember     = errors.New("user is not a member of this group")
	ErrGroupNotFound = errors.New("group not found")
)

// Direct is a 1:1 channel bound to a viewer and a peer: an
// append-only message log plus the channel's typing document.
type Direct struct {
	store    store.Store
	typing   *typing.Coordinator
	logger   *zap.Logger
	viewerID string
	peerID   string
	id       string
}

func NewDirect(s store.Store, t *typing.Coordinator, logger *zap.Logger, viewerID, peerID string) *Direct {
	return &Direct{
		store:    s,
		typing:   t,
		logger:   logger,
		viewerID: viewerID,
		peerID:   peerID,
		id:       DirectID(viewerID, peerID),
	}
}

func (d *Direct) ID() string         { return d.id }
func (d *Direct) TypingPath() string { return store.DirectTypingPath(d.id) }

// Send appends {text, senderId, seen:false} to the log and then
// resets the sender's typing flag. Empty and whitespace-only text is
// rejected locally, before any store call.
func (d *Direct) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	_, err := d.store.Append(ctx, store.DirectMessagesPath(d.id), model.DirectMessageFields(d.viewerID, text))
	if err != nil {
		return err
	}

	// The message is committed at this point; a failed typing reset
	// only leaves a stale indicator.
	if err := d.typing.SetTyping(ctx, d.TypingPath(), d.viewerID, false); err != nil {
		d.logger.Warn("typing reset after send failed",
			zap.String("channel_id", d.id),
			zap.Error(err),
		)
	}
	return nil
}

func (d *Direct) SetTyping(ctx context.Context, isTyping bool) error {
	return d.typing.SetTyping(ctx, d.TypingPath(), d.viewerID, isTyping)
}

func (d *Direct) WatchTyping(ctx context.Context) (*typing.Watch, error) {
	return d.typing.Watch(ctx, d.TypingPath(), d.viewerID)
}

// Messages reads the ordered log once, without the seen side effect
// of Observe.
func (d *Direct) Messages(ctx context.Context) ([]model.DirectMessage, error) {
	snap, err := d.store.GetCollection(ctx, store.DirectMessagesPath(d.id))
	if err != nil {
		return nil, err
	}
	msgs := make([]model.DirectMessage, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		msgs = append(msgs, model.DirectMessageFromEntry(e))
	}
	return msgs, nil
}

// Feed is a live, ordered view of a direct channel's messages.
type Feed struct {
	C   <-chan []model.DirectMessage
	sub store.CollectionSubscription
}

func (f *Feed) Cancel() { f.sub.Cancel() }

// Observe subscribes to the ordered log and, on every snapshot, marks
// each unseen peer message as seen. Observation is a side-effecting
// read: the seen flip is a merge-write, idempotent under concurrent
// observers of the same channel.
func (d *Direct) Observe(ctx context.Context) (*Feed, error) {
	path := store.DirectMessagesPath(d.id)
	sub, err := d.store.SubscribeCollection(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(chan []model.DirectMessage, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			msgs := make([]model.DirectMessage, 0, len(snap.Entries))
			for _, e := range snap.Entries {
				msg := model.DirectMessageFromEntry(e)
				msgs = append(msgs, msg)

				if msg.SenderID == d.peerID && !msg.Seen {
					err := d.store.MergeWrite(ctx, store.ChildPath(path, msg.ID), store.Doc{"seen": true})
					if err != nil {
						d.logger.Warn("seen flip failed",
							zap.String("channel_id", d.id),
							zap.String("message_id", msg.ID),
							zap.Error(err),
						)
					}
				}
			}
			emitLatest(out, msgs)
		}
	}()
	return &Feed{C: out, sub: sub}, nil
}

// emitLatest never blocks the snapshot loop: if the consumer lags,
// the stale buffered slice is replaced by the newest one.
func emitLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
