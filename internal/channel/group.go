package channel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

// Group is a group channel bound to a viewer. Every operation that
// reads or writes the log is gated on current membership; a
// non-member gets ErrNotMember and no write is attempted, so the UI
// can fall back to a read-only "not a member" state.
type Group struct {
	store    store.Store
	typing   *typing.Coordinator
	logger   *zap.Logger
	viewerID string
	groupID  string
}

func NewGroup(s store.Store, t *typing.Coordinator, logger *zap.Logger, viewerID, groupID string) *Group {
	return &Group{
		store:    s,
		typing:   t,
		logger:   logger,
		viewerID: viewerID,
		groupID:  groupID,
	}
}

func (g *Group) ID() string         { return g.groupID }
func (g *Group) TypingPath() string { return store.GroupTypingPath(g.groupID) }

// Info reads the group record once.
func (g *Group) Info(ctx context.Context) (model.Group, error) {
	snap, err := g.store.GetDoc(ctx, store.GroupPath(g.groupID))
	if err != nil {
		return model.Group{}, err
	}
	if !snap.Exists {
		return model.Group{}, ErrGroupNotFound
	}
	return model.GroupFromDoc(g.groupID, snap.Data), nil
}

func (g *Group) requireMember(ctx context.Context) (model.Group, error) {
	info, err := g.Info(ctx)
	if err != nil {
		return model.Group{}, err
	}
	if !info.IsMember(g.viewerID) {
		return model.Group{}, ErrNotMember
	}
	return info, nil
}

// Send validates text, checks membership, appends the message with
// seenBy initialized to the sender, then resets the sender's typing
// flag.
func (g *Group) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if _, err := g.requireMember(ctx); err != nil {
		return err
	}

	_, err := g.store.Append(ctx, store.GroupMessagesPath(g.groupID), model.GroupMessageFields(g.viewerID, text))
	if err != nil {
		return err
	}

	if err := g.typing.SetTyping(ctx, g.TypingPath(), g.viewerID, false); err != nil {
		g.logger.Warn("typing reset after send failed",
			zap.String("group_id", g.groupID),
			zap.Error(err),
		)
	}
	return nil
}

// SetTyping broadcasts the viewer's typing state. Refused for
// non-members so their state never reaches the shared document.
func (g *Group) SetTyping(ctx context.Context, isTyping bool) error {
	if _, err := g.requireMember(ctx); err != nil {
		return err
	}
	return g.typing.SetTyping(ctx, g.TypingPath(), g.viewerID, isTyping)
}

// WatchTyping is membership-gated like the message log: a non-member
// neither writes nor reads the shared typing document.
func (g *Group) WatchTyping(ctx context.Context) (*typing.Watch, error) {
	if _, err := g.requireMember(ctx); err != nil {
		return nil, err
	}
	return g.typing.Watch(ctx, g.TypingPath(), g.viewerID)
}

// Messages reads the ordered log once, membership required, without
// the seenBy side effect of Observe.
func (g *Group) Messages(ctx context.Context) ([]model.GroupMessage, error) {
	if _, err := g.requireMember(ctx); err != nil {
		return nil, err
	}
	snap, err := g.store.GetCollection(ctx, store.GroupMessagesPath(g.groupID))
	if err != nil {
		return nil, err
	}
	msgs := make([]model.GroupMessage, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		msgs = append(msgs, model.GroupMessageFromEntry(e))
	}
	return msgs, nil
}

// GroupFeed is a live, ordered view of a group channel's messages.
type GroupFeed struct {
	C   <-chan []model.GroupMessage
	sub store.CollectionSubscription
}

func (f *GroupFeed) Cancel() { f.sub.Cancel() }

// Observe subscribes to the ordered log; membership is required. For
// every message the viewer did not send, the viewer is unioned into
// seenBy. The union is a merge of a single nested key, so concurrent
// observers never remove anyone and re-application is a no-op.
func (g *Group) Observe(ctx context.Context) (*GroupFeed, error) {
	if _, err := g.requireMember(ctx); err != nil {
		return nil, err
	}

	path := store.GroupMessagesPath(g.groupID)
	sub, err := g.store.SubscribeCollection(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(chan []model.GroupMessage, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			msgs := make([]model.GroupMessage, 0, len(snap.Entries))
			for _, e := range snap.Entries {
				msg := model.GroupMessageFromEntry(e)
				msgs = append(msgs, msg)

				if msg.SenderID != g.viewerID && !msg.SeenByUser(g.viewerID) {
					err := g.store.MergeWrite(ctx, store.ChildPath(path, msg.ID), store.Doc{
						"seenBy": map[string]bool{g.viewerID: true},
					})
					if err != nil {
						g.logger.Warn("seenBy union failed",
							zap.String("group_id", g.groupID),
							zap.String("message_id", msg.ID),
							zap.Error(err),
						)
					}
				}
			}
			emitLatest(out, msgs)
		}
	}()
	return &GroupFeed{C: out, sub: sub}, nil
}

// InfoWatch is a live view of the group record itself (name, member
// list) for the channel header.
type InfoWatch struct {
	C   <-chan model.Group
	sub store.DocSubscription
}

func (w *InfoWatch) Cancel() { w.sub.Cancel() }

func (g *Group) WatchInfo(ctx context.Context) (*InfoWatch, error) {
	sub, err := g.store.SubscribeDoc(ctx, store.GroupPath(g.groupID))
	if err != nil {
		return nil, err
	}

	out := make(chan model.Group, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			if !snap.Exists {
				continue
			}
			emitLatest(out, model.GroupFromDoc(g.groupID, snap.Data))
		}
	}()
	return &InfoWatch{C: out, sub: sub}, nil
}
