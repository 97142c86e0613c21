package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/presence"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

// ChatService is the operation surface the transports call into.
// Every operation takes the caller's identity explicitly; operations
// that require one are silent no-ops when it is absent, per the
// error-handling contract (identity absence is never an error).
type ChatService interface {
	SignIn(ctx context.Context, id model.Identity) error
	SignOut(ctx context.Context, id model.Identity) error

	SendDirect(ctx context.Context, id model.Identity, peerID, text string) error
	SendGroup(ctx context.Context, id model.Identity, groupID, text string) error
	SetTyping(ctx context.Context, id model.Identity, sel directory.Selection, isTyping bool) error

	CreateGroup(ctx context.Context, id model.Identity, name string, memberIDs []string) (string, error)

	DirectMessages(ctx context.Context, id model.Identity, peerID string) ([]model.DirectMessage, error)
	GroupMessages(ctx context.Context, id model.Identity, groupID string) ([]model.GroupMessage, error)
}

type chatService struct {
	store     store.Store
	presence  *presence.Tracker
	typing    *typing.Coordinator
	directory *directory.Directory
	logger    *zap.Logger
}

func NewChatService(
	s store.Store,
	p *presence.Tracker,
	t *typing.Coordinator,
	d *directory.Directory,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		store:     s,
		presence:  p,
		typing:    t,
		directory: d,
		logger:    logger,
	}
}

func (s *chatService) SignIn(ctx context.Context, id model.Identity) error {
	if !id.Valid() {
		return nil
	}
	return s.presence.UpsertProfile(ctx, id)
}

func (s *chatService) SignOut(ctx context.Context, id model.Identity) error {
	if !id.Valid() {
		return nil
	}
	return s.presence.SetPresence(ctx, id.ID, false)
}

func (s *chatService) SendDirect(ctx context.Context, id model.Identity, peerID, text string) error {
	if !id.Valid() {
		return nil
	}
	return channel.NewDirect(s.store, s.typing, s.logger, id.ID, peerID).Send(ctx, text)
}

func (s *chatService) SendGroup(ctx context.Context, id model.Identity, groupID, text string) error {
	if !id.Valid() {
		return nil
	}
	return channel.NewGroup(s.store, s.typing, s.logger, id.ID, groupID).Send(ctx, text)
}

func (s *chatService) SetTyping(ctx context.Context, id model.Identity, sel directory.Selection, isTyping bool) error {
	if !id.Valid() {
		return nil
	}
	switch sel.Kind {
	case directory.KindGroup:
		return channel.NewGroup(s.store, s.typing, s.logger, id.ID, sel.ChannelID).SetTyping(ctx, isTyping)
	default:
		return s.typing.SetTyping(ctx, store.DirectTypingPath(sel.ChannelID), id.ID, isTyping)
	}
}

func (s *chatService) CreateGroup(ctx context.Context, id model.Identity, name string, memberIDs []string) (string, error) {
	if !id.Valid() {
		return "", directory.ErrNoCreator
	}
	return s.directory.CreateGroup(ctx, name, id.ID, memberIDs)
}

func (s *chatService) DirectMessages(ctx context.Context, id model.Identity, peerID string) ([]model.DirectMessage, error) {
	return channel.NewDirect(s.store, s.typing, s.logger, id.ID, peerID).Messages(ctx)
}

func (s *chatService) GroupMessages(ctx context.Context, id model.Identity, groupID string) ([]model.GroupMessage, error) {
	return channel.NewGroup(s.store, s.typing, s.logger, id.ID, groupID).Messages(ctx)
}
