package directory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/store"
)

var (
	ErrEmptyGroupName = errors.New("group name cannot be empty")
	ErrNoCreator      = errors.New("group creator is required")
)

// Kind distinguishes the two channel flavors a roster pick can
// resolve to.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Selection routes a roster pick to a concrete channel instance.
type Selection struct {
	ChannelID string `json:"channelId"`
	Kind      Kind   `json:"kind"`
}

// SelectPeer resolves a user pick to the shared direct channel id.
func SelectPeer(selfID, peerID string) Selection {
	return Selection{ChannelID: channel.DirectID(selfID, peerID), Kind: KindDirect}
}

func SelectGroup(groupID string) Selection {
	return Selection{ChannelID: groupID, Kind: KindGroup}
}

// Directory maintains the two rosters the conversation list renders:
// every known user except self, and every group.
type Directory struct {
	store  store.Store
	logger *zap.Logger
}

func NewDirectory(s store.Store, logger *zap.Logger) *Directory {
	return &Directory{store: s, logger: logger}
}

// ListUsers reads the user roster once, excluding the viewer.
func (d *Directory) ListUsers(ctx context.Context, selfID string) ([]model.User, error) {
	snap, err := d.store.GetCollection(ctx, store.UsersCollection)
	if err != nil {
		return nil, err
	}
	return usersFromSnapshot(snap, selfID), nil
}

// ListGroups reads the group roster once.
func (d *Directory) ListGroups(ctx context.Context) ([]model.Group, error) {
	snap, err := d.store.GetCollection(ctx, store.GroupsCollection)
	if err != nil {
		return nil, err
	}
	return groupsFromSnapshot(snap), nil
}

// UserRoster is a live view of all users except the viewer.
type UserRoster struct {
	C   <-chan []model.User
	sub store.CollectionSubscription
}

func (r *UserRoster) Cancel() { r.sub.Cancel() }

func (d *Directory) WatchUsers(ctx context.Context, selfID string) (*UserRoster, error) {
	sub, err := d.store.SubscribeCollection(ctx, store.UsersCollection)
	if err != nil {
		return nil, err
	}

	out := make(chan []model.User, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			emitLatest(out, usersFromSnapshot(snap, selfID))
		}
	}()
	return &UserRoster{C: out, sub: sub}, nil
}

// GroupRoster is a live view of all groups.
type GroupRoster struct {
	C   <-chan []model.Group
	sub store.CollectionSubscription
}

func (r *GroupRoster) Cancel() { r.sub.Cancel() }

func (d *Directory) WatchGroups(ctx context.Context) (*GroupRoster, error) {
	sub, err := d.store.SubscribeCollection(ctx, store.GroupsCollection)
	if err != nil {
		return nil, err
	}

	out := make(chan []model.Group, 1)
	go func() {
		defer close(out)
		for snap := range sub.Snapshots() {
			emitLatest(out, groupsFromSnapshot(snap))
		}
	}()
	return &GroupRoster{C: out, sub: sub}, nil
}

// CreateGroup validates the name, assembles the member set with the
// creator first and duplicates removed, and appends the group record.
// Returns the new group id.
func (d *Directory) CreateGroup(ctx context.Context, name, creatorID string, memberIDs []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyGroupName
	}
	if creatorID == "" {
		return "", ErrNoCreator
	}

	members := dedupe(append([]string{creatorID}, memberIDs...))
	id, err := d.store.Append(ctx, store.GroupsCollection, model.GroupFields(name, members))
	if err != nil {
		return "", err
	}
	d.logger.Info("group created",
		zap.String("group_id", id),
		zap.String("creator_id", creatorID),
		zap.Int("members", len(members)),
	)
	return id, nil
}

func usersFromSnapshot(snap store.CollectionSnapshot, selfID string) []model.User {
	users := make([]model.User, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		users = append(users, model.UserFromEntry(e))
	}
	return filter(users, func(u model.User) bool { return u.ID != selfID })
}

func groupsFromSnapshot(snap store.CollectionSnapshot) []model.Group {
	groups := make([]model.Group, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		groups = append(groups, model.GroupFromEntry(e))
	}
	return groups
}
