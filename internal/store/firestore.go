package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Cloud Firestore project to the Store interface.
// Logical paths map almost one to one; the only adjustment is the
// typing document, which gains a fixed "status" leaf because
// Firestore document paths must alternate collection/document.
type Firestore struct {
	client *firestore.Client
	logger *zap.Logger
}

func OpenFirestore(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return firestore.NewClient(ctx, projectID, opts...)
}

func NewFirestore(client *firestore.Client, logger *zap.Logger) *Firestore {
	return &Firestore{client: client, logger: logger}
}

func fsDocPath(path string) string {
	if strings.HasSuffix(path, "/"+typingSegment) {
		return path + "/status"
	}
	return path
}

func (s *Firestore) GetDoc(ctx context.Context, path string) (Snapshot, error) {
	doc, err := s.client.Doc(fsDocPath(path)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Snapshot{Path: path, Exists: false}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Exists: true, Data: doc.Data()}, nil
}

func (s *Firestore) GetCollection(ctx context.Context, path string) (CollectionSnapshot, error) {
	docs, err := s.client.Collection(path).Documents(ctx).GetAll()
	if err != nil {
		return CollectionSnapshot{}, err
	}
	return collectionFromDocs(path, docs), nil
}

func (s *Firestore) MergeWrite(ctx context.Context, path string, fields Doc) error {
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = normalize(v)
	}
	_, err := s.client.Doc(fsDocPath(path)).Set(ctx, data, firestore.MergeAll)
	return err
}

func (s *Firestore) Append(ctx context.Context, path string, fields Doc) (string, error) {
	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = normalize(v)
	}
	data["createdAt"] = firestore.ServerTimestamp

	ref, _, err := s.client.Collection(path).Add(ctx, data)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Firestore) SubscribeDoc(ctx context.Context, path string) (DocSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &streamDocSub{ch: make(chan Snapshot, subBufferSize), cancel: cancel}

	iter := s.client.Doc(fsDocPath(path)).Snapshots(ctx)
	go func() {
		defer close(sub.ch)
		defer iter.Stop()

		for {
			doc, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					s.logger.Error("document snapshot stream failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
				return
			}
			snap := Snapshot{Path: path, Exists: doc.Exists()}
			if doc.Exists() {
				snap.Data = doc.Data()
			}
			push(sub.ch, snap)
		}
	}()
	return sub, nil
}

func (s *Firestore) SubscribeCollection(ctx context.Context, path string) (CollectionSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &streamColSub{ch: make(chan CollectionSnapshot, subBufferSize), cancel: cancel}

	iter := s.client.Collection(path).Snapshots(ctx)
	go func() {
		defer close(sub.ch)
		defer iter.Stop()

		for {
			qs, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					s.logger.Error("collection snapshot stream failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error("collection snapshot read failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
				return
			}
			push(sub.ch, collectionFromDocs(path, docs))
		}
	}()
	return sub, nil
}

// collectionFromDocs sorts client-side: roster documents (users) carry
// no createdAt, and a server-side order-by would drop them entirely.
func collectionFromDocs(path string, docs []*firestore.DocumentSnapshot) CollectionSnapshot {
	snap := CollectionSnapshot{Path: path}
	for _, doc := range docs {
		e := Entry{ID: doc.Ref.ID, Data: doc.Data()}
		if ts, ok := e.Data["createdAt"].(time.Time); ok {
			e.CreatedAt = ts
		} else {
			e.CreatedAt = doc.CreateTime
		}
		snap.Entries = append(snap.Entries, e)
	}
	sort.SliceStable(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].CreatedAt.Before(snap.Entries[j].CreatedAt)
	})
	return snap
}
