package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	directMessagesColl = "direct_messages"
	groupMessagesColl  = "group_messages"
	typingColl         = "typing"
)

// Mongo adapts a MongoDB database to the Store interface. Logical
// paths map onto a fixed set of collections; channel-scoped message
// logs share one collection per kind, scoped by a "channel" field.
// Subscriptions ride on change streams, which require a replica set.
type Mongo struct {
	db     *mongo.Database
	logger *zap.Logger
}

func OpenMongo(uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(database), nil
}

func NewMongo(db *mongo.Database, logger *zap.Logger) *Mongo {
	return &Mongo{db: db, logger: logger}
}

// mongoTarget is the physical address of a logical path.
type mongoTarget struct {
	collection string
	docID      string // set for document paths
	channel    string // set for channel-scoped message logs
}

func parseMongoPath(path string) (mongoTarget, bool) {
	seg := strings.Split(path, "/")
	for _, s := range seg {
		if s == "" {
			return mongoTarget{}, false
		}
	}
	switch len(seg) {
	case 1:
		if seg[0] == UsersCollection || seg[0] == GroupsCollection {
			return mongoTarget{collection: seg[0]}, true
		}
	case 2:
		if seg[0] == UsersCollection || seg[0] == GroupsCollection {
			return mongoTarget{collection: seg[0], docID: seg[1]}, true
		}
	case 3:
		switch seg[2] {
		case messagesSegment:
			if seg[0] == directChannelsSegment {
				return mongoTarget{collection: directMessagesColl, channel: seg[1]}, true
			}
			if seg[0] == GroupsCollection {
				return mongoTarget{collection: groupMessagesColl, channel: seg[1]}, true
			}
		case typingSegment:
			if seg[0] == directChannelsSegment || seg[0] == GroupsCollection {
				return mongoTarget{collection: typingColl, docID: path}, true
			}
		}
	case 4:
		if seg[2] == messagesSegment {
			if seg[0] == directChannelsSegment {
				return mongoTarget{collection: directMessagesColl, channel: seg[1], docID: seg[3]}, true
			}
			if seg[0] == GroupsCollection {
				return mongoTarget{collection: groupMessagesColl, channel: seg[1], docID: seg[3]}, true
			}
		}
	}
	return mongoTarget{}, false
}

func (t mongoTarget) filter() bson.M {
	if t.channel != "" {
		return bson.M{"channel": t.channel}
	}
	return bson.M{}
}

func (s *Mongo) GetDoc(ctx context.Context, path string) (Snapshot, error) {
	t, ok := parseMongoPath(path)
	if !ok || t.docID == "" {
		return Snapshot{}, ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(t.collection).FindOne(ctx, bson.M{"_id": t.docID}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return Snapshot{Path: path, Exists: false}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Exists: true, Data: fromBson(raw)}, nil
}

func (s *Mongo) GetCollection(ctx context.Context, path string) (CollectionSnapshot, error) {
	t, ok := parseMongoPath(path)
	if !ok || t.docID != "" {
		return CollectionSnapshot{}, ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(t.collection).Find(ctx, t.filter(), opts)
	if err != nil {
		return CollectionSnapshot{}, err
	}
	defer cursor.Close(ctx)

	snap := CollectionSnapshot{Path: path}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return CollectionSnapshot{}, err
		}
		snap.Entries = append(snap.Entries, entryFromBson(raw))
	}
	return snap, cursor.Err()
}

func (s *Mongo) MergeWrite(ctx context.Context, path string, fields Doc) error {
	t, ok := parseMongoPath(path)
	if !ok || t.docID == "" {
		return ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	set := bson.M{}
	flattenInto(set, "", fields)
	if t.channel != "" {
		set["channel"] = t.channel
	}
	_, err := s.db.Collection(t.collection).UpdateOne(
		ctx,
		bson.M{"_id": t.docID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Mongo) Append(ctx context.Context, path string, fields Doc) (string, error) {
	t, ok := parseMongoPath(path)
	if !ok || t.docID != "" {
		return "", ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	id := uuid.NewString()
	doc := bson.M{"_id": id, "createdAt": time.Now().UTC()}
	for k, v := range fields {
		doc[k] = toBsonValue(v)
	}
	if t.channel != "" {
		doc["channel"] = t.channel
	}
	if _, err := s.db.Collection(t.collection).InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Mongo) SubscribeDoc(ctx context.Context, path string) (DocSubscription, error) {
	t, ok := parseMongoPath(path)
	if !ok || t.docID == "" {
		return nil, ErrInvalidPath
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &streamDocSub{ch: make(chan Snapshot, subBufferSize), cancel: cancel}

	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{"documentKey._id": t.docID}}}}
	stream, err := s.db.Collection(t.collection).Watch(ctx, pipeline)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer close(sub.ch)
		defer stream.Close(context.Background())

		s.emitDoc(ctx, path, sub.ch)
		for stream.Next(ctx) {
			s.emitDoc(ctx, path, sub.ch)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.Error("document change stream failed",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}()
	return sub, nil
}

func (s *Mongo) SubscribeCollection(ctx context.Context, path string) (CollectionSubscription, error) {
	t, ok := parseMongoPath(path)
	if !ok || t.docID != "" {
		return nil, ErrInvalidPath
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &streamColSub{ch: make(chan CollectionSnapshot, subBufferSize), cancel: cancel}

	var pipeline mongo.Pipeline
	if t.channel != "" {
		pipeline = mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{"fullDocument.channel": t.channel}}}}
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.db.Collection(t.collection).Watch(ctx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer close(sub.ch)
		defer stream.Close(context.Background())

		s.emitCollection(ctx, path, sub.ch)
		for stream.Next(ctx) {
			s.emitCollection(ctx, path, sub.ch)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.Error("collection change stream failed",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}()
	return sub, nil
}

func (s *Mongo) emitDoc(ctx context.Context, path string, ch chan Snapshot) {
	snap, err := s.GetDoc(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("document re-read failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	push(ch, snap)
}

func (s *Mongo) emitCollection(ctx context.Context, path string, ch chan CollectionSnapshot) {
	snap, err := s.GetCollection(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("collection re-read failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	push(ch, snap)
}

type streamDocSub struct {
	ch     chan Snapshot
	cancel context.CancelFunc
	once   sync.Once
}

func (s *streamDocSub) Snapshots() <-chan Snapshot { return s.ch }
func (s *streamDocSub) Cancel()                    { s.once.Do(s.cancel) }

type streamColSub struct {
	ch     chan CollectionSnapshot
	cancel context.CancelFunc
	once   sync.Once
}

func (s *streamColSub) Snapshots() <-chan CollectionSnapshot { return s.ch }
func (s *streamColSub) Cancel()                              { s.once.Do(s.cancel) }

// flattenInto rewrites nested maps as dotted $set keys so that a
// merge-write only touches the leaves it names.
func flattenInto(set bson.M, prefix string, fields Doc) {
	for k, v := range fields {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := toMap(v); ok {
			flattenInto(set, key, m)
			continue
		}
		set[key] = v
	}
}

func toBsonValue(v any) any {
	if m, ok := toMap(v); ok {
		out := bson.M{}
		for k, mv := range m {
			out[k] = toBsonValue(mv)
		}
		return out
	}
	return v
}

func fromBson(raw bson.M) Doc {
	d := Doc{}
	for k, v := range raw {
		if k == "_id" || k == "channel" {
			continue
		}
		d[k] = fromBsonValue(v)
	}
	return d
}

func fromBsonValue(v any) any {
	switch tv := v.(type) {
	case primitive.DateTime:
		return tv.Time().UTC()
	case primitive.M:
		out := map[string]any{}
		for k, mv := range tv {
			out[k] = fromBsonValue(mv)
		}
		return out
	case primitive.D:
		out := map[string]any{}
		for _, el := range tv {
			out[el.Key] = fromBsonValue(el.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(tv))
		for i, av := range tv {
			out[i] = fromBsonValue(av)
		}
		return out
	default:
		return v
	}
}

func entryFromBson(raw bson.M) Entry {
	e := Entry{Data: fromBson(raw)}
	if id, ok := raw["_id"].(string); ok {
		e.ID = id
	}
	if ts, ok := e.Data["createdAt"].(time.Time); ok {
		e.CreatedAt = ts
	}
	return e
}
