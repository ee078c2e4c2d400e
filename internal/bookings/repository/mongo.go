package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campsite/pkg/model"
)

const (
	CollectionName = "shard_events"

	defaultMongoOpTimeout = 5 * time.Second
)

type shardEventDocument struct {
	Date   string      `bson:"date"`
	Seq    int64       `bson:"seq"`
	Record eventRecord `bson:",inline"`
}

// MongoStore keeps one ordered stream of documents per date in a single collection.
type MongoStore struct {
	collection *mongo.Collection
	opTimeout  time.Duration
}

func NewMongoStore(ctx context.Context, db *mongo.Database, opTimeout time.Duration) (*MongoStore, error) {
	if opTimeout <= 0 {
		opTimeout = defaultMongoOpTimeout
	}
	s := &MongoStore{
		collection: db.Collection(CollectionName),
		opTimeout:  opTimeout,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_seq_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create %s index: %w", CollectionName, err)
	}
	return nil
}

func (s *MongoStore) Open(ctx context.Context, date model.Date) (EventLog, error) {
	l := &mongoLog{collection: s.collection, date: date.Key(), opTimeout: s.opTimeout}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var last shardEventDocument
	err := s.collection.FindOne(ctx,
		bson.M{"date": l.date},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&last)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		l.next = 0
	case err != nil:
		return nil, fmt.Errorf("failed to open log for %s: %w", l.date, err)
	default:
		l.next = last.Seq + 1
	}
	return l, nil
}

func (s *MongoStore) Close(context.Context) error {
	return nil
}

type mongoLog struct {
	collection *mongo.Collection
	date       string
	next       int64
	opTimeout  time.Duration
}

func (l *mongoLog) ReadAll(ctx context.Context) ([]model.ShardEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	cursor, err := l.collection.Find(ctx,
		bson.M{"date": l.date},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read log for %s: %w", l.date, err)
	}
	defer cursor.Close(ctx)

	var events []model.ShardEvent
	for cursor.Next(ctx) {
		var doc shardEventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("log %s seq %d: %w", l.date, doc.Seq, err)
		}
		ev, err := fromRecord(doc.Record)
		if err != nil {
			return nil, fmt.Errorf("log %s seq %d: %w", l.date, doc.Seq, err)
		}
		events = append(events, ev)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log for %s: %w", l.date, err)
	}
	return events, nil
}

func (l *mongoLog) Append(ctx context.Context, ev model.ShardEvent) error {
	rec, err := toRecord(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	doc := shardEventDocument{Date: l.date, Seq: l.next, Record: rec}
	if _, err := l.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append to log %s: %w", l.date, err)
	}
	l.next++
	return nil
}

func (l *mongoLog) Close() error {
	return nil
}
