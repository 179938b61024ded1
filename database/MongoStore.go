package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db *mongo.Database
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	filter := bson.M{}
	for _, f := range filters {
		switch f.Op {
		case OpEq:
			filter[f.Field] = f.Value
		case OpIn:
			filter[f.Field] = bson.M{"$in": f.Values}
		}
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	doc := cloneDocument(fields)
	doc["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return id, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, fields Document) error {
	doc := cloneDocument(fields)
	doc["_id"] = id

	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, deltas ...Delta) error {
	update := bson.M{}
	for _, d := range deltas {
		var op string
		switch d.Kind {
		case DeltaSet:
			op = "$set"
		case DeltaAddToSet:
			op = "$addToSet"
		case DeltaRemoveFromSet:
			op = "$pull"
		default:
			return fmt.Errorf("unknown delta kind %d", d.Kind)
		}
		fields, ok := update[op].(bson.M)
		if !ok {
			fields = bson.M{}
			update[op] = fields
		}
		fields[d.Field] = d.Value
	}

	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
