package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pathfinder-service/internal/domain"
)

const collectionName = "questions"

// QuestionStore keeps questions as documents keyed by the question id.
type QuestionStore struct {
	collection *mongo.Collection
}

func NewQuestionStore(client *mongo.Client, database string) *QuestionStore {
	return &QuestionStore{collection: client.Database(database).Collection(collectionName)}
}

// EnsureIndexes creates the listing index. It is safe to call on every boot.
func (s *QuestionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "block", Value: 1}, {Key: "difficulty", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create question index: %w", err)
	}
	return nil
}

func (s *QuestionStore) ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	return s.find(ctx, bson.M{"block": string(block)})
}

func (s *QuestionStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	return s.find(ctx, bson.M{})
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Item, error) {
	var item domain.Item
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Item{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get question: %w", err)
	}
	return item, nil
}

func (s *QuestionStore) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	if _, err := s.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Item{}, domain.ErrItemExists
		}
		return domain.Item{}, fmt.Errorf("create question: %w", err)
	}
	return item, nil
}

func (s *QuestionStore) Update(ctx context.Context, item domain.Item) (domain.Item, error) {
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return domain.Item{}, fmt.Errorf("update question: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *QuestionStore) find(ctx context.Context, filter bson.M) ([]domain.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "block", Value: 1}, {Key: "difficulty", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	items := []domain.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return items, nil
}
