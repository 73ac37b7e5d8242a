package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores one deck per document, keyed by the deck id.
// The deck fields live at the top level of the document so the deploy
// slots are addressed as "deploy.api" and "deploy.github".
type MongoRepo struct {
	col *mongo.Collection
}

var deckIndexes = []mongo.IndexModel{
	{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the owner listing index.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := m.col.Indexes().CreateMany(ctx, deckIndexes); err != nil {
		return fmt.Errorf("ensure deck indexes: %w", err)
	}
	return nil
}

func (m *MongoRepo) Create(ctx context.Context, d *deck.Deck) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.Data.CreatedAt = now
	d.Data.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		return "", fmt.Errorf("insert deck: %w", err)
	}
	return d.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*deck.Deck, error) {
	var d deck.Deck
	if err := m.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListByOwner(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := m.col.Find(ctx, bson.D{{Key: "owner_id", Value: ownerID}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	out := []*deck.Deck{}
	for cur.Next(ctx) {
		var d deck.Deck
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) UpdateName(ctx context.Context, id, name string) error {
	return m.set(ctx, id, bson.D{
		{Key: "name", Value: name},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) MergeDeploy(ctx context.Context, id string, slot deck.DeploySlot, data deck.DeployData) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown deploy slot %q", slot)
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "deploy." + string(slot), Value: data}}}}
	if _, err := m.col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("merge deploy.%s: %w", slot, err)
	}
	return nil
}

func (m *MongoRepo) MergeMeta(ctx context.Context, id string, meta deck.DeckMeta) error {
	return m.set(ctx, id, bson.D{{Key: "meta", Value: meta}})
}

func (m *MongoRepo) set(ctx context.Context, id string, fields bson.D) error {
	res, err := m.col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
