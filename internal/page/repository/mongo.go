package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ypb/phonebook/internal/page"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores pages in the "pages" collection and their previous
// versions in "pages_history". Pages are keyed by the string field "id".
type MongoRepo struct {
	pages   *mongo.Collection
	history *mongo.Collection
}

func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	pages := db.Collection("pages")
	history := db.Collection("pages_history")
	// id is unique, and so is the title among live pages
	_, err := pages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().
			SetName("title_live_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"isDeleted": false})},
	})
	if err != nil {
		return nil, err
	}
	if _, err := history.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "changedAt", Value: 1}}}); err != nil {
		return nil, err
	}
	return &MongoRepo{pages: pages, history: history}, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*page.Page, error) {
	cur, err := m.pages.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*page.Page{}
	for cur.Next(ctx) {
		var p page.Page
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*page.Page, error) {
	var p page.Page
	err := m.pages.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) FindByTitle(ctx context.Context, title, excludeID string) (*page.Page, error) {
	filter := bson.M{"title": title, "id": bson.M{"$ne": excludeID}}
	cur, err := m.pages.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var candidates []*page.Page
	for cur.Next(ctx) {
		var p page.Page
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		candidates = append(candidates, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if found := pickTitleMatch(candidates); found != nil {
		return found, nil
	}
	return nil, ErrNotFound
}

func (m *MongoRepo) Save(ctx context.Context, p *page.Page) (string, error) {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	set := bson.M{
		"title":     p.Title,
		"html":      p.HTML,
		"tags":      p.Tags,
		"isDeleted": p.IsDeleted,
		"oldName":   p.OldName,
		"oldUrl":    p.OldURL,
		"updatedAt": p.UpdatedAt,
	}
	setOnInsert := bson.M{"createdAt": p.CreatedAt, "createdBy": p.CreatedBy}
	_, err := m.pages.UpdateOne(ctx, bson.M{"id": p.ID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("%w: %s", ErrTitleTaken, p.Title)
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (m *MongoRepo) AppendHistory(ctx context.Context, h *page.History) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	_, err := m.history.InsertOne(ctx, h)
	return err
}

func (m *MongoRepo) ListHistory(ctx context.Context, pageID string) ([]*page.History, error) {
	cur, err := m.history.Find(ctx, bson.M{"pageId": pageID}, options.Find().SetSort(bson.D{{Key: "changedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*page.History{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
