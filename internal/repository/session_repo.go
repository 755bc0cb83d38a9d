package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quoteflow/internal/model"
)

// SessionRepo archives wizard sessions for the dashboard funnel. Sessions use
// uuid ids assigned by the service, not ObjectIDs, so upserts key on _id
// directly.
type SessionRepo interface {
	Upsert(ctx context.Context, session *model.WizardSession) error
	GetByID(ctx context.Context, id string) (*model.WizardSession, error)
	ListByTool(ctx context.Context, toolID string, limit int64) ([]*model.WizardSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Upsert(ctx context.Context, session *model.WizardSession) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.WizardSession, error) {
	var session model.WizardSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByTool(ctx context.Context, toolID string, limit int64) ([]*model.WizardSession, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"toolId": toolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.WizardSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
