package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quoteflow/internal/model"
)

// LeadRepo persists out-of-service lead records
type LeadRepo interface {
	Create(ctx context.Context, lead *model.OutOfServiceLead) error
	ListByTool(ctx context.Context, toolID string, limit int64) ([]*model.OutOfServiceLead, error)
}

type leadRepo struct {
	collection *mongo.Collection
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *mongo.Database) LeadRepo {
	return &leadRepo{
		collection: db.Collection("leads"),
	}
}

func (r *leadRepo) Create(ctx context.Context, lead *model.OutOfServiceLead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, lead)
	return err
}

func (r *leadRepo) ListByTool(ctx context.Context, toolID string, limit int64) ([]*model.OutOfServiceLead, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"toolId": toolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var leads []*model.OutOfServiceLead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}
