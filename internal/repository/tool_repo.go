package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quoteflow/internal/model"
)

// ToolRepo handles MongoDB operations for tool configuration
type ToolRepo interface {
	Create(ctx context.Context, tool *model.Tool) (string, error)
	GetByID(ctx context.Context, id string) (*model.Tool, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Tool, error)
	Update(ctx context.Context, tool *model.Tool) error
	Delete(ctx context.Context, id string) error
}

type toolRepo struct {
	collection *mongo.Collection
}

// NewToolRepo creates a new tool repository
func NewToolRepo(db *mongo.Database) ToolRepo {
	return &toolRepo{
		collection: db.Collection("tools"),
	}
}

func (r *toolRepo) Create(ctx context.Context, tool *model.Tool) (string, error) {
	tool.CreatedAt = time.Now()
	tool.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, tool)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *toolRepo) GetByID(ctx context.Context, id string) (*model.Tool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var tool model.Tool
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&tool)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tool.ID = id
	return &tool, nil
}

func (r *toolRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Tool, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tools []*model.Tool
	if err := cursor.All(ctx, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

func (r *toolRepo) Update(ctx context.Context, tool *model.Tool) error {
	oid, err := primitive.ObjectIDFromHex(tool.ID)
	if err != nil {
		return err
	}

	tool.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, tool)
	return err
}

func (r *toolRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
