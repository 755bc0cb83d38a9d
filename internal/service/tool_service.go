package service

import (
	"context"
	"fmt"
	"log"

	"quoteflow/internal/cache"
	"quoteflow/internal/flow"
	"quoteflow/internal/model"
	"quoteflow/internal/repository"
)

// ToolService handles tool configuration CRUD and serves it to the wizard.
// It is the configuration provider: the widget re-fetches through here, so
// the question list can change between sessions.
type ToolService struct {
	toolRepo  repository.ToolRepo
	toolCache cache.ToolCache
}

// NewToolService creates a new tool service
func NewToolService(toolRepo repository.ToolRepo, toolCache cache.ToolCache) *ToolService {
	return &ToolService{
		toolRepo:  toolRepo,
		toolCache: toolCache,
	}
}

// Create validates and stores a new tool configuration
func (s *ToolService) Create(ctx context.Context, tool *model.Tool) (string, error) {
	if err := flow.ValidateQuestions(tool.Questions); err != nil {
		return "", fmt.Errorf("invalid question list: %w", err)
	}
	return s.toolRepo.Create(ctx, tool)
}

// GetByID loads a tool, cache-aside
func (s *ToolService) GetByID(ctx context.Context, id string) (*model.Tool, error) {
	if cached, err := s.toolCache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("[Tool] Cache read failed for %s: %v", id, err)
	}

	tool, err := s.toolRepo.GetByID(ctx, id)
	if err != nil || tool == nil {
		return tool, err
	}
	if err := s.toolCache.Set(ctx, tool); err != nil {
		log.Printf("[Tool] Cache write failed for %s: %v", id, err)
	}
	return tool, nil
}

// GetByOwnerID lists a dashboard user's tools
func (s *ToolService) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Tool, error) {
	return s.toolRepo.GetByOwnerID(ctx, ownerID)
}

// Update validates and stores a changed configuration, invalidating the cache
// so running widgets pick up the new question list
func (s *ToolService) Update(ctx context.Context, tool *model.Tool) error {
	if err := flow.ValidateQuestions(tool.Questions); err != nil {
		return fmt.Errorf("invalid question list: %w", err)
	}
	if err := s.toolRepo.Update(ctx, tool); err != nil {
		return err
	}
	if err := s.toolCache.Delete(ctx, tool.ID); err != nil {
		log.Printf("[Tool] Cache invalidation failed for %s: %v", tool.ID, err)
	}
	return nil
}

// Delete removes a tool and its cached copy
func (s *ToolService) Delete(ctx context.Context, id string) error {
	if err := s.toolRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.toolCache.Delete(ctx, id); err != nil {
		log.Printf("[Tool] Cache invalidation failed for %s: %v", id, err)
	}
	return nil
}
