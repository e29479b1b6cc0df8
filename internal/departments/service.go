package departments

import (
	"context"
	"strings"
)

// Service wraps department business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Department, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	return s.repo.Create(ctx, Department{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateDepartmentRequest) (*Department, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}
