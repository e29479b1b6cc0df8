package courses

import (
	"context"
	"strings"
)

// Service wraps course business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Course, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Course, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, req CreateCourseRequest) (*Course, error) {
	return s.repo.Create(ctx, Course{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		CreditHours:  req.CreditHours,
		Capacity:     req.Capacity,
		IsActive:     true,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*Course, error) {
	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CreditHours != nil {
		updates["credit_hours"] = *req.CreditHours
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
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
