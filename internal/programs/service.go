package programs

import (
	"context"
	"strings"
)

// Service wraps program business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Program, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Program, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, req CreateProgramRequest) (*Program, error) {
	return s.repo.Create(ctx, Program{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:         strings.TrimSpace(req.Name),
		DepartmentID: req.DepartmentID,
		DegreeLevel:  req.DegreeLevel,
		CreditHours:  req.CreditHours,
		IsActive:     true,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProgramRequest) (*Program, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.DegreeLevel != nil {
		updates["degree_level"] = *req.DegreeLevel
	}
	if req.CreditHours != nil {
		updates["credit_hours"] = *req.CreditHours
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
