package semesters

import (
	"context"
	"strings"
)

// Service wraps semester business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Semester, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Current(ctx context.Context) (*Semester, error) {
	return s.repo.Current(ctx)
}

func (s *Service) List(ctx context.Context) ([]Semester, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateSemesterRequest) (*Semester, error) {
	return s.repo.Create(ctx, Semester{
		Code:              strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:              strings.TrimSpace(req.Name),
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSemesterRequest) (*Semester, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.RegistrationStart != nil {
		updates["registration_start"] = *req.RegistrationStart
	}
	if req.RegistrationEnd != nil {
		updates["registration_end"] = *req.RegistrationEnd
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) SetCurrent(ctx context.Context, id int64) (*Semester, error) {
	if err := s.repo.SetCurrent(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
