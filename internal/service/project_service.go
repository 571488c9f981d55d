package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/gantt"
	"github.com/ganttwork/planner/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Either field may be nil.
type MetricHooks struct {
	OnParse  func(outcome string)
	OnStored func(total int)
}

// ProjectService coordinates the PlantUML codec and the project repository.
// HTTP handlers depend on this service, never on the repository directly.
type ProjectService struct {
	repo   repository.ProjectRepository
	parser *gantt.Parser
	hooks  MetricHooks
	logger *zap.Logger
	now    func() time.Time
}

func NewProjectService(
	repo repository.ProjectRepository,
	parser *gantt.Parser,
	hooks MetricHooks,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{repo: repo, parser: parser, hooks: hooks, logger: logger, now: time.Now}
}

// Parse converts PlantUML text to a project without storing it.
func (s *ProjectService) Parse(_ context.Context, text string) (*domain.Project, error) {
	return s.parse(text)
}

// Serialize validates p and renders it as PlantUML.
func (s *ProjectService) Serialize(_ context.Context, p *domain.Project) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return gantt.Serialize(p), nil
}

// Create parses in.PlantUML and stores the result under a fresh ID.
// A non-empty in.Name overrides the parser's default project name.
func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	p, err := s.parse(in.PlantUML)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = &now
	p.UpdatedAt = &now
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}
	s.refreshStored(ctx)
	return p, nil
}

// Update replaces the tasks of an existing project with a re-parsed document.
// The ID and creation time are kept; an empty in.Name keeps the current name.
func (s *ProjectService) Update(ctx context.Context, id string, in domain.ProjectInput) (*domain.Project, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.parse(in.PlantUML)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = existing.ID
	p.Name = existing.Name
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = &now
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// PlantUML returns the stored project rendered as a PlantUML document.
func (s *ProjectService) PlantUML(ctx context.Context, id string) (string, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return gantt.Serialize(p), nil
}

func (s *ProjectService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Project, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshStored(ctx)
	return nil
}

// ---- private helpers ----

func (s *ProjectService) parse(text string) (*domain.Project, error) {
	p, err := s.parser.Parse(text)

	outcome := "ok"
	var pe *gantt.ParseError
	if errors.As(err, &pe) {
		outcome = string(pe.Kind)
		s.logger.Debug("plantuml rejected",
			zap.Int("line", pe.Line),
			zap.String("kind", outcome),
			zap.String("reason", pe.Message),
		)
	}
	if s.hooks.OnParse != nil {
		s.hooks.OnParse(outcome)
	}
	return p, err
}

// refreshStored pushes the repository size to the gauge. Errors are logged, not returned.
func (s *ProjectService) refreshStored(ctx context.Context) {
	if s.hooks.OnStored == nil {
		return
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("count projects failed", zap.Error(err))
		return
	}
	s.hooks.OnStored(n)
}
