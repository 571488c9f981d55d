package repository

import (
	"context"

	"github.com/ganttwork/planner/internal/domain"
)

// ProjectRepository defines all persistence operations for projects.
// The pgx implementation is in pg_project_repo.go; the in-memory one in
// memory_project_repo.go serves deployments without DATABASE_URL and tests.
// Implementations return copies and report missing rows as domain.ErrNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Project, int, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
