package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ganttwork/planner/internal/domain"
)

type pgProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPgProjectRepository returns a ProjectRepository backed by PostgreSQL.
// Tasks are stored as a single JSONB document per project.
func NewPgProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgProjectRepository{pool: pool}
}

const projectColumns = `id, name, calendar_start, tasks, created_at, updated_at`

func (r *pgProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	calStart, tasks, err := encodeProject(p)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, calStart, tasks, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *pgProjectRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Project, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

func (r *pgProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	calStart, tasks, err := encodeProject(p)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET name = $1, calendar_start = $2, tasks = $3, updated_at = $4
		WHERE id = $5`, p.Name, calStart, tasks, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgProjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// ---- scan / encode helpers ----

func encodeProject(p *domain.Project) (time.Time, []byte, error) {
	calStart, err := time.Parse(domain.DateLayout, p.CalendarStart)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("encode calendar start: %w", err)
	}
	tasks, err := json.Marshal(p.Tasks)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("encode tasks: %w", err)
	}
	return calStart, tasks, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p         domain.Project
		calStart  time.Time
		tasks     []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &calStart, &tasks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tasks, &p.Tasks); err != nil {
		return nil, fmt.Errorf("decode tasks for project %s: %w", p.ID, err)
	}
	p.CalendarStart = calStart.Format(domain.DateLayout)
	p.CreatedAt = &createdAt
	p.UpdatedAt = &updatedAt
	return &p, nil
}
