package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ganttwork/planner/internal/domain"
)

// MemoryProjectRepository is an in-memory ProjectRepository. It is used when no
// database is configured and as the test double for the service layer.
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr error
	ListErr   error
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[string]*domain.Project)}
}

func (m *MemoryProjectRepository) Create(_ context.Context, p *domain.Project) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p.Clone()
	return nil
}

func (m *MemoryProjectRepository) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// List orders projects newest first, matching the Postgres implementation.
func (m *MemoryProjectRepository) List(_ context.Context, f domain.ListFilter) ([]*domain.Project, int, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.RLock()
	all := make([]*domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		all = append(all, p.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		ci, cj := createdAt(all[i]), createdAt(all[j])
		if ci != cj {
			return ci > cj
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	offset := (f.Page - 1) * f.Limit
	if offset < 0 || offset >= total {
		return []*domain.Project{}, total, nil
	}
	end := offset + f.Limit
	if end > total || f.Limit <= 0 {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MemoryProjectRepository) Update(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.projects[p.ID] = p.Clone()
	return nil
}

func (m *MemoryProjectRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MemoryProjectRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects), nil
}

func createdAt(p *domain.Project) int64 {
	if p.CreatedAt == nil {
		return 0
	}
	return p.CreatedAt.UnixNano()
}

var _ ProjectRepository = (*MemoryProjectRepository)(nil)
