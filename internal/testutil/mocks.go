package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/udisondev/spawndirector/internal/model"
)

// MockRepository: in-memory источник конфигурации спавна для unit тестов.
// Не требует реального PostgreSQL.
type MockRepository struct {
	mu        sync.RWMutex
	profiles  map[string]*model.SpawnProfile
	templates []*model.MutationTemplate
	err       error
	loads     int
}

// NewMockRepository создаёт MockRepository с заданными профилями.
func NewMockRepository(profiles ...*model.SpawnProfile) *MockRepository {
	m := &MockRepository{profiles: make(map[string]*model.SpawnProfile)}
	for _, p := range profiles {
		m.profiles[p.AreaResRef] = p
	}
	return m
}

// PutProfile добавляет или заменяет профиль.
func (m *MockRepository) PutProfile(p *model.SpawnProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.AreaResRef] = p
}

// RemoveProfile удаляет профиль зоны.
func (m *MockRepository) RemoveProfile(area string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, area)
}

// SetTemplates заменяет каталог мутаций.
func (m *MockRepository) SetTemplates(templates ...*model.MutationTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = templates
}

// FailWith заставляет все методы возвращать err. nil снимает ошибку.
func (m *MockRepository) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ProfileLoads возвращает число вызовов LoadProfile.
func (m *MockRepository) ProfileLoads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// LoadProfile возвращает профиль зоны или nil, nil.
func (m *MockRepository) LoadProfile(_ context.Context, area string) (*model.SpawnProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles[area], nil
}

// LoadActiveProfiles возвращает активные профили, отсортированные по зоне.
func (m *MockRepository) LoadActiveProfiles(_ context.Context) ([]*model.SpawnProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []*model.SpawnProfile
	for _, p := range m.profiles {
		if p.Active {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *model.SpawnProfile) int {
		return cmp.Compare(a.AreaResRef, b.AreaResRef)
	})
	return out, nil
}

// LoadMutationTemplates возвращает каталог мутаций.
func (m *MockRepository) LoadMutationTemplates(_ context.Context) ([]*model.MutationTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.templates), nil
}
