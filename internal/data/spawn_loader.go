package data

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/spawndirector/internal/model"
)

// Repository serves spawn configuration from a YAML catalog held in memory.
// It implements the director's configuration repository.
type Repository struct {
	path string

	mu        sync.RWMutex
	profiles  map[string]*model.SpawnProfile
	templates []*model.MutationTemplate
}

// LoadFile reads and parses a YAML catalog.
func LoadFile(path string) (*Repository, error) {
	r := &Repository{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse builds a repository from YAML bytes. Reload is a no-op for it.
func Parse(raw []byte) (*Repository, error) {
	profiles, templates, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &Repository{profiles: profiles, templates: templates}, nil
}

// Reload re-reads the catalog file. On error the previous catalog is kept.
func (r *Repository) Reload() error {
	if r.path == "" {
		return nil
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("reading spawn catalog %s: %w", r.path, err)
	}
	profiles, templates, err := decode(raw)
	if err != nil {
		return fmt.Errorf("parsing spawn catalog %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.profiles, r.templates = profiles, templates
	r.mu.Unlock()

	slog.Info("spawn catalog loaded", "path", r.path, "profiles", len(profiles), "templates", len(templates))
	return nil
}

func decode(raw []byte) (map[string]*model.SpawnProfile, []*model.MutationTemplate, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("decoding yaml: %w", err)
	}

	seq := &ids{next: c.maxID()}

	templates := make([]*model.MutationTemplate, 0, len(c.Templates))
	for _, td := range c.Templates {
		t, err := td.toModel(seq)
		if err != nil {
			return nil, nil, err
		}
		templates = append(templates, t)
	}

	profiles := make(map[string]*model.SpawnProfile, len(c.Profiles))
	for _, pd := range c.Profiles {
		p, err := pd.toModel(seq)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := profiles[p.AreaResRef]; dup {
			return nil, nil, fmt.Errorf("area %s: duplicate profile: %w", p.AreaResRef, model.ErrInvalidConfig)
		}
		profiles[p.AreaResRef] = p
	}
	return profiles, templates, nil
}

// LoadProfile returns the area's profile, or nil, nil.
func (r *Repository) LoadProfile(_ context.Context, areaResRef string) (*model.SpawnProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[areaResRef], nil
}

// LoadActiveProfiles returns active profiles ordered by area.
func (r *Repository) LoadActiveProfiles(_ context.Context) ([]*model.SpawnProfile, error) {
	return r.profilesWhere(func(p *model.SpawnProfile) bool { return p.Active }), nil
}

// Profiles returns every profile of the catalog, active or not, ordered by area.
func (r *Repository) Profiles() []*model.SpawnProfile {
	return r.profilesWhere(func(*model.SpawnProfile) bool { return true })
}

func (r *Repository) profilesWhere(keep func(*model.SpawnProfile) bool) []*model.SpawnProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.SpawnProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *model.SpawnProfile) int {
		return cmp.Compare(a.AreaResRef, b.AreaResRef)
	})
	return out
}

// LoadMutationTemplates returns the mutation catalog in file order.
func (r *Repository) LoadMutationTemplates(_ context.Context) ([]*model.MutationTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.templates), nil
}
