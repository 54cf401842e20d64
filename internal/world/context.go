package world

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/udisondev/spawndirector/internal/condition"
)

// Bands are the population thresholds for condition.Context.Band.
// A population of zero is always BandEmpty.
type Bands struct {
	Low    int
	Medium int
	High   int
}

// DefaultBands returns the default population thresholds.
func DefaultBands() Bands {
	return Bands{Low: 1, Medium: 20, High: 50}
}

// Classify сопоставляет число игроков с диапазоном.
func (b Bands) Classify(population int) string {
	switch {
	case population >= b.High:
		return condition.BandHigh
	case population >= b.Medium:
		return condition.BandMedium
	case population >= b.Low && population > 0:
		return condition.BandLow
	default:
		return condition.BandEmpty
	}
}

// ContextProvider builds condition snapshots from a World.
type ContextProvider struct {
	world    *World
	clock    clock.Clock
	bands    Bands
	location *time.Location
}

// NewContextProvider creates a provider. Time of day and weekday are read
// in loc; nil means UTC.
func NewContextProvider(w *World, clk clock.Clock, bands Bands, loc *time.Location) *ContextProvider {
	if loc == nil {
		loc = time.UTC
	}
	return &ContextProvider{world: w, clock: clk, bands: bands, location: loc}
}

// Snapshot implements spawn.ContextProvider.
func (p *ContextProvider) Snapshot(ctx context.Context, area string) (condition.Context, error) {
	if err := ctx.Err(); err != nil {
		return condition.Context{}, fmt.Errorf("snapshotting area %s: %w", area, err)
	}

	population := p.world.Population()
	return condition.Context{
		AreaResRef:  area,
		Now:         p.clock.Now().In(p.location),
		Population:  population,
		AreaPlayers: p.world.AreaPlayers(area),
		Band:        p.bands.Classify(population),
		Flags:       p.world.Flags(area),
	}, nil
}
