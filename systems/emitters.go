// Package systems drives scripted changes to a fluid simulation between
// solver steps.
package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/stablefluids/components"
	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
)

// EmitterSystem stores scripted sources as entities and injects their
// density and velocity into a simulation each tick.
type EmitterSystem struct {
	world  *ecs.World
	mapper *ecs.Map5[components.Position, components.Emission, components.Spin, components.Lifetime, components.Label]
	filter *ecs.Filter5[components.Position, components.Emission, components.Spin, components.Lifetime, components.Label]
	labels *ecs.Map1[components.Label]

	defs     []config.EmitterConfig
	count    int
	toRemove []ecs.Entity
}

// NewEmitterSystem creates an empty system that spawns defs on Spawn.
func NewEmitterSystem(defs []config.EmitterConfig) *EmitterSystem {
	world := ecs.NewWorld()
	return &EmitterSystem{
		world:  world,
		mapper: ecs.NewMap5[components.Position, components.Emission, components.Spin, components.Lifetime, components.Label](world),
		filter: ecs.NewFilter5[components.Position, components.Emission, components.Spin, components.Lifetime, components.Label](world),
		labels: ecs.NewMap1[components.Label](world),
		defs:   defs,
	}
}

// Spawn creates one entity per configured emitter.
func (s *EmitterSystem) Spawn() {
	for _, def := range s.defs {
		s.Add(def)
	}
}

// Add creates an emitter entity from def.
func (s *EmitterSystem) Add(def config.EmitterConfig) ecs.Entity {
	pos := components.Position{X: float32(def.X), Y: float32(def.Y)}
	em := components.Emission{Density: float32(def.Density), VX: float32(def.VX), VY: float32(def.VY)}
	spin := components.Spin{Rate: float32(def.Spin)}
	life := components.Lifetime{Remaining: float32(def.Lifetime), Finite: def.Lifetime > 0}
	label := components.Label{Name: def.Name}

	s.count++
	return s.mapper.NewEntity(&pos, &em, &spin, &life, &label)
}

// Count returns the number of live emitters.
func (s *EmitterSystem) Count() int {
	return s.count
}

// Reset removes every emitter and spawns the configured set again.
func (s *EmitterSystem) Reset() {
	s.toRemove = s.toRemove[:0]
	query := s.filter.Query()
	for query.Next() {
		s.toRemove = append(s.toRemove, query.Entity())
	}
	s.removeCollected()
	s.Spawn()
}

// Update injects every emitter into sim, advances spin and expires
// emitters whose lifetime ran out. It returns the density injected.
func (s *EmitterSystem) Update(sim *fluid.Simulation, dt float32) float32 {
	var injected float32
	s.toRemove = s.toRemove[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, em, spin, life, _ := query.Get()

		x := gridCell(pos.X, sim.N)
		y := gridCell(pos.Y, sim.N)
		if sim.AddDensity(x, y, em.Density) {
			injected += em.Density
		}
		vx, vy := rotate(em.VX, em.VY, spin.Angle)
		sim.AddVelocity(x, y, vx, vy)

		spin.Angle = normalizeAngle(spin.Angle + spin.Rate*dt)

		if life.Finite {
			life.Remaining -= dt
			if life.Remaining <= 0 {
				s.toRemove = append(s.toRemove, query.Entity())
			}
		}
	}

	// Remove after iteration; the world is locked while a query is open.
	for _, e := range s.toRemove {
		slog.Debug("emitter expired", "name", s.labels.Get(e).Name)
	}
	s.removeCollected()

	return injected
}

func (s *EmitterSystem) removeCollected() {
	for _, e := range s.toRemove {
		s.world.RemoveEntity(e)
		s.count--
	}
	s.toRemove = s.toRemove[:0]
}
