package services

import (
	"fmt"
	"sync"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// SceneAssembler turns a catalog into renderer-agnostic entity descriptors
type SceneAssembler struct {
	preloader providers.AssetPreloader
}

// NewSceneAssembler creates an assembler. preloader may be nil.
func NewSceneAssembler(preloader providers.AssetPreloader) *SceneAssembler {
	return &SceneAssembler{preloader: preloader}
}

// Assemble emits one descriptor per target index in catalog order.
// Solo entities carry one visible model; shared entities carry every model hidden.
func (a *SceneAssembler) Assemble(catalog *entities.Catalog) []entities.EntityDescriptor {
	groups := catalog.Groups()
	descriptors := make([]entities.EntityDescriptor, 0, len(groups))

	var assets []string
	assetSeen := make(map[string]struct{})

	for _, group := range groups {
		shared := group.IsShared()
		entity := entities.EntityDescriptor{
			TargetIndex: group.TargetIndex,
			Shared:      shared,
			Models:      make([]entities.ModelDescriptor, 0, len(group.Products)),
		}
		for _, p := range group.Products {
			entity.Models = append(entity.Models, modelDescriptor(p, !shared))
			if _, ok := assetSeen[p.Model.Path]; !ok {
				assetSeen[p.Model.Path] = struct{}{}
				assets = append(assets, p.Model.Path)
			}
		}
		descriptors = append(descriptors, entity)
	}

	if a.preloader != nil && len(assets) > 0 {
		a.preloader.Preload(assets)
	}

	observability.Component("scene").Debug().
		Int("entities", len(descriptors)).
		Int("assets", len(assets)).
		Msg("scene assembled")

	return descriptors
}

func modelDescriptor(p entities.Product, visible bool) entities.ModelDescriptor {
	md := entities.ModelDescriptor{
		ProductID: p.ID,
		AssetRef:  p.Model.Path,
		Transform: entities.Transform{
			Position: p.Model.Position,
			Rotation: p.Model.Rotation,
			Scale:    p.Model.Scale,
		},
		Visible: visible,
	}
	if p.Model.Animation.Enabled {
		anim := p.Model.Animation
		md.Animation = &anim
	}
	return md
}

// SceneGraph owns model visibility for assembled entities.
// At most one model is visible in a shared entity.
type SceneGraph struct {
	mu       sync.RWMutex
	entities []entities.EntityDescriptor
	index    map[int]int
}

func NewSceneGraph(descriptors []entities.EntityDescriptor) *SceneGraph {
	g := &SceneGraph{
		entities: make([]entities.EntityDescriptor, len(descriptors)),
		index:    make(map[int]int, len(descriptors)),
	}
	for i, d := range descriptors {
		d.Models = append([]entities.ModelDescriptor(nil), d.Models...)
		g.entities[i] = d
		g.index[d.TargetIndex] = i
	}
	return g
}

// ShowOnly makes productID the single visible model of its entity
func (g *SceneGraph) ShowOnly(targetIndex int, productID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.index[targetIndex]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("no entity for target index %d", targetIndex))
	}
	entity := &g.entities[pos]

	found := false
	for _, m := range entity.Models {
		if m.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return apperrors.NewNotFoundError(fmt.Sprintf("product %q is not anchored to target index %d", productID, targetIndex))
	}

	for i := range entity.Models {
		entity.Models[i].Visible = entity.Models[i].ProductID == productID
	}
	return nil
}

// HideAll hides every model of a shared entity. Solo entities are left unchanged.
func (g *SceneGraph) HideAll(targetIndex int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.index[targetIndex]
	if !ok || !g.entities[pos].Shared {
		return
	}
	for i := range g.entities[pos].Models {
		g.entities[pos].Models[i].Visible = false
	}
}

// VisibleProduct returns the product whose model is visible on targetIndex
func (g *SceneGraph) VisibleProduct(targetIndex int) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pos, ok := g.index[targetIndex]
	if !ok {
		return "", false
	}
	for _, m := range g.entities[pos].Models {
		if m.Visible {
			return m.ProductID, true
		}
	}
	return "", false
}

// Entity returns a copy of the descriptor for targetIndex
func (g *SceneGraph) Entity(targetIndex int) (entities.EntityDescriptor, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pos, ok := g.index[targetIndex]
	if !ok {
		return entities.EntityDescriptor{}, false
	}
	d := g.entities[pos]
	d.Models = append([]entities.ModelDescriptor(nil), d.Models...)
	return d, true
}

// Entities returns a copy of all descriptors in assembly order
func (g *SceneGraph) Entities() []entities.EntityDescriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]entities.EntityDescriptor, len(g.entities))
	for i, d := range g.entities {
		d.Models = append([]entities.ModelDescriptor(nil), d.Models...)
		out[i] = d
	}
	return out
}
