package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

type recordingPreloader struct {
	paths [][]string
}

func (p *recordingPreloader) Preload(paths []string) {
	p.paths = append(p.paths, paths)
}

func TestSceneAssembler_Assemble(t *testing.T) {
	catalog := sharedCatalog()
	catalog.Products[0].Model.Animation = entities.Animation{Enabled: true, Clip: "Spin", Loop: true}
	catalog.Products[0].Model.Rotation = entities.Vec3{Y: 90}
	catalog.Products[2].Model.Path = catalog.Products[0].Model.Path
	preloader := &recordingPreloader{}

	descriptors := services.NewSceneAssembler(preloader).Assemble(catalog)

	require.Len(t, descriptors, 2)

	shared := descriptors[0]
	assert.Equal(t, 0, shared.TargetIndex)
	assert.True(t, shared.Shared)
	require.Len(t, shared.Models, 2)
	assert.Equal(t, "p1", shared.Models[0].ProductID)
	assert.Equal(t, "p2", shared.Models[1].ProductID)
	for _, m := range shared.Models {
		assert.False(t, m.Visible)
	}
	require.NotNil(t, shared.Models[0].Animation)
	assert.Equal(t, "Spin", shared.Models[0].Animation.Clip)
	assert.Equal(t, 90.0, shared.Models[0].Transform.Rotation.Y)
	assert.Nil(t, shared.Models[1].Animation)

	solo := descriptors[1]
	assert.Equal(t, 1, solo.TargetIndex)
	assert.False(t, solo.Shared)
	require.Len(t, solo.Models, 1)
	assert.True(t, solo.Models[0].Visible)

	require.Len(t, preloader.paths, 1)
	assert.Equal(t, []string{"models/p1.glb", "models/p2.glb"}, preloader.paths[0])
}

func TestSceneAssembler_OrderFollowsFirstAppearance(t *testing.T) {
	catalog := &entities.Catalog{Products: []entities.Product{
		product("a", "A", 2),
		product("b", "B", 0),
		product("c", "C", 2),
	}}

	descriptors := services.NewSceneAssembler(nil).Assemble(catalog)

	require.Len(t, descriptors, 2)
	assert.Equal(t, 2, descriptors[0].TargetIndex)
	assert.Equal(t, "a", descriptors[0].Models[0].ProductID)
	assert.Equal(t, "c", descriptors[0].Models[1].ProductID)
	assert.Equal(t, 0, descriptors[1].TargetIndex)
}

func TestSceneGraph_SingleVisibleModel(t *testing.T) {
	graph := services.NewSceneGraph(services.NewSceneAssembler(nil).Assemble(sharedCatalog()))

	_, visible := graph.VisibleProduct(0)
	assert.False(t, visible)

	require.NoError(t, graph.ShowOnly(0, "p1"))
	require.NoError(t, graph.ShowOnly(0, "p2"))

	entity, ok := graph.Entity(0)
	require.True(t, ok)
	count := 0
	for _, m := range entity.Models {
		if m.Visible {
			count++
		}
	}
	assert.Equal(t, 1, count)
	id, _ := graph.VisibleProduct(0)
	assert.Equal(t, "p2", id)

	graph.HideAll(0)
	_, visible = graph.VisibleProduct(0)
	assert.False(t, visible)

	graph.HideAll(1)
	id, visible = graph.VisibleProduct(1)
	assert.True(t, visible)
	assert.Equal(t, "p3", id)
}

func TestSceneGraph_ShowOnlyRejectsForeignProducts(t *testing.T) {
	graph := services.NewSceneGraph(services.NewSceneAssembler(nil).Assemble(sharedCatalog()))

	err := graph.ShowOnly(0, "p3")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	err = graph.ShowOnly(7, "p1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, visible := graph.VisibleProduct(0)
	assert.False(t, visible)
}

func TestSceneGraph_CopiesDescriptors(t *testing.T) {
	descriptors := services.NewSceneAssembler(nil).Assemble(sharedCatalog())
	graph := services.NewSceneGraph(descriptors)

	require.NoError(t, graph.ShowOnly(0, "p1"))
	assert.False(t, descriptors[0].Models[0].Visible)

	snapshot := graph.Entities()
	snapshot[0].Models[0].Visible = false
	id, _ := graph.VisibleProduct(0)
	assert.Equal(t, "p1", id)
}
