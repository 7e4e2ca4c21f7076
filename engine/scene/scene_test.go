package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func TestAddObjectAssignsDistinctIDs(t *testing.T) {
	s := NewScene()

	first, err := s.AddObject(math.TransformFromPosition(math.NewVec3(1, 0, 0)))
	require.NoError(t, err)
	second, err := s.AddObject(nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, s.Objects, 2)
	// A nil transform still yields a usable object at the origin.
	require.NotNil(t, second.Transform)
	assert.Equal(t, math.NewVec3Zero(), second.Transform.Position)
}

func TestAddObjectFailsPastCapacity(t *testing.T) {
	s := NewScene()
	s.Objects = make([]*Object, hal.MaxObjects)

	_, err := s.AddObject(nil)
	require.Error(t, err)

	var tooMany *hal.TooManyObjectsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, hal.MaxObjects, tooMany.Max)
	assert.Len(t, s.Objects, hal.MaxObjects)
}

func TestAddLightFailsPastCapacity(t *testing.T) {
	s := NewScene()
	for i := 0; i < hal.MaxLights; i++ {
		require.NoError(t, s.AddLight(hal.NewLight(math.NewVec3Zero(), math.NewVec3One(), 1.0)))
	}

	err := s.AddLight(hal.NewLight(math.NewVec3Zero(), math.NewVec3One(), 1.0))
	require.Error(t, err)

	var tooMany *hal.TooManyLightsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, hal.MaxLights, tooMany.Max)
	assert.Len(t, s.Lights, hal.MaxLights)
}

func TestPacketCarriesSceneState(t *testing.T) {
	s := NewScene()
	s.Camera.LookAt(math.NewVec3(0, 0, -10), math.NewVec3Zero())

	_, err := s.AddObject(math.TransformFromPosition(math.NewVec3(2, 0, 0)))
	require.NoError(t, err)
	_, err = s.AddObject(math.TransformFromPosition(math.NewVec3(-2, 0, 0)))
	require.NoError(t, err)
	require.NoError(t, s.AddLight(hal.NewLight(math.NewVec3(0, 5, 0), math.NewVec3(1, 1, 1), 10)))

	packet := s.Packet(0.016, 16.0/9.0)

	assert.Equal(t, 0.016, packet.DeltaTime)
	assert.Equal(t, s.Camera.View(), packet.View)
	assert.Equal(t, s.Camera.Projection(16.0/9.0), packet.Projection)
	assert.Equal(t, s.AmbientColour, packet.AmbientColour)
	require.Len(t, packet.Models, 2)
	assert.Equal(t, s.Objects[0].Transform.GetWorld(), packet.Models[0])
	assert.Equal(t, s.Objects[1].Transform.GetWorld(), packet.Models[1])
	require.Len(t, packet.Lights, 1)
	assert.Equal(t, float32(10), packet.Lights[0].Intensity)
}
