package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/avenir/engine/math"
)

func assertValidMesh(t *testing.T, vertices []math.Vertex3D, indices []uint32) {
	t.Helper()
	require.NotEmpty(t, vertices)
	require.NotEmpty(t, indices)
	assert.Zero(t, len(indices)%3, "index count must be a whole number of triangles")
	for _, index := range indices {
		assert.Less(t, index, uint32(len(vertices)))
	}
	for i, v := range vertices {
		assert.InDelta(t, 1.0, v.Normal.Length(), 1e-4, "vertex %d normal must be unit length", i)
		for _, c := range []float32{v.Colour.X, v.Colour.Y, v.Colour.Z} {
			assert.GreaterOrEqual(t, c, float32(0))
			assert.LessOrEqual(t, c, float32(1))
		}
	}
}

func TestNewCubeGeometry(t *testing.T) {
	g := NewCubeGeometry("cube", 2.0)

	assert.Equal(t, "cube", g.Name)
	assert.Len(t, g.Vertices, 24)
	assert.Len(t, g.Indices, 36)
	assertValidMesh(t, g.Vertices, g.Indices)

	assert.Equal(t, math.NewVec3(-1, -1, -1), g.MinExtents)
	assert.Equal(t, math.NewVec3(1, 1, 1), g.MaxExtents)
	assert.Equal(t, math.NewVec3Zero(), g.Center)
}

func TestNewCubeGeometryDefaultsZeroSize(t *testing.T) {
	g := NewCubeGeometry("cube", 0)

	assert.Equal(t, math.NewVec3(-0.5, -0.5, -0.5), g.MinExtents)
	assert.Equal(t, math.NewVec3(0.5, 0.5, 0.5), g.MaxExtents)
}

func TestNewSphereGeometry(t *testing.T) {
	const radius = 3.0
	g := NewSphereGeometry("sphere", radius, 8, 16)

	assert.Len(t, g.Vertices, 9*17)
	assert.Len(t, g.Indices, 8*16*6)
	assertValidMesh(t, g.Vertices, g.Indices)

	for i, v := range g.Vertices {
		assert.InDelta(t, radius, v.Position.Length(), 1e-4, "vertex %d must sit on the sphere", i)
	}
}

func TestNewSphereGeometryClampsDivisions(t *testing.T) {
	g := NewSphereGeometry("sphere", 1, 0, 0)

	// Clamped to 2 rings and 3 sectors.
	assert.Len(t, g.Vertices, 3*4)
	assert.Len(t, g.Indices, 2*3*6)
}

func TestNewConeGeometry(t *testing.T) {
	g := NewConeGeometry("cone", 1.0, 2.0, 12)

	assertValidMesh(t, g.Vertices, g.Indices)
	// 3 side vertices per segment, then the base center and ring.
	assert.Len(t, g.Vertices, 12*3+1+12)
	assert.Len(t, g.Indices, 12*6)

	assert.InDelta(t, -1.0, g.MinExtents.Y, 1e-6)
	assert.InDelta(t, 1.0, g.MaxExtents.Y, 1e-6)
}

func TestCubeNormalsAgreeWithWinding(t *testing.T) {
	cube := NewCubeGeometry("cube", 2.0)

	// A flat-shaded cube's authored normals must equal the face normals
	// derived from the index winding; a disagreement means a flipped face.
	regenerated := make([]math.Vertex3D, len(cube.Vertices))
	copy(regenerated, cube.Vertices)
	for i := range regenerated {
		regenerated[i].Normal = math.NewVec3Zero()
	}
	math.GeometryGenerateNormals(regenerated, cube.Indices)

	for i := range cube.Vertices {
		assert.True(t, math.Vertex3dEqual(cube.Vertices[i], regenerated[i]), "vertex %d", i)
	}
}

func TestGeometriesGetDistinctIDs(t *testing.T) {
	a := NewCubeGeometry("a", 1)
	b := NewCubeGeometry("b", 1)
	assert.NotEqual(t, a.ID, b.ID)
}
