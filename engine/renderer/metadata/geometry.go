package metadata

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/avenir/engine/math"
)

/** @brief The name of the default geometry. */
const DefaultGeometryName string = "default"

/**
 * @brief Represents actual geometry in the world: an indexed triangle mesh
 * ready for upload to the GPU. All objects in a scene share one geometry
 * and differ only by their per-instance transform.
 */
type Geometry struct {
	/** @brief The geometry identifier. */
	ID uuid.UUID
	/** @brief The geometry generation. Incremented every time the geometry changes. */
	Generation uint16
	/** @brief The geometry name. */
	Name string
	/** @brief An array of vertices. */
	Vertices []math.Vertex3D
	/** @brief An array of indices into Vertices, three per triangle. */
	Indices []uint32
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The minimum extents of the geometry in local coordinates. */
	MinExtents math.Vec3
	/** @brief The maximum extents of the geometry in local coordinates. */
	MaxExtents math.Vec3
}

/**
 * @brief Creates a geometry from vertex and index arrays. The center and
 * extents are derived from the vertex positions. An empty name falls back
 * to the default geometry name.
 */
func NewGeometry(name string, vertices []math.Vertex3D, indices []uint32) *Geometry {
	if name == "" {
		name = DefaultGeometryName
	}
	g := &Geometry{
		ID:       uuid.New(),
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	g.recalculateExtents()
	return g
}

func (g *Geometry) recalculateExtents() {
	if len(g.Vertices) == 0 {
		g.Center = math.NewVec3Zero()
		g.MinExtents = math.NewVec3Zero()
		g.MaxExtents = math.NewVec3Zero()
		return
	}
	min := g.Vertices[0].Position
	max := g.Vertices[0].Position
	for _, v := range g.Vertices[1:] {
		p := v.Position
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	g.MinExtents = min
	g.MaxExtents = max
	g.Center = min.Add(max).MulScalar(0.5)
}
