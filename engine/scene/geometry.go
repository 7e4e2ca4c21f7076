package scene

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/renderer/metadata"
)

/**
 * @brief Generates a cube geometry: 4 vertices per face with per-face
 * normals, 6 indices per face.
 */
func NewCubeGeometry(name string, size float32) *metadata.Geometry {
	if size == 0 {
		core.LogWarn("Size must be nonzero. Defaulting to one.")
		size = 1.0
	}

	half := size * 0.5
	minX, minY, minZ := -half, -half, -half
	maxX, maxY, maxZ := half, half, half

	verts := make([]math.Vertex3D, 4*6)

	// Front face
	verts[(0*4)+0].Position = math.NewVec3(minX, minY, maxZ)
	verts[(0*4)+1].Position = math.NewVec3(maxX, maxY, maxZ)
	verts[(0*4)+2].Position = math.NewVec3(minX, maxY, maxZ)
	verts[(0*4)+3].Position = math.NewVec3(maxX, minY, maxZ)
	for i := 0; i < 4; i++ {
		verts[(0*4)+i].Normal = math.NewVec3(0.0, 0.0, 1.0)
	}

	// Back face
	verts[(1*4)+0].Position = math.NewVec3(maxX, minY, minZ)
	verts[(1*4)+1].Position = math.NewVec3(minX, maxY, minZ)
	verts[(1*4)+2].Position = math.NewVec3(maxX, maxY, minZ)
	verts[(1*4)+3].Position = math.NewVec3(minX, minY, minZ)
	for i := 0; i < 4; i++ {
		verts[(1*4)+i].Normal = math.NewVec3(0.0, 0.0, -1.0)
	}

	// Left face
	verts[(2*4)+0].Position = math.NewVec3(minX, minY, minZ)
	verts[(2*4)+1].Position = math.NewVec3(minX, maxY, maxZ)
	verts[(2*4)+2].Position = math.NewVec3(minX, maxY, minZ)
	verts[(2*4)+3].Position = math.NewVec3(minX, minY, maxZ)
	for i := 0; i < 4; i++ {
		verts[(2*4)+i].Normal = math.NewVec3(-1.0, 0.0, 0.0)
	}

	// Right face
	verts[(3*4)+0].Position = math.NewVec3(maxX, minY, maxZ)
	verts[(3*4)+1].Position = math.NewVec3(maxX, maxY, minZ)
	verts[(3*4)+2].Position = math.NewVec3(maxX, maxY, maxZ)
	verts[(3*4)+3].Position = math.NewVec3(maxX, minY, minZ)
	for i := 0; i < 4; i++ {
		verts[(3*4)+i].Normal = math.NewVec3(1.0, 0.0, 0.0)
	}

	// Bottom face
	verts[(4*4)+0].Position = math.NewVec3(maxX, minY, maxZ)
	verts[(4*4)+1].Position = math.NewVec3(minX, minY, minZ)
	verts[(4*4)+2].Position = math.NewVec3(maxX, minY, minZ)
	verts[(4*4)+3].Position = math.NewVec3(minX, minY, maxZ)
	for i := 0; i < 4; i++ {
		verts[(4*4)+i].Normal = math.NewVec3(0.0, -1.0, 0.0)
	}

	// Top face
	verts[(5*4)+0].Position = math.NewVec3(minX, maxY, maxZ)
	verts[(5*4)+1].Position = math.NewVec3(maxX, maxY, minZ)
	verts[(5*4)+2].Position = math.NewVec3(minX, maxY, minZ)
	verts[(5*4)+3].Position = math.NewVec3(maxX, maxY, maxZ)
	for i := 0; i < 4; i++ {
		verts[(5*4)+i].Normal = math.NewVec3(0.0, 1.0, 0.0)
	}

	colourFromPosition(verts, math.NewVec3(half, half, half))

	indices := make([]uint32, 6*6)
	for i := 0; i < 6; i++ {
		vOffset := i * 4
		iOffset := i * 6
		indices[iOffset+0] = uint32(vOffset + 0)
		indices[iOffset+1] = uint32(vOffset + 1)
		indices[iOffset+2] = uint32(vOffset + 2)
		indices[iOffset+3] = uint32(vOffset + 0)
		indices[iOffset+4] = uint32(vOffset + 3)
		indices[iOffset+5] = uint32(vOffset + 1)
	}

	return metadata.NewGeometry(name, verts, indices)
}

/**
 * @brief Generates a UV sphere geometry with the given number of rings
 * (latitude divisions) and sectors (longitude divisions).
 */
func NewSphereGeometry(name string, radius float32, rings, sectors uint32) *metadata.Geometry {
	if radius == 0 {
		core.LogWarn("Radius must be nonzero. Defaulting to one.")
		radius = 1.0
	}
	if rings < 2 {
		core.LogWarn("Rings must be at least two. Defaulting to two.")
		rings = 2
	}
	if sectors < 3 {
		core.LogWarn("Sectors must be at least three. Defaulting to three.")
		sectors = 3
	}

	verts := make([]math.Vertex3D, 0, (rings+1)*(sectors+1))
	for ring := uint32(0); ring <= rings; ring++ {
		phi := math.K_PI * float32(ring) / float32(rings)
		y := math32.Cos(phi)
		ringRadius := math32.Sin(phi)
		for sector := uint32(0); sector <= sectors; sector++ {
			theta := math.K_PI_2 * float32(sector) / float32(sectors)
			normal := math.NewVec3(ringRadius*math32.Cos(theta), y, ringRadius*math32.Sin(theta))
			verts = append(verts, math.Vertex3D{
				Position: normal.MulScalar(radius),
				Normal:   normal,
			})
		}
	}
	colourFromPosition(verts, math.NewVec3(radius, radius, radius))

	indices := make([]uint32, 0, rings*sectors*6)
	for ring := uint32(0); ring < rings; ring++ {
		for sector := uint32(0); sector < sectors; sector++ {
			i0 := ring*(sectors+1) + sector
			i1 := i0 + 1
			i2 := i0 + sectors + 1
			i3 := i2 + 1
			indices = append(indices, i0, i1, i2, i1, i3, i2)
		}
	}

	return metadata.NewGeometry(name, verts, indices)
}

/**
 * @brief Generates a cone geometry with its apex up and its base circle
 * down, both centered on the origin.
 */
func NewConeGeometry(name string, radius, height float32, segments uint32) *metadata.Geometry {
	if radius == 0 {
		core.LogWarn("Radius must be nonzero. Defaulting to one.")
		radius = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if segments < 3 {
		core.LogWarn("Segments must be at least three. Defaulting to three.")
		segments = 3
	}

	halfHeight := height * 0.5
	segmentAngle := math.K_PI_2 / float32(segments)

	verts := make([]math.Vertex3D, 0, segments*3+segments+1)
	indices := make([]uint32, 0, segments*6)

	// Side: one triangle per segment, apex duplicated so each copy carries
	// the slant normal at its segment midpoint.
	for segment := uint32(0); segment < segments; segment++ {
		theta0 := segmentAngle * float32(segment)
		theta1 := segmentAngle * float32(segment+1)
		mid := (theta0 + theta1) * 0.5

		base := uint32(len(verts))
		verts = append(verts,
			math.Vertex3D{
				Position: math.NewVec3(0.0, halfHeight, 0.0),
				Normal:   sideNormal(mid, radius, height),
			},
			math.Vertex3D{
				Position: math.NewVec3(radius*math32.Cos(theta0), -halfHeight, radius*math32.Sin(theta0)),
				Normal:   sideNormal(theta0, radius, height),
			},
			math.Vertex3D{
				Position: math.NewVec3(radius*math32.Cos(theta1), -halfHeight, radius*math32.Sin(theta1)),
				Normal:   sideNormal(theta1, radius, height),
			},
		)
		indices = append(indices, base, base+2, base+1)
	}

	// Base: a fan around the center vertex, all facing down.
	down := math.NewVec3(0.0, -1.0, 0.0)
	center := uint32(len(verts))
	verts = append(verts, math.Vertex3D{
		Position: math.NewVec3(0.0, -halfHeight, 0.0),
		Normal:   down,
	})
	for segment := uint32(0); segment < segments; segment++ {
		theta := segmentAngle * float32(segment)
		verts = append(verts, math.Vertex3D{
			Position: math.NewVec3(radius*math32.Cos(theta), -halfHeight, radius*math32.Sin(theta)),
			Normal:   down,
		})
	}
	for segment := uint32(0); segment < segments; segment++ {
		next := (segment + 1) % segments
		indices = append(indices, center, center+1+segment, center+1+next)
	}

	colourFromPosition(verts, math.NewVec3(radius, halfHeight, radius))

	return metadata.NewGeometry(name, verts, indices)
}

// sideNormal is the outward slant normal of a cone side at angle theta.
func sideNormal(theta, radius, height float32) math.Vec3 {
	return math.NewVec3(height*math32.Cos(theta), radius, height*math32.Sin(theta)).Normalized()
}

// colourFromPosition colours each vertex from its position normalized into
// the unit cube: an axis at -half maps to 0, at +half to 1.
func colourFromPosition(verts []math.Vertex3D, half math.Vec3) {
	for i := range verts {
		p := verts[i].Position
		verts[i].Colour = math.NewVec3(
			(p.X/half.X+1.0)*0.5,
			(p.Y/half.Y+1.0)*0.5,
			(p.Z/half.Z+1.0)*0.5,
		)
	}
}
