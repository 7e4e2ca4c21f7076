package hal

import (
	"unsafe"

	"github.com/spaghettifunk/avenir/engine/math"
)

const (
	// MaxObjects is the instance capacity of the per-frame instance region.
	MaxObjects = 1_000_000
	// MaxLights is the light capacity of the uniform block.
	MaxLights = 32
)

// Light is one point light as the fragment stage sees it. The explicit
// padding keeps the layout identical between Go and the shader's std140
// rules: 32 bytes, 16-byte aligned.
type Light struct {
	Position  math.Vec3
	_pad0     float32
	Colour    math.Vec3
	Intensity float32
}

// NewLight returns a light at position with the given colour and intensity.
func NewLight(position, colour math.Vec3, intensity float32) Light {
	return Light{Position: position, Colour: colour, Intensity: intensity}
}

// UniformArgs is the per-frame uniform block. Field order and padding mirror
// the shader's uniform struct exactly; changing one side requires changing
// the other.
type UniformArgs struct {
	Projection    math.Mat4
	View          math.Mat4
	AmbientColour math.Vec4
	LightCount    uint32
	_pad0         [3]uint32
	Lights        [MaxLights]Light
}

// DrawIndexedCommand is the 20-byte indexed indirect draw record consumed by
// DrawIndexedIndirect.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
}

const (
	// UniformSize is the byte size of the uniform region of a frame slot.
	UniformSize = uint64(unsafe.Sizeof(UniformArgs{}))
	// InstanceSize is the byte size of one instance model matrix.
	InstanceSize = uint64(unsafe.Sizeof(math.Mat4{}))
	// InstancesSize is the byte size of the instance region of a frame slot.
	InstancesSize = MaxObjects * InstanceSize
	// IndirectSize is the byte size of the indirect region of a frame slot.
	IndirectSize = uint64(unsafe.Sizeof(DrawIndexedCommand{}))
)

// toBytes views a struct as its raw bytes for a mapped-range copy.
func toBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}

func uniformBytes(u *UniformArgs) []byte {
	return toBytes(unsafe.Pointer(u), int(UniformSize))
}

func instanceBytes(models []math.Mat4) []byte {
	if len(models) == 0 {
		return nil
	}
	return toBytes(unsafe.Pointer(&models[0]), len(models)*int(InstanceSize))
}

func indirectBytes(cmd *DrawIndexedCommand) []byte {
	return toBytes(unsafe.Pointer(cmd), int(IndirectSize))
}

// VertexBytes exposes the raw bytes of a vertex slice for geometry uploads.
func VertexBytes(vertices []math.Vertex3D) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return toBytes(unsafe.Pointer(&vertices[0]), len(vertices)*int(unsafe.Sizeof(vertices[0])))
}

// IndexBytes exposes the raw bytes of an index slice for geometry uploads.
func IndexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return toBytes(unsafe.Pointer(&indices[0]), len(indices)*4)
}

// Vertex3DStride is the packed byte stride of one vertex.
const Vertex3DStride = uint32(unsafe.Sizeof(math.Vertex3D{}))
