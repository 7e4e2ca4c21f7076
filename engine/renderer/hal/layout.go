package hal

// AlignUp rounds value up to the next multiple of alignment. Alignment must
// be a power of two; zero leaves the value untouched.
func AlignUp(value, alignment uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// FrameLayout is the byte layout of one frame slot inside the shared
// per-frame data buffer. Every function here is pure arithmetic over the
// device's minimum uniform offset alignment; the same inputs always produce
// the same offsets.
//
// A slot packs three regions back to back, then pads the whole slot up to
// the alignment so every slot's uniform region starts aligned:
//
//	[ uniform | instances | indirect | pad ]
type FrameLayout struct {
	UniformSize   uint64
	InstancesSize uint64
	IndirectSize  uint64
	Alignment     uint64
	Stride        uint64
}

// NewFrameLayout computes the layout for the device alignment limit.
func NewFrameLayout(minUniformOffsetAlignment uint64) FrameLayout {
	l := FrameLayout{
		UniformSize:   UniformSize,
		InstancesSize: InstancesSize,
		IndirectSize:  IndirectSize,
		Alignment:     minUniformOffsetAlignment,
	}
	l.Stride = AlignUp(l.UniformSize+l.InstancesSize+l.IndirectSize, l.Alignment)
	return l
}

// UniformOffset is where slot's uniform region starts.
func (l FrameLayout) UniformOffset(slot int) uint64 {
	return uint64(slot) * l.Stride
}

// InstancesOffset is where slot's instance model region starts.
func (l FrameLayout) InstancesOffset(slot int) uint64 {
	return uint64(slot)*l.Stride + l.UniformSize
}

// IndirectOffset is where slot's indirect draw record starts.
func (l FrameLayout) IndirectOffset(slot int) uint64 {
	return uint64(slot)*l.Stride + l.UniformSize + l.InstancesSize
}

// TotalSize is the buffer size needed for the given number of slots.
func (l FrameLayout) TotalSize(slots int) uint64 {
	return uint64(slots) * l.Stride
}
