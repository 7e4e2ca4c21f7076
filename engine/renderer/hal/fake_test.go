package hal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// oplog records backend calls in order so tests can assert sequencing.
type oplog struct {
	entries []string
}

func (l *oplog) record(format string, args ...interface{}) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *oplog) indexOf(entry string) int {
	for i, e := range l.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

func (l *oplog) anyContains(sub string) bool {
	for _, e := range l.entries {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}

func (l *oplog) clear() {
	l.entries = nil
}

// requireOrder asserts that every entry is present and that they appear in
// the given order.
func requireOrder(t *testing.T, log *oplog, entries ...string) {
	t.Helper()
	last := -1
	for _, e := range entries {
		idx := log.indexOf(e)
		require.GreaterOrEqual(t, idx, 0, "missing op %q in log %v", e, log.entries)
		require.Greater(t, idx, last, "op %q out of order in log %v", e, log.entries)
		last = idx
	}
}

type acquireResult struct {
	image uint32
	err   error
}

// fakeDevice is an in-memory backend. Submitted work completes instantly:
// Submit signals the fence it was given, so a correctly sequenced driver
// never waits on an unsignaled fence. Waiting on one anyway is reported as
// an error to trip tests that break the sequence.
type fakeDevice struct {
	log    *oplog
	limits DeviceLimits

	queue  *fakeQueue
	nextID int

	created   map[string]int
	destroyed map[string]int

	failKind string
	failErr  error

	acquireScript []acquireResult
	submitScript  []error
	presentScript []error
	uploadErr     error
}

func newFakeDevice(log *oplog) *fakeDevice {
	d := &fakeDevice{
		log:       log,
		limits:    DeviceLimits{MinUniformBufferOffsetAlignment: 256},
		created:   map[string]int{},
		destroyed: map[string]int{},
	}
	d.queue = &fakeQueue{device: d}
	return d
}

func (d *fakeDevice) id() int {
	d.nextID++
	return d.nextID
}

// create applies failure injection and counts the resource kind.
func (d *fakeDevice) create(kind string) error {
	if d.failKind == kind {
		err := d.failErr
		if err == nil {
			err = fmt.Errorf("injected %s creation failure", kind)
		}
		return err
	}
	d.created[kind]++
	return nil
}

func (d *fakeDevice) destroy(kind string) {
	d.destroyed[kind]++
}

// requireBalanced asserts that every created resource of the given kinds was
// destroyed.
func (d *fakeDevice) requireBalanced(t *testing.T, kinds ...string) {
	t.Helper()
	for _, kind := range kinds {
		require.Equal(t, d.created[kind], d.destroyed[kind], "leaked %s: %d created, %d destroyed",
			kind, d.created[kind], d.destroyed[kind])
	}
}

func fenceID(f Fence) int {
	if f == nil {
		return -1
	}
	return f.(*fakeFence).id
}

func semID(s Semaphore) int {
	if s == nil {
		return -1
	}
	return s.(*fakeSemaphore).id
}

func bufID(b Buffer) int {
	if b == nil {
		return -1
	}
	return b.(*fakeBuffer).id
}

type fakeImage struct{ id int }
type fakeImageView struct{ id int }
type fakeFramebuffer struct{ id int }
type fakeRenderPass struct{ id int }
type fakeSemaphore struct{ id int }
type fakeShaderModule struct{ id int }
type fakeDescriptorSet struct{ id int }
type fakePipelineHandle struct {
	id   int
	desc GraphicsPipelineDesc
}

type fakeFence struct {
	id       int
	signaled bool
}

type fakeDescriptorSetLayout struct {
	id       int
	bindings []DescriptorBinding
}

type fakeDescriptorPool struct {
	id      int
	maxSets uint32
}

type fakePipelineLayout struct {
	id         int
	setLayouts []DescriptorSetLayout
}

func (d *fakeDevice) CreateSwapchain(surface Surface, config SwapchainConfig, oldSwapchain Swapchain) (Swapchain, error) {
	if err := d.create("swapchain"); err != nil {
		return nil, err
	}
	sc := &fakeSwapchain{device: d, id: d.id(), config: config}
	for i := uint32(0); i < config.ImageCount; i++ {
		sc.images = append(sc.images, &fakeImage{id: d.id()})
	}
	if oldSwapchain != nil {
		d.log.record("create_swapchain sc%d images=%d old=sc%d", sc.id, len(sc.images), oldSwapchain.(*fakeSwapchain).id)
	} else {
		d.log.record("create_swapchain sc%d images=%d", sc.id, len(sc.images))
	}
	return sc, nil
}

func (d *fakeDevice) CreateRenderPass(format Format) (RenderPass, error) {
	if err := d.create("render_pass"); err != nil {
		return nil, err
	}
	rp := &fakeRenderPass{id: d.id()}
	d.log.record("create_render_pass rp%d format=%s", rp.id, format)
	return rp, nil
}

func (d *fakeDevice) CreateImageView(image Image, format Format) (ImageView, error) {
	if err := d.create("image_view"); err != nil {
		return nil, err
	}
	return &fakeImageView{id: d.id()}, nil
}

func (d *fakeDevice) CreateFramebuffer(renderPass RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error) {
	if err := d.create("framebuffer"); err != nil {
		return nil, err
	}
	fb := &fakeFramebuffer{id: d.id()}
	d.log.record("create_framebuffer fb%d %dx%d", fb.id, extent.Width, extent.Height)
	return fb, nil
}

func (d *fakeDevice) CreateCommandPool(family QueueFamily) (CommandPool, error) {
	if err := d.create("command_pool"); err != nil {
		return nil, err
	}
	return &fakeCommandPool{device: d, id: d.id()}, nil
}

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	if err := d.create("semaphore"); err != nil {
		return nil, err
	}
	return &fakeSemaphore{id: d.id()}, nil
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	if err := d.create("fence"); err != nil {
		return nil, err
	}
	return &fakeFence{id: d.id(), signaled: signaled}, nil
}

func (d *fakeDevice) CreateBuffer(size uint64, usage BufferUsage) (Buffer, error) {
	if err := d.create("buffer"); err != nil {
		return nil, err
	}
	b := &fakeBuffer{device: d, id: d.id(), size: size, usage: usage, writes: map[uint64][]byte{}}
	d.log.record("create_buffer b%d size=%d", b.id, size)
	return b, nil
}

func (d *fakeDevice) CreateShaderModule(spirv []uint32) (ShaderModule, error) {
	if err := d.create("shader_module"); err != nil {
		return nil, err
	}
	m := &fakeShaderModule{id: d.id()}
	d.log.record("create_shader_module m%d", m.id)
	return m, nil
}

func (d *fakeDevice) CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error) {
	if err := d.create("descriptor_set_layout"); err != nil {
		return nil, err
	}
	return &fakeDescriptorSetLayout{id: d.id(), bindings: bindings}, nil
}

func (d *fakeDevice) CreateDescriptorPool(maxSets uint32, bindings []DescriptorBinding) (DescriptorPool, error) {
	if err := d.create("descriptor_pool"); err != nil {
		return nil, err
	}
	return &fakeDescriptorPool{id: d.id(), maxSets: maxSets}, nil
}

func (d *fakeDevice) AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error) {
	if err := d.create("descriptor_set"); err != nil {
		return nil, err
	}
	return &fakeDescriptorSet{id: d.id()}, nil
}

func (d *fakeDevice) UpdateDescriptorSet(set DescriptorSet, buffer Buffer, offset, size uint64) {
	d.log.record("update_set d%d buf=b%d off=%d size=%d", set.(*fakeDescriptorSet).id, bufID(buffer), offset, size)
}

func (d *fakeDevice) CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error) {
	if err := d.create("pipeline_layout"); err != nil {
		return nil, err
	}
	return &fakePipelineLayout{id: d.id(), setLayouts: setLayouts}, nil
}

func (d *fakeDevice) CreateGraphicsPipeline(desc GraphicsPipelineDesc) (PipelineHandle, error) {
	if err := d.create("pipeline"); err != nil {
		return nil, err
	}
	p := &fakePipelineHandle{id: d.id(), desc: desc}
	d.log.record("create_pipeline p%d stages=%d", p.id, len(desc.ShaderStages))
	return p, nil
}

func (d *fakeDevice) WaitForFence(fence Fence, timeoutNs uint64) error {
	f := fence.(*fakeFence)
	if !f.signaled {
		return fmt.Errorf("fence f%d waited while unsignaled", f.id)
	}
	d.log.record("wait_fence f%d", f.id)
	return nil
}

func (d *fakeDevice) ResetFence(fence Fence) error {
	f := fence.(*fakeFence)
	f.signaled = false
	d.log.record("reset_fence f%d", f.id)
	return nil
}

func (d *fakeDevice) Queue() Queue {
	return d.queue
}

func (d *fakeDevice) WaitIdle() error {
	d.log.record("wait_idle")
	return nil
}

func (d *fakeDevice) DestroyRenderPass(RenderPass) { d.destroy("render_pass") }

func (d *fakeDevice) DestroyImageView(ImageView) { d.destroy("image_view") }

func (d *fakeDevice) DestroyFramebuffer(Framebuffer) { d.destroy("framebuffer") }

func (d *fakeDevice) DestroySemaphore(Semaphore) { d.destroy("semaphore") }

func (d *fakeDevice) DestroyFence(Fence) { d.destroy("fence") }

func (d *fakeDevice) DestroyDescriptorSetLayout(DescriptorSetLayout) { d.destroy("descriptor_set_layout") }

func (d *fakeDevice) DestroyDescriptorPool(DescriptorPool) { d.destroy("descriptor_pool") }

func (d *fakeDevice) DestroyPipelineLayout(PipelineLayout) { d.destroy("pipeline_layout") }

func (d *fakeDevice) DestroyPipeline(PipelineHandle) { d.destroy("pipeline") }

func (d *fakeDevice) Destroy() {}

func (d *fakeDevice) DestroyShaderModule(module ShaderModule) {
	d.destroy("shader_module")
	d.log.record("destroy_shader_module m%d", module.(*fakeShaderModule).id)
}

type fakeSwapchain struct {
	device  *fakeDevice
	id      int
	config  SwapchainConfig
	images  []Image
	counter uint32
}

func (s *fakeSwapchain) Images() []Image {
	return s.images
}

func (s *fakeSwapchain) Acquire(timeoutNs uint64, signal Semaphore) (uint32, error) {
	if len(s.device.acquireScript) > 0 {
		next := s.device.acquireScript[0]
		s.device.acquireScript = s.device.acquireScript[1:]
		if next.err != nil {
			return 0, next.err
		}
		s.device.log.record("acquire image=%d signal=s%d", next.image, semID(signal))
		return next.image, nil
	}
	image := s.counter % uint32(len(s.images))
	s.counter++
	s.device.log.record("acquire image=%d signal=s%d", image, semID(signal))
	return image, nil
}

func (s *fakeSwapchain) Destroy() {
	s.device.destroy("swapchain")
	s.device.log.record("destroy_swapchain sc%d", s.id)
}

type fakeQueue struct {
	device *fakeDevice
}

func (q *fakeQueue) Submit(info SubmitInfo) error {
	if len(q.device.submitScript) > 0 {
		err := q.device.submitScript[0]
		q.device.submitScript = q.device.submitScript[1:]
		if err != nil {
			return err
		}
	}
	// Instant GPU: the submission retires immediately.
	info.Fence.(*fakeFence).signaled = true
	q.device.log.record("submit cb=c%d wait=s%d signal=s%d fence=f%d",
		info.CommandBuffer.(*fakeCommandBuffer).id,
		semID(info.WaitSemaphore), semID(info.SignalSemaphore), fenceID(info.Fence))
	return nil
}

func (q *fakeQueue) Present(swapchain Swapchain, imageIndex uint32, wait Semaphore) error {
	if len(q.device.presentScript) > 0 {
		err := q.device.presentScript[0]
		q.device.presentScript = q.device.presentScript[1:]
		if err != nil {
			return err
		}
	}
	q.device.log.record("present image=%d wait=s%d", imageIndex, semID(wait))
	return nil
}

func (q *fakeQueue) WaitIdle() error {
	return nil
}

type fakeCommandPool struct {
	device *fakeDevice
	id     int
}

func (p *fakeCommandPool) Allocate(count int) ([]CommandBuffer, error) {
	if err := p.device.create("command_buffer"); err != nil {
		return nil, err
	}
	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &fakeCommandBuffer{device: p.device, id: p.device.id()}
	}
	return buffers, nil
}

func (p *fakeCommandPool) Free(buffers []CommandBuffer) {
	p.device.destroy("command_buffer")
}

func (p *fakeCommandPool) Destroy() {
	p.device.destroy("command_pool")
}

type fakeCommandBuffer struct {
	device *fakeDevice
	id     int
}

func (c *fakeCommandBuffer) Begin() error {
	c.device.log.record("begin c%d", c.id)
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(renderPass RenderPass, framebuffer Framebuffer, extent Extent, clear ClearColour) {
	c.device.log.record("begin_render_pass c%d fb=fb%d %dx%d", c.id,
		framebuffer.(*fakeFramebuffer).id, extent.Width, extent.Height)
}

func (c *fakeCommandBuffer) BindPipeline(pipeline PipelineHandle) {
	c.device.log.record("bind_pipeline c%d p%d", c.id, pipeline.(*fakePipelineHandle).id)
}

func (c *fakeCommandBuffer) BindDescriptorSet(layout PipelineLayout, set DescriptorSet) {
	c.device.log.record("bind_descriptor_set c%d d%d", c.id, set.(*fakeDescriptorSet).id)
}

func (c *fakeCommandBuffer) BindVertexBuffer(binding uint32, buffer Buffer, offset uint64) {
	c.device.log.record("bind_vertex_buffer c%d binding=%d buf=b%d off=%d", c.id, binding, bufID(buffer), offset)
}

func (c *fakeCommandBuffer) BindIndexBuffer(buffer Buffer, offset uint64) {
	c.device.log.record("bind_index_buffer c%d buf=b%d off=%d", c.id, bufID(buffer), offset)
}

func (c *fakeCommandBuffer) DrawIndexedIndirect(buffer Buffer, offset uint64, drawCount, stride uint32) {
	c.device.log.record("draw_indexed_indirect c%d buf=b%d off=%d count=%d stride=%d",
		c.id, bufID(buffer), offset, drawCount, stride)
}

func (c *fakeCommandBuffer) EndRenderPass() {
	c.device.log.record("end_render_pass c%d", c.id)
}

func (c *fakeCommandBuffer) End() error {
	c.device.log.record("end c%d", c.id)
	return nil
}

// fakeBuffer records uploads sparsely by offset instead of holding a real
// backing array, since the frame data buffer is tens of megabytes.
type fakeBuffer struct {
	device *fakeDevice
	id     int
	size   uint64
	usage  BufferUsage
	writes map[uint64][]byte
}

func (b *fakeBuffer) Upload(offset uint64, data []byte) error {
	if b.device.uploadErr != nil {
		return b.device.uploadErr
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("upload of %d bytes at %d overflows buffer b%d of %d bytes",
			len(data), offset, b.id, b.size)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.writes[offset] = cp
	b.device.log.record("upload b%d off=%d len=%d", b.id, offset, len(data))
	return nil
}

func (b *fakeBuffer) Size() uint64 {
	return b.size
}

func (b *fakeBuffer) Destroy() {
	b.device.destroy("buffer")
}

type fakeQueueFamily struct {
	index    uint32
	graphics bool
	queues   int
}

func (f fakeQueueFamily) Index() uint32          { return f.index }
func (f fakeQueueFamily) SupportsGraphics() bool { return f.graphics }
func (f fakeQueueFamily) MaxQueues() int         { return f.queues }

type fakeAdapter struct {
	name      string
	families  []QueueFamily
	noPresent map[uint32]bool
	device    *fakeDevice
	openErr   error
}

func (a *fakeAdapter) Name() string {
	return a.name
}

func (a *fakeAdapter) QueueFamilies() []QueueFamily {
	return a.families
}

func (a *fakeAdapter) SurfaceSupport(family QueueFamily, surface Surface) bool {
	return !a.noPresent[family.Index()]
}

func (a *fakeAdapter) Limits() DeviceLimits {
	return a.device.limits
}

func (a *fakeAdapter) OpenDevice(family QueueFamily) (Device, error) {
	if a.openErr != nil {
		return nil, a.openErr
	}
	return a.device, nil
}

type fakeInstance struct {
	adapters []Adapter
}

func (i *fakeInstance) EnumerateAdapters() []Adapter {
	return i.adapters
}

func (i *fakeInstance) Destroy() {}

type fakeSurface struct {
	caps    SurfaceCaps
	formats []Format
	modes   []PresentMode
	alphas  []CompositeAlpha
}

func (s *fakeSurface) Capabilities(Adapter) SurfaceCaps {
	return s.caps
}

func (s *fakeSurface) Formats(Adapter) []Format {
	return s.formats
}

func (s *fakeSurface) PresentModes(Adapter) []PresentMode {
	return s.modes
}

func (s *fakeSurface) CompositeAlphaModes(Adapter) []CompositeAlpha {
	return s.alphas
}

func (s *fakeSurface) Destroy(Instance) {}

// fakeCompiler pretends to compile sources, with per-name failure injection.
type fakeCompiler struct {
	errFor   map[string]error
	compiled []string
}

func (c *fakeCompiler) Compile(src ShaderSource) ([]uint32, error) {
	if err := c.errFor[src.Name]; err != nil {
		return nil, err
	}
	c.compiled = append(c.compiled, src.Name)
	return []uint32{0x07230203}, nil
}

// newTestSurface returns a surface with capabilities that negotiate cleanly.
func newTestSurface() *fakeSurface {
	return &fakeSurface{
		caps: SurfaceCaps{
			MinImageCount: 2,
			MaxImageCount: 8,
			CurrentExtent: &Extent{Width: 800, Height: 600},
			MinExtent:     Extent{Width: 1, Height: 1},
			MaxExtent:     Extent{Width: 4096, Height: 4096},
			Usage:         UsageColourAttachment | UsageTransferDst,
		},
		formats: []Format{FormatBGRA8Unorm, FormatBGRA8Srgb},
		modes:   []PresentMode{PresentModeFifo, PresentModeMailbox},
		alphas:  []CompositeAlpha{CompositeAlphaOpaque, CompositeAlphaInherit},
	}
}
