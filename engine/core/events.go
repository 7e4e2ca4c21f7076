package core

import (
	"sync"

	"github.com/spaghettifunk/avenir/engine/containers"
)

type EventContext struct {
	// 128 bytes
	Data struct {
		I64 [2]int64
		U64 [2]uint64
		F64 [2]float64

		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32

		I16 [8]int16
		U16 [8]uint16

		I8 [16]int8
		U8 [16]uint8

		C [16]string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * u16 key_code = data.data.u16[0];
	 */
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * u16 key_code = data.data.u16[0];
	 */
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Mouse button pressed.
	/* Context usage:
	 * u16 button = data.data.u16[0];
	 */
	EVENT_CODE_BUTTON_PRESSED SystemEventCode = 0x04

	// Mouse button released.
	/* Context usage:
	 * u16 button = data.data.u16[0];
	 */
	EVENT_CODE_BUTTON_RELEASED SystemEventCode = 0x05

	// Mouse moved.
	/* Context usage:
	 * u16 x = data.data.u16[0];
	 * u16 y = data.data.u16[1];
	 */
	EVENT_CODE_MOUSE_MOVED SystemEventCode = 0x06

	// Mouse wheel.
	/* Context usage:
	 * i8 z_delta = data.data.i8[0];
	 */
	EVENT_CODE_MOUSE_WHEEL SystemEventCode = 0x07

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u16 width = data.data.u16[0];
	 * u16 height = data.data.u16[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// Shader sources changed on disk.
	/* Context usage:
	 * string path = data.data.c[0];
	 */
	EVENT_CODE_SHADERS_CHANGED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Deferred events posted from other goroutines wait here until the next pump.
const maxPendingEvents = 256

type registeredEvent struct {
	id       uint32
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

type pendingEvent struct {
	code    SystemEventCode
	sender  interface{}
	context EventContext
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
	// Events posted off-thread, drained by EventPump on the main thread.
	pendingMu sync.Mutex
	pending   *containers.RingQueue[pendingEvent]
}

/**
 * Event system internal state.
 */
var onceEvent sync.Once
var isInitialized bool = false
var eventState *eventSystemState = nil

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

func EventInitialize() bool {
	if isInitialized {
		return false
	}
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			pending: containers.NewRingQueue[pendingEvent](maxPendingEvents),
		}
	})
	isInitialized = true
	return true
}

func EventShutdown() error {
	if !isInitialized {
		return ErrEventsNotInitialized
	}
	// Free the events arrays. Any objects pointed to should be destroyed on their own.
	for i := 0; i < MAX_MESSAGE_CODES; i++ {
		if len(eventState.registered[i].events) != 0 {
			eventState.registered[i].events = nil
		}
	}
	isInitialized = false
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Duplicate
 * listener/callback combos are registered independently; the returned handle
 * identifies this registration for EventUnregister.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns The registration handle and true on success; otherwise 0 and false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) (uint32, bool) {
	if !isInitialized || onEvent == nil {
		return 0, false
	}
	event := &registeredEvent{
		id:       IdentifierAquireNewID(listener),
		listener: listener,
		callback: onEvent,
	}
	eventState.registered[code].events = append(eventState.registered[code].events, event)
	return event.id, true
}

/**
 * Unregister the registration identified by the handle returned from
 * EventRegister. If no matching registration is found, this returns FALSE.
 */
func EventUnregister(code SystemEventCode, id uint32) bool {
	if !isInitialized {
		return false
	}

	events := eventState.registered[code].events
	for i, e := range events {
		if e.id == id {
			eventState.registered[code].events = append(events[:i], events[i+1:]...)
			if err := IdentifierReleaseID(id); err != nil {
				LogWarn("%s", err.Error())
			}
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * Must be called from the main thread; use EventPost from other goroutines.
 * @param code The event code to fire.
 * @param sender A pointer to the sender. Can be nil.
 * @param context The event data.
 * @returns TRUE if handled, otherwise FALSE.
 */
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[code].events {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

/**
 * Queues an event from any goroutine. The event is delivered by the next
 * EventPump call on the main thread. A full queue drops the event with a warning.
 */
func EventPost(code SystemEventCode, sender interface{}, context EventContext) {
	if !isInitialized {
		return
	}
	eventState.pendingMu.Lock()
	err := eventState.pending.Enqueue(pendingEvent{code: code, sender: sender, context: context})
	eventState.pendingMu.Unlock()
	if err != nil {
		LogWarn("event queue full, dropping event with code %d", code)
	}
}

/**
 * Delivers all posted events. Called once per frame from the main thread.
 */
func EventPump() {
	if !isInitialized {
		return
	}
	for {
		eventState.pendingMu.Lock()
		ev, err := eventState.pending.Dequeue()
		eventState.pendingMu.Unlock()
		if err != nil {
			return
		}
		EventFire(ev.code, ev.sender, ev.context)
	}
}
