package core

import "fmt"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01
	// Keyboard key pressed. Context usage: KeyCode = Data.U16[0]
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02
	// Keyboard key released. Context usage: KeyCode = Data.U16[0]
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03
	// Resized/resolution changed from the OS.
	// Context usage: width = Data.U32[0], height = Data.U32[1]
	EVENT_CODE_RESIZED SystemEventCode = 0x08
	// An asset finished loading or failed. Context usage: id = Data.U32[0],
	// kind = Data.U32[1], failed = Data.U32[2] != 0
	EVENT_CODE_ASSET_LOADED SystemEventCode = 0x10
	// The world was written to disk. Context usage: path = Data.S
	EVENT_CODE_WORLD_SAVED SystemEventCode = 0x11

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_F      KeyCode = 0x46
	KEY_L      KeyCode = 0x4C
	KEY_R      KeyCode = 0x52
	KEY_S      KeyCode = 0x53
	KEY_F1     KeyCode = 0x70
	KEY_F2     KeyCode = 0x71
)

type EventContext struct {
	Data struct {
		U32 [4]uint32
		F32 [4]float32
		U16 [8]uint16
		S   string
	}
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

/**
 * @brief Synchronous event dispatcher. Owned by the engine and handed to the
 * systems that fire or listen; callbacks run on the goroutine that fires.
 */
type EventBus struct {
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return an error.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback to be invoked when the event code is fired.
 */
func (eb *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) error {
	if code < 0 || code >= MAX_MESSAGE_CODES {
		return fmt.Errorf("event code %d out of range", code)
	}
	for _, e := range eb.registered[code] {
		if e.listener == listener {
			return fmt.Errorf("listener already registered for event code %d", code)
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return nil
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @returns true if a registration was found and removed.
 */
func (eb *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled.
 */
func (eb *EventBus) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	for _, e := range eb.registered[code] {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (eb *EventBus) Shutdown() {
	clear(eb.registered)
}
