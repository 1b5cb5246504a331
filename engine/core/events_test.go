package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_FireStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	calls := []string{}
	first, second := "first", "second"

	require.NoError(t, bus.Register(EVENT_CODE_KEY_PRESSED, &first, func(code SystemEventCode, sender, listener interface{}, ctx EventContext) bool {
		calls = append(calls, *listener.(*string))
		return KeyCode(ctx.Data.U16[0]) == KEY_ESCAPE
	}))
	require.NoError(t, bus.Register(EVENT_CODE_KEY_PRESSED, &second, func(code SystemEventCode, sender, listener interface{}, ctx EventContext) bool {
		calls = append(calls, *listener.(*string))
		return true
	}))
	assert.Error(t, bus.Register(EVENT_CODE_KEY_PRESSED, &first, nil))

	ctx := EventContext{}
	ctx.Data.U16[0] = uint16(KEY_ESCAPE)
	assert.True(t, bus.Fire(EVENT_CODE_KEY_PRESSED, nil, ctx))
	assert.Equal(t, []string{"first"}, calls)

	ctx.Data.U16[0] = uint16(KEY_S)
	assert.True(t, bus.Fire(EVENT_CODE_KEY_PRESSED, nil, ctx))
	assert.Equal(t, []string{"first", "first", "second"}, calls)

	assert.True(t, bus.Unregister(EVENT_CODE_KEY_PRESSED, &first))
	assert.False(t, bus.Unregister(EVENT_CODE_KEY_PRESSED, &first))
	assert.False(t, bus.Fire(EVENT_CODE_RESIZED, nil, EventContext{}))
}
