package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotTransitions(t *testing.T) {
	s := MeshSlot{ID: 3}
	s.transition(AssetStateQueued)
	s.transition(AssetStateJustLoaded)
	s.transition(AssetStateLoaded)
	s.transition(AssetStateUnloaded)
	assert.Equal(t, AssetStateUnloaded, s.State)

	assert.Panics(t, func() { s.transition(AssetStateLoaded) })
	assert.Panics(t, func() { s.transition(AssetStateJustLoaded) })
}

func TestSlotErrorIsTerminal(t *testing.T) {
	s := TextureSlot{ID: 9}
	s.transition(AssetStateQueued)
	s.transition(AssetStateError)
	for _, to := range []AssetState{AssetStateUnloaded, AssetStateQueued, AssetStateJustLoaded, AssetStateLoaded} {
		assert.Panics(t, func() { s.transition(to) }, "error -> %s", to)
	}
	assert.Equal(t, "error", s.State.String())
}
