package loaders

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeGLTF(t *testing.T) {
	glb := make([]byte, 12)
	copy(glb, "glTF")
	binary.LittleEndian.PutUint32(glb[4:], 2)
	assert.NoError(t, ProbeGLTF(glb))

	binary.LittleEndian.PutUint32(glb[4:], 1)
	assert.ErrorIs(t, ProbeGLTF(glb), ErrBadVersion)

	assert.NoError(t, ProbeGLTF([]byte("\xef\xbb\xbf  {\"asset\":{\"version\":\"2.0\"}}")))
	assert.ErrorIs(t, ProbeGLTF([]byte("solid cube")), ErrBadMagic)
	assert.ErrorIs(t, ProbeGLTF([]byte("glTF")), ErrTruncated)
}
