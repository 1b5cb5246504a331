package metadata

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAssetNameFromPath(t *testing.T) {
	assert.Equal(t, "crate", AssetNameFromPath("models/crate.flux"))
	assert.Equal(t, "brick", AssetNameFromPath(`textures\brick.png`))
	assert.Equal(t, "sky.hdr", AssetNameFromPath("sky.hdr.png"))
	assert.Equal(t, strings.Repeat("a", MaxAssetNameLength), AssetNameFromPath(strings.Repeat("a", 200)+".png"))
}

func TestAssetNameFromPath_KeepsRunesWhole(t *testing.T) {
	// 127 ASCII bytes followed by a 3-byte rune crosses the limit mid-rune
	long := strings.Repeat("a", MaxAssetNameLength-1) + "€€" + ".png"
	name := AssetNameFromPath(long)

	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("a", MaxAssetNameLength-1), name)
	assert.LessOrEqual(t, len(name), MaxAssetNameLength)
}
