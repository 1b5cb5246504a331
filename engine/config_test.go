package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 512, c.Assets.QueueCapacity)
	assert.Equal(t, 8, c.Assets.TransferBuffers)
	assert.Equal(t, 16<<20, c.Assets.TransferBufferSize)
	assert.Equal(t, "opengl", c.Renderer.Backend)
	assert.Equal(t, -1, c.Renderer.DebugShadowCascade)
}

func TestParseConfig_MergesOntoDefaults(t *testing.T) {
	c := DefaultConfig()
	err := ParseConfig([]byte(`
[application]
name = "harbor"
frames = 10

[assets]
dir = "data"
transfer_buffers = 2

[renderer]
backend = "headless"
fxaa = false
debug_shadow_cascade = 1
`), &c)
	require.NoError(t, err)

	assert.Equal(t, "harbor", c.Application.Name)
	assert.Equal(t, uint64(10), c.Application.Frames)
	assert.Equal(t, uint32(1280), c.Application.StartWidth, "untouched keys keep defaults")
	assert.Equal(t, "data", c.Assets.Dir)
	assert.Equal(t, 2, c.Assets.TransferBuffers)
	assert.Equal(t, 512, c.Assets.QueueCapacity)

	s := c.RendererSettings()
	assert.False(t, s.FXAA)
	assert.Equal(t, 1, s.DebugCascade)
	assert.Equal(t, "data", c.AssetsConfig().Dir)
}

func TestParseConfig_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "[assets]\nbogus = 1\n",
		"unknown backend":  "[renderer]\nbackend = \"vulkan\"\n",
		"log level":        "[log]\nlevel = \"loud\"\n",
		"transfer > queue": "[assets]\nqueue_capacity = 4\ntransfer_buffers = 8\n",
		"zero queue":       "[assets]\nqueue_capacity = 0\n",
		"lambda":           "[renderer]\ncascade_lambda = 1.5\n",
		"no workers":       "[jobs]\nworkers = 0\n",
		"malformed":        "[assets\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			assert.Error(t, ParseConfig([]byte(doc), &c))
		})
	}

	c := DefaultConfig()
	assert.ErrorIs(t, ParseConfig([]byte("[renderer]\nbackend = \"dx12\"\n"), &c), ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := DefaultConfig().Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	c, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c, "encoded defaults read back unchanged")
}
