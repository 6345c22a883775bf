package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/vitalrisk/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	testDir := t.TempDir()

	c1, err := ReadOrCreate(testDir)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, Default(), c1)

	c1.Seed = 7
	c1.Samples = 500
	c1.Port = 9090

	err = Save(testDir, c1)
	assert.NoError(t, err)

	c2, err := ReadOrCreate(testDir)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestReadOrCreate_PartialFile(t *testing.T) {
	testDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(testDir, configFileName), []byte("samples: 250\n"), fileMode))

	c, err := ReadOrCreate(testDir)
	require.NoError(t, err)
	assert.Equal(t, 250, c.Samples)
	assert.Equal(t, risk.DefaultSeed, c.Seed)
	assert.Equal(t, PortDefault, c.Port)
}

func TestReadOrCreate_Invalid(t *testing.T) {
	testDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(testDir, configFileName), []byte("testRatio: 1.5\n"), fileMode))

	_, err := ReadOrCreate(testDir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(testDir, configFileName), []byte("samples: [\n"), fileMode))
	_, err = ReadOrCreate(testDir)
	assert.Error(t, err)
}

func TestReadOrCreate_EmptyDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"samples", func(c *Config) { c.Samples = 0 }},
		{"ratio", func(c *Config) { c.TestRatio = 0 }},
		{"max iterations", func(c *Config) { c.MaxIterations = -1 }},
		{"c", func(c *Config) { c.C = -1 }},
		{"port", func(c *Config) { c.Port = 70000 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestScorerConfig(t *testing.T) {
	sc := Default().ScorerConfig()
	assert.Equal(t, risk.DefaultConfig(), sc)
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, created, err := GetOrCreateHomeDir("vitalrisk")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ".vitalrisk", filepath.Base(dir))

	_, created, err = GetOrCreateHomeDir(".vitalrisk")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}
