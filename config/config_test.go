package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anupcshan/romgen/artifact"
	"github.com/anupcshan/romgen/rom"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
capacity: 64
byte_order: little
markers:
  size_param: RomSize
parallelism: 2
metrics: build/romgen.prom
targets:
  - name: bootrom
    input: sw/bootrom.hex
    output: rtl/bootrom.sv
  - name: userrom
    input: sw/user.hex
    output: rtl/user_rom.hex
    capacity: 32
    byte_order: big
    padding: word
    strict: false
  - name: flash
    input: sw/app.hex
    output: build/app.ihex
    format: ihex
    base: 0x10000000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "romgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, testConfig)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 64, cfg.Capacity)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, filepath.Join(dir, "build/romgen.prom"), cfg.MetricsPath())
	assert.Equal(t, artifact.Markers{
		SizeParam: "RomSize",
		Begin:     artifact.DefaultMarkers.Begin,
		End:       artifact.DefaultMarkers.End,
	}, cfg.Markers)

	targets, err := cfg.ResolveAll()
	require.NoError(t, err)
	require.Len(t, targets, 3)

	boot := targets[0]
	assert.Equal(t, FormatSV, boot.Format)
	assert.Equal(t, filepath.Join(dir, "sw/bootrom.hex"), boot.Input)
	assert.Equal(t, boot.Output, boot.Template)
	assert.EqualValues(t, 64, boot.Capacity)
	assert.True(t, boot.Strict)
	assert.Equal(t, rom.PadToCapacity, boot.Padding)

	user := targets[1]
	assert.Equal(t, FormatMemh, user.Format)
	assert.EqualValues(t, 32, user.Capacity)
	assert.Equal(t, wordenc.BigEndian, user.ByteOrder)
	assert.Equal(t, rom.PadToWord, user.Padding)
	assert.False(t, user.Strict)

	flash := targets[2]
	assert.Equal(t, FormatIHex, flash.Format)
	assert.Equal(t, uint32(0x10000000), flash.Base)
}

func TestLoadRejectsBadTargets(t *testing.T) {
	tests := map[string]string{
		"bad order":   "targets:\n  - {name: a, input: a.hex, output: a.sv, byte_order: middle}\n",
		"bad format":  "targets:\n  - {name: a, input: a.hex, output: a.out, format: srec}\n",
		"bad padding": "padding: page\ntargets:\n  - {name: a, input: a.hex, output: a.sv}\n",
		"no output":   "targets:\n  - {name: a, input: a.hex}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	r, err := cfg.Resolve(Target{Input: "in.hex", Output: "out.sv", Template: "tmpl.sv"})
	require.NoError(t, err)
	assert.EqualValues(t, DefaultCapacity, r.Capacity)
	assert.Equal(t, wordenc.LittleEndian, r.ByteOrder)
	assert.Equal(t, "tmpl.sv", r.Template)
	assert.Equal(t, artifact.DefaultMarkers, r.Markers)
}
