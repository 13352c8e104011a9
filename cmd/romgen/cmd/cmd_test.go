package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bootHex = "@00000000\nAABBCCDD\n@00000008\nEEFF\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInitThenBuild(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)
	sv := filepath.Join(dir, "boot_rom.sv")

	out, err := run(t, "init", "-m", "boot_rom", "-r", "4", "-o", sv)
	require.NoError(t, err)
	assert.Contains(t, out, "boot_rom.sv")
	assert.Contains(t, readFile(t, sv), "module boot_rom")

	out, err = run(t, "build", "-i", in, "-o", sv, "-r", "4")
	require.NoError(t, err)
	assert.Equal(t, "ROM file '"+sv+"' created with size 10 bytes (3 words) from '"+in+"'.\n", out)

	got := readFile(t, sv)
	assert.Contains(t, got, "RomSize = 32'h0010;")
	assert.Contains(t, got, "    32'hDDCCBBAA, 32'h00000000, 32'h0000FFEE, 32'h00000000 // 0x0000 - 0x0003\n")
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	sv := writeFile(t, dir, "rom.sv", "keep me\n")

	_, err := run(t, "init", "-o", sv)
	require.Error(t, err)
	assert.Equal(t, "keep me\n", readFile(t, sv))

	_, err = run(t, "init", "-o", sv, "--force")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, sv), "// ROM_DATA_BEGIN")
}

func TestBuildCapacityExceededKeepsTemplate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)
	sv := filepath.Join(dir, "boot_rom.sv")
	_, err := run(t, "init", "-r", "4", "-o", sv)
	require.NoError(t, err)
	before := readFile(t, sv)

	out, err := run(t, "build", "-i", in, "-o", sv, "-r", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds ROM size of 8 bytes")
	assert.Empty(t, out)
	assert.Equal(t, before, readFile(t, sv))
}

func TestBuildRequiresOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)

	_, err := run(t, "build", "-i", in)
	require.Error(t, err)
}

func TestImageBin(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", "@00000000\nAABBCCDD\n")

	_, err := run(t, "image", "-i", in, "-f", "bin", "-r", "2")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0, 0, 0, 0}, []byte(readFile(t, filepath.Join(dir, "boot.bin"))))
}

func TestImageMemhWithRecordsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)
	out := filepath.Join(dir, "rom.memh")
	records := filepath.Join(dir, "rom.records.json")
	metrics := filepath.Join(dir, "romgen.prom")

	_, err := run(t, "image", "-i", in, "-o", out, "--padding", "word",
		"--records", records, "--metrics", metrics)
	require.NoError(t, err)
	assert.Equal(t, "DDCCBBAA\n00000000\n0000FFEE\n", readFile(t, out))
	assert.Contains(t, readFile(t, records), `"kind": "address"`)
	assert.Contains(t, readFile(t, metrics), `romgen_data_bytes{rom="boot"} 10`)
}

func TestImageUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)

	_, err := run(t, "image", "-i", in, "-f", "srec")
	require.ErrorContains(t, err, `unknown image format "srec"`)
}

func TestUserROM(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "user_rom.hex")

	stdout, err := run(t, "userrom", "-s", "Dumeni", "-r", "2", "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "User ROM file '"+out+"' created with size 8 bytes (2 words).\n", stdout)
	assert.Equal(t, "656D7544\n0000696E\n", readFile(t, out))
}

func TestUserROMBigEndianTruncates(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "user_rom.hex")

	_, err := run(t, "userrom", "-s", "Dumeni v1", "-r", "2", "-o", out, "--byte-order", "big")
	require.NoError(t, err)
	assert.Equal(t, "44756D65\n6E692076\n", readFile(t, out))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", bootHex)

	out, err := run(t, "inspect", in, "--records")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "LINE")
	assert.Contains(t, out, "0x00000008")
	for _, want := range []string{"10 bytes (3 words)", "gap filled:", "0x05", "0x04FB"} {
		assert.Contains(t, out, want)
	}
}

func TestInspectStrictAndLenient(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", "@00000000\nAABB\nnot hex\nCCDD\n")

	_, err := run(t, "inspect", in)
	require.Error(t, err)

	out, err := run(t, "inspect", in, "--lenient")
	require.NoError(t, err)
	assert.Contains(t, out, "4 bytes (1 words)")
}

func TestBuildConfigTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "boot.hex", bootHex)
	writeFile(t, dir, "user.hex", "@00000000\n01020304\n")
	cfgPath := writeFile(t, dir, "romgen.yaml", `
capacity: 16
metrics: romgen.prom
targets:
  - name: boot
    input: boot.hex
    output: boot.memh
  - name: user
    input: user.hex
    output: user.bin
    capacity: 4
`)

	out, err := run(t, "build", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "created with size"))

	assert.Equal(t, "DDCCBBAA\n00000000\n0000FFEE\n00000000\n", readFile(t, filepath.Join(dir, "boot.memh")))
	assert.Equal(t, []byte{1, 2, 3, 4}, []byte(readFile(t, filepath.Join(dir, "user.bin"))))
	assert.Contains(t, readFile(t, filepath.Join(dir, "romgen.prom")), `rom="user"`)
}

func TestBuildConfigFailureStopsWrites(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.hex", bootHex)
	cfgPath := writeFile(t, dir, "romgen.yaml", `
parallelism: 1
targets:
  - name: big
    input: big.hex
    output: big.memh
    capacity: 8
`)

	_, err := run(t, "build", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rom big")
	assert.NoFileExists(t, filepath.Join(dir, "big.memh"))
}

func TestBuildWithoutInputOrTargets(t *testing.T) {
	_, err := run(t, "build")
	require.ErrorContains(t, err, "--in is required")
}

func TestInspectCapacityLimit(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "boot.hex", "@0\nAA\n@80000000\nBB\n")

	_, err := run(t, "inspect", in, "-c", "4000")
	require.ErrorContains(t, err, "exceeds ROM size of 4000 bytes")
}
