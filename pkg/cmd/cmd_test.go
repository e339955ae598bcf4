package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestFsResolve(t *testing.T) {
	out, err := execute(t, "fs", "resolve", "/scratch2", "/global/cscratch1", "/projects/radix-io", "/home")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"/scratch2", "scratch2", "edison"}, fields(lines[0]))
	assert.Equal(t, []string{"/global/cscratch1", "cscratch", "cori"}, fields(lines[1]))
	assert.Equal(t, []string{"/projects/radix-io", "mira-fs1", "mira"}, fields(lines[2]))
	assert.Equal(t, "/home", fields(lines[3])[0])
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("..", "darshan", "testdata", "vpicio.txt"))
	require.NoError(t, err)

	log := filepath.Join(dir, "vpicio.txt")
	require.NoError(t, os.WriteFile(log, src, 0o600))

	out, err := execute(t, "classify", "-j", "-t", "2", filepath.Join(dir, "*.txt"), filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Contains(t, out, `"log_file": "vpicio.txt"`)
	assert.Contains(t, out, `"md5": "`)

	dest := filepath.Join(dir, "labels.csv")
	_, err = execute(t, "classify", "--json=false", "-o", dest, log)
	require.NoError(t, err)

	csv, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csv, []byte("log_file,date,compute_system,file_system,application,shared_or_fpp,read_or_write,md5\nvpicio.txt,")))

	// 全部失败时返回错误
	_, err = execute(t, "classify", "-o", "", filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestParseTimeFlag(t *testing.T) {
	v, err := parseTimeFlag("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseTimeFlag("1490000000")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(1490000000), *v)

	v, err = parseTimeFlag("2017-03-20")
	require.NoError(t, err)
	require.NotNil(t, v)

	_, err = parseTimeFlag("yesterday")
	require.Error(t, err)
}

func fields(line []byte) []string {
	var out []string
	for _, f := range bytes.Fields(line) {
		out = append(out, string(f))
	}

	return out
}

func TestBackendListings(t *testing.T) {
	out, err := execute(t, "kv", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "* - memory")
	assert.Contains(t, out, "  - redis")

	out, err = execute(t, "db", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "* - sqlite")
	assert.Contains(t, out, "  - postgresql")
}

func TestConfigDebugHidesSecrets(t *testing.T) {
	out, err := execute(t, "config", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, `"SecretAccessKey": "******"`)
}
