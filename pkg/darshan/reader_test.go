package darshan_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
)

func TestRegisteredReaders(t *testing.T) {
	assert.Equal(t, []darshan.ReaderType{
		darshan.ReaderAuto, darshan.ReaderJSON, darshan.ReaderParser, darshan.ReaderText,
	}, darshan.RegisteredReaders())

	_, err := darshan.NewReader("xml", configs.ReaderConfig{})
	require.ErrorIs(t, err, darshan.ErrUnknownReader)
}

func TestJSONCodec(t *testing.T) {
	rs := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, darshan.EncodeJSON(&buf, rs))

	path := filepath.Join(t.TempDir(), "vpicio.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	r, err := darshan.NewReader(darshan.ReaderJSON, configs.ReaderConfig{})
	require.NoError(t, err)

	got, err := r.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, rs, got)
}

func TestDecodeJSONErrors(t *testing.T) {
	_, err := darshan.DecodeJSON([]byte(`{"header":`))
	require.Error(t, err)

	_, err = darshan.DecodeJSON([]byte(`{}`))
	require.ErrorIs(t, err, darshan.ErrEmptyTrace)
}

func TestAutoReaderByExtension(t *testing.T) {
	r, err := darshan.NewReader(darshan.ReaderAuto, configs.ReaderConfig{ParserPath: "iolabel-no-such-parser"})
	require.NoError(t, err)

	rs, err := r.Read(context.Background(), "testdata/vpicio.txt")
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Header.NProcs)

	// 其他扩展名交给 darshan-parser，这里找不到可执行文件
	_, err = r.Read(context.Background(), "testdata/vpicio.darshan")
	require.Error(t, err)
}

func TestParserReader(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script parser stub")
	}

	stub := filepath.Join(t.TempDir(), "darshan-parser")
	script := "#!/bin/sh\nfor last; do :; done\ncat \"$last\"\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o700))

	r, err := darshan.NewReader(darshan.ReaderParser, configs.ReaderConfig{
		ParserPath: stub,
		ParserArgs: []string{"--base", "--total", "--perf"},
	})
	require.NoError(t, err)

	rs, err := r.Read(context.Background(), "testdata/vpicio.txt")
	require.NoError(t, err)
	assert.Len(t, rs.Counters, 2)

	_, err = r.Read(context.Background(), "testdata/missing.darshan")
	require.Error(t, err)
}

func TestDumpReader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")

	r, err := darshan.NewDumpReader(darshan.TextReader{}, dir)
	require.NoError(t, err)

	rs, err := r.Read(context.Background(), "testdata/vpicio.txt")
	require.NoError(t, err)

	name := darshan.DumpName("testdata/vpicio.txt")
	assert.True(t, strings.HasPrefix(name, "vpicio-"), name)

	got, err := darshan.JSONReader{}.Read(context.Background(), filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, rs, got)

	_, err = r.Read(context.Background(), "testdata/missing.txt")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, darshan.DumpName("testdata/missing.txt")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDumpReaderSameBaseName(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "dump")

	r, err := darshan.NewDumpReader(darshan.TextReader{}, dir)
	require.NoError(t, err)

	paths := make([]string, 0, 8)

	for i := range 8 {
		sub := filepath.Join(root, fmt.Sprintf("run%d", i))
		require.NoError(t, os.MkdirAll(sub, 0o755))

		p := filepath.Join(sub, "job.txt")
		text := fmt.Sprintf("# exe: /bin/app%d\n# nprocs: %d\n# POSIX module data\nPOSIX\t0\t1\tPOSIX_BYTES_WRITTEN\t%d\t/scratch/out\t/scratch\tlustre\n", i, i+1, 1000*(i+1))
		require.NoError(t, os.WriteFile(p, []byte(text), 0o600))

		paths = append(paths, p)
	}

	var wg sync.WaitGroup

	for _, p := range paths {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := r.Read(context.Background(), p)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, len(paths))

	for i, p := range paths {
		got, err := darshan.JSONReader{}.Read(context.Background(), filepath.Join(dir, darshan.DumpName(p)))
		require.NoError(t, err)
		assert.Equal(t, i+1, got.Header.NProcs)
	}
}
