package classify_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/classify"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.darshan")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	sum, err := classify.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	sum, err = classify.HashReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", sum)

	_, err = classify.HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
