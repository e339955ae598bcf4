package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://logs/2017/03/app.darshan", "default")
	require.NoError(t, err)
	assert.Equal(t, "logs", bucket)
	assert.Equal(t, "2017/03/app.darshan", key)

	bucket, key, err = ParseURI("s3:///app.darshan", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", bucket)
	assert.Equal(t, "app.darshan", key)

	for _, bad := range []string{"/local/app.darshan", "s3://logs", "s3://logs/", "s3:///x"} {
		_, _, err := ParseURI(bad, "")
		assert.Error(t, err, bad)
	}
}

func TestStaticPrefix(t *testing.T) {
	assert.Equal(t, "2017/03/", staticPrefix("2017/03/*.darshan"))
	assert.Equal(t, "run", staticPrefix("run?.darshan"))
	assert.Equal(t, "plain/key", staticPrefix("plain/key"))
	assert.True(t, hasMeta("a/[ab].darshan"))
	assert.False(t, hasMeta("a/b.darshan"))
}
