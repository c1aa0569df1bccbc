package values_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/internal/testutil"
	"github.com/reglet-dev/typeddata/values"
)

func TestFile(t *testing.T) {
	rt := testutil.Embed(t)
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, err := values.OpenFile(path, os.O_RDONLY, 0)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())

	data, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	same, err := values.TryConvertFile(f.Value())
	require.NoError(t, err)
	assert.Equal(t, f, same)

	require.NoError(t, f.Close())
	_, err = f.Read()
	testutil.AssertExceptionClass(t, errors.ClassIOError, err)

	_, ok := values.FileFromValue(rt.NewString(path))
	assert.False(t, ok)
	_, err = values.TryConvertFile(rt.NewString(path))
	assert.EqualError(t, err, "no implicit conversion of String into File")
}
