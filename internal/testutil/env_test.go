package testutil_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patricktcoakley/gdvm-sub001/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	root := testutil.SetupTestEnv(t)

	assert.Equal(t, root, os.Getenv("GDVM_HOME"))
	assert.DirExists(t, root)
	assert.Empty(t, os.Getenv("GDVM_GITHUB_TOKEN"))
}

func TestSetupTestEnv_Isolation(t *testing.T) {
	var first string
	t.Run("first", func(t *testing.T) {
		first = testutil.SetupTestEnv(t)
	})
	t.Run("second", func(t *testing.T) {
		assert.NotEqual(t, first, testutil.SetupTestEnv(t))
	})
}
