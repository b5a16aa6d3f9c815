package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRotateMasterKey(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		err := RunRotateMasterKey(&out, "new-key", "old-key:b2xkLWtleS1tYXRlcmlhbA==", "old-key")

		require.NoError(t, err)
		require.Contains(t, out.String(), `MASTER_KEYS="old-key:b2xkLWtleS1tYXRlcmlhbA==,new-key:`)
		require.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="new-key"`)
	})

	t.Run("missing-master-keys", func(t *testing.T) {
		err := RunRotateMasterKey(&bytes.Buffer{}, "new-key", "", "old-key")

		require.Error(t, err)
		require.Contains(t, err.Error(), "MASTER_KEYS is not set")
	})

	t.Run("missing-active-key-id", func(t *testing.T) {
		err := RunRotateMasterKey(&bytes.Buffer{}, "new-key", "old-key:abc", "")

		require.Error(t, err)
		require.Contains(t, err.Error(), "ACTIVE_MASTER_KEY_ID is not set")
	})
}
