package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError,
		GetExitCode(WrapExitError(ExitCommandError, "bad config", nil)))

	// ExitErrors survive wrapping.
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "aborted", errors.New("inner")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	withCause := WrapExitError(ExitFailure, "batch aborted", errors.New("fee ceiling"))
	assert.Equal(t, "batch aborted: fee ceiling", withCause.Error())
	assert.Equal(t, "fee ceiling", withCause.Unwrap().Error())

	bare := WrapExitError(ExitCommandError, "SENDER_SECRET is required", nil)
	assert.Equal(t, "SENDER_SECRET is required", bare.Error())
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.csv")
		require.NoError(t, os.WriteFile(path, []byte(
			"address,amount\n"+
				"rXabc123456789ABCDEFGHJKMN,10\n"+
				"rYabc123456789ABCDEFGHJKMN,0.5\n"), 0o644))
		t.Setenv("INPUT_CSV_FILE", path)

		out, err := runCommand(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "validated 2 entries")
	})

	t.Run("malformed row", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.csv")
		require.NoError(t, os.WriteFile(path, []byte(
			"address,amount\nnot-an-address,10\n"), 0o644))
		t.Setenv("INPUT_CSV_FILE", path)

		_, err := runCommand(t, "validate")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("INPUT_CSV_FILE", filepath.Join(t.TempDir(), "absent.csv"))

		_, err := runCommand(t, "validate")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}

func TestPayoutCommand_RequiresSender(t *testing.T) {
	t.Setenv("SENDER_ADDRESS", "")
	t.Setenv("SENDER_SECRET", "")

	_, err := runCommand(t, "payout")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrustlinesCommand_RequiresIssuedCurrency(t *testing.T) {
	t.Setenv("CURRENCY_CODE", "")
	t.Setenv("ISSUER_ADDRESS", "")

	_, err := runCommand(t, "trustlines")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
