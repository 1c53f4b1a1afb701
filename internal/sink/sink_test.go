package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_WritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	audit, err := OpenAudit(path)
	require.NoError(t, err)

	err = audit.Write(AuditRow{
		Address:          "rAAA",
		Amount:           "10",
		EngineResult:     "tesSUCCESS",
		EngineResultCode: 0,
		Accepted:         true,
		Applied:          true,
		Broadcast:        true,
		Kept:             true,
		Queued:           false,
		TxBlob:           "DEADBEEF",
	})
	require.NoError(t, err)
	require.NoError(t, audit.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"address,amount,engine_result,engine_result_code,accepted,applied,broadcast,kept,queued,txblob\r\n"+
			"rAAA,10,tesSUCCESS,0,true,true,true,true,false,DEADBEEF\r\n",
		string(data))
}

func TestAudit_RotateRenamesWithSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.csv")
	audit, err := OpenAudit(path)
	require.NoError(t, err)

	require.NoError(t, audit.Rotate("1700000000000"))

	assert.NoFileExists(t, path)
	assert.FileExists(t, path+"_1700000000000")

	// A second rotation is a no-op on the already-closed sink.
	assert.NoError(t, audit.Rotate("later"))
}

func TestFailures_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.csv")
	failures, err := OpenFailures(path)
	require.NoError(t, err)

	require.NoError(t, failures.Write("rAAA", "NO_ACCOUNT", "account missing or deleted"))
	require.NoError(t, failures.Write("rBBB", "ALREADY_PROCESSED", ""))
	require.NoError(t, failures.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"address, reason, txhash\n"+
			"rAAA, NO_ACCOUNT, account missing or deleted\n"+
			"rBBB, ALREADY_PROCESSED\n",
		string(data))
}

func TestFailures_RotateRenamesWithSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.csv")
	failures, err := OpenFailures(path)
	require.NoError(t, err)

	require.NoError(t, failures.Rotate("42"))
	assert.NoFileExists(t, path)
	assert.FileExists(t, path+"_42")
}

func TestSnapshotInput_CopiesAndKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("address,amount\nrAAA,10\n"), 0o644))

	require.NoError(t, SnapshotInput(path, "42"))

	copied, err := os.ReadFile(path + "_42")
	require.NoError(t, err)
	assert.Equal(t, "address,amount\nrAAA,10\n", string(copied))
	assert.FileExists(t, path, "the input itself stays in place for the next run")
}

func TestSnapshotInput_MissingInput(t *testing.T) {
	err := SnapshotInput(filepath.Join(t.TempDir(), "absent.csv"), "42")
	assert.Error(t, err)
}
