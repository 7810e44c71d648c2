package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure-vault/internal/client"
	"secure-vault/internal/service"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if db != nil {
		db.Close()
		db = nil
	}
	return out.String(), err
}

func TestCLI_LocalBackendFlow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SECUREVAULT_CLIENT_REGISTERDELAY", "0s")
	t.Setenv("SECUREVAULT_CLIENT_LOGINDELAY", "0s")
	origIsTerminal := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origIsTerminal })

	files := filepath.Join(dir, "files")
	require.NoError(t, os.MkdirAll(files, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(files, "Q4_Financial_Report.doc"), []byte("report"), 0o644))

	common := []string{"--data", filepath.Join(dir, "vault.db"), "--files-dir", files}

	out, err := runCLI(t, "", append([]string{"register", "--name", "Ann", "--email", "ann@x.com", "--password", "secret1"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Ann")

	_, err = runCLI(t, "", append([]string{"register", "--name", "Ann", "--email", "ann@x.com", "--password", "secret1"}, common...)...)
	assert.True(t, errors.Is(err, service.ErrUserAlreadyExists))

	out, err = runCLI(t, "", append([]string{"whoami"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ann@x.com")

	out, err = runCLI(t, "", append([]string{"files"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Q4_Financial_Report.doc")

	dest := filepath.Join(dir, "out.doc")
	_, err = runCLI(t, "", append([]string{"download", "Q4_Financial_Report.doc", "-o", dest}, common...)...)
	require.NoError(t, err)
	body, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "report", string(body))

	out, err = runCLI(t, "", append([]string{"logout"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = runCLI(t, "", append([]string{"whoami"}, common...)...)
	assert.True(t, errors.Is(err, client.ErrNoSession))

	// prompts are read from stdin when flags are omitted
	out, err = runCLI(t, "ann@x.com\nsecret1\n", append([]string{"login"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back, Ann")

	_, err = runCLI(t, "", append([]string{"login", "--email", "ann@x.com", "--password", "wrong"}, common...)...)
	assert.Equal(t, "Invalid credentials", client.Message(err))
}

func TestCLI_RegisterPromptsForConfirmation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SECUREVAULT_CLIENT_REGISTERDELAY", "0s")
	origIsTerminal := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origIsTerminal })

	common := []string{"--data", filepath.Join(dir, "vault.db")}

	_, err := runCLI(t, "Ann\nann@x.com\nsecret1\nsecret2\n", append([]string{"register"}, common...)...)
	assert.True(t, errors.Is(err, service.ErrValidation))
	assert.Contains(t, client.Message(err), "passwords do not match")

	_, err = runCLI(t, "", append([]string{"register", "--name", "Ann", "--email", "ann@x.com", "--password", "abc"}, common...)...)
	assert.True(t, errors.Is(err, service.ErrValidation))

	out, err := runCLI(t, "Ann\nann@x.com\nsecret1\nsecret1\n", append([]string{"register"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Confirm password")
	assert.Contains(t, out, "Welcome, Ann")
}

func TestCLI_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := runCLI(t, "", "whoami", "--backend", "fax", "--data", filepath.Join(dir, "vault.db"))

	assert.Error(t, err)
}
