package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/config"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/testutil"
)

// cliEnv points the CLI at a fake backend and a private state store.
type cliEnv struct {
	t       *testing.T
	backend *testutil.Backend
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	backend := testutil.NewBackend(t)
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvBaseURL, backend.URL())
	t.Setenv(config.EnvGameID, "")
	t.Setenv(config.EnvStatePath, filepath.Join(t.TempDir(), "state.db"))
	t.Setenv(config.EnvLogLevel, "error")
	return &cliEnv{t: t, backend: backend}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// run executes one quizctl invocation with a fresh command tree.
func (e *cliEnv) run(stdin string, args ...string) cliResult {
	e.t.Helper()
	return execute(stdin, args...)
}

func execute(stdin string, args ...string) cliResult {
	opts := &RootOptions{SessionIDs: engine.NewFixedGenerator("session-1")}
	cmd := newRootCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// loginAdmin stores operator credentials in the env's state store.
func (e *cliEnv) loginAdmin() {
	e.t.Helper()
	res := e.run("", "login", "admin", "--password", testutil.AdminPassword)
	require.NoError(e.t, res.err, res.stdout)
}

// decodeResponse parses a JSON Response and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}
