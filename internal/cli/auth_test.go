package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/testutil"
)

func TestLogin_Admin(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "login", "admin", "--password", testutil.AdminPassword)
	require.NoError(t, res.err)
	assert.Equal(t, "Logged in as admin (ADMIN, operator)\n", res.stdout)

	res = env.run("", "whoami", "--format", "json")
	require.NoError(t, res.err)
	var id identity
	resp := decodeResponse(t, res.stdout, &id)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, identity{Username: "admin", Role: "ADMIN", Privileged: true}, id)
	assert.NotContains(t, res.stdout, testutil.AdminToken)
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(testutil.AdminPassword+"\n", "login", "admin")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Logged in as admin")

	reqs := env.backend.RequestsTo("/api/auth/login")
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.AdminPassword, reqs[0].Body["password"])
}

func TestLogin_MissingPassword(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "login", "admin")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Empty(t, env.backend.RequestsTo("/api/auth/login"))
}

func TestLogin_BadPassword(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "login", "admin", "--password", "wrong")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error [E_AUTH]: Bad credentials")

	res = env.run("", "whoami")
	require.NoError(t, res.err)
	assert.Equal(t, "Not logged in (viewer)\n", res.stdout)
}

func TestLogin_BadPasswordJSON(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "login", "admin", "--password", "wrong", "--format", "json")
	require.Error(t, res.err)
	resp := decodeResponse(t, res.stdout, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAuth, resp.Error.Code)
}

func TestRegister(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "register", "casey", "--password", "pw")
	require.NoError(t, res.err)
	assert.Equal(t, "Logged in as casey (USER, viewer)\n", res.stdout)

	res = env.run("", "register", "casey", "--password", "pw")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "Username already taken")
}

func TestLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.loginAdmin()

	res := env.run("", "logout")
	require.NoError(t, res.err)
	assert.Equal(t, "Logged out\n", res.stdout)

	res = env.run("", "whoami")
	require.NoError(t, res.err)
	assert.Equal(t, "Not logged in (viewer)\n", res.stdout)
}

func TestProfile(t *testing.T) {
	env := newCLIEnv(t)
	env.loginAdmin()

	res := env.run("", "profile", "--username", "quizmaster")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "Profile updated"), res.stdout)
	assert.Contains(t, res.stdout, "quizmaster (ADMIN, operator)")

	res = env.run("", "whoami")
	require.NoError(t, res.err)
	assert.Equal(t, "quizmaster (ADMIN, operator)\n", res.stdout)

	reqs := env.backend.RequestsTo("/api/auth/update-profile")
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.AdminToken, reqs[0].AdminToken)
}

func TestProfile_NothingToChange(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "profile")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestProfile_NotLoggedIn(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("", "profile", "--password", "new")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error [E_AUTH]: Not logged in")
	assert.Empty(t, env.backend.RequestsTo("/api/auth/update-profile"))
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "Not logged in (viewer)", identity{}.String())
	assert.Equal(t, "sam (USER, viewer)", identity{Username: "sam", Role: "USER"}.String())
	assert.Equal(t, "root (ADMIN, operator)", identity{Username: "root", Role: "ADMIN", Privileged: true}.String())
}

func TestPasswordFrom(t *testing.T) {
	got, err := passwordFrom(strings.NewReader("ignored\n"), "flag")
	require.NoError(t, err)
	assert.Equal(t, "flag", got)

	got, err = passwordFrom(strings.NewReader("secret\r\nmore\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	got, err = passwordFrom(strings.NewReader("no-newline"), "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	_, err = passwordFrom(strings.NewReader(""), "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
