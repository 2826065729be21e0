package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/infrastructure/backend/fakebackend"
	"github.com/microtask/taskhub/pkg/logger"
)

type cliEnv struct {
	fake *fakebackend.Server
	env  envconfig.Lookuper
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	logger.Reset()
	t.Cleanup(logger.Reset)

	fake := fakebackend.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return &cliEnv{
		fake: fake,
		env: envconfig.MapLookuper(map[string]string{
			"BACKEND_URL":      srv.URL,
			"CREDENTIAL_STORE": "file",
			"CREDENTIAL_PATH":  filepath.Join(t.TempDir(), "credentials.json"),
			"LOG_LEVEL":        "disabled",
		}),
	}
}

func (c *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(c.env)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_SessionSurvivesBetweenCommands(t *testing.T) {
	c := newCLIEnv(t)
	id := c.fake.SeedUser("Wes", "wes@example.com", "secret1", domain.RoleWorker, 150)

	out, err := c.run(t, "secret1\n", "login", "--email", "wes@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as Wes (worker)")

	out, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "wes@example.com")
	assert.Contains(t, out, "coins: 150")

	c.fake.SetCoins(id, 400)
	out, err = c.run(t, "", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "400 coins ($20.00)")
	assert.NotContains(t, out, "withdrawals open at")

	out, err = c.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	out, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

func TestCLI_BalanceBelowWithdrawalMinimum(t *testing.T) {
	c := newCLIEnv(t)
	c.fake.SeedUser("Wes", "wes@example.com", "secret1", domain.RoleWorker, 150)

	_, err := c.run(t, "", "login", "--email", "wes@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := c.run(t, "", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "150 coins ($7.50)")
	assert.Contains(t, out, "withdrawals open at 200 coins")
}

func TestCLI_LoginRejected(t *testing.T) {
	c := newCLIEnv(t)
	c.fake.SeedUser("Wes", "wes@example.com", "secret1", domain.RoleWorker, 0)

	_, err := c.run(t, "", "login", "--email", "wes@example.com", "--password", "wrong")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = c.run(t, "", "login")
	assert.Error(t, err)
}

func TestCLI_RevokedSessionIsForgotten(t *testing.T) {
	c := newCLIEnv(t)
	c.fake.SeedUser("Bea", "bea@example.com", "secret1", domain.RoleBuyer, 50)

	_, err := c.run(t, "", "login", "--email", "bea@example.com", "--password", "secret1")
	require.NoError(t, err)
	c.fake.RevokeAll()

	out, err := c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")

	_, err = c.run(t, "", "balance")
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
}

func TestCLI_UnknownCredentialStore(t *testing.T) {
	logger.Reset()
	root := NewRootCmd(envconfig.MapLookuper(map[string]string{"CREDENTIAL_STORE": "floppy"}))
	root.SetArgs([]string{"whoami"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREDENTIAL_STORE")
}
