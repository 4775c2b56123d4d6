package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "tokengen-test-secret"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestTokengen_FlagSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	token, err := execute(t, "--secret", testSecret, "--subject", "ops", "--scope", "traffic:read,campaigns:write")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager(testSecret, time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Sub)
	assert.True(t, claims.HasScope(auth.ScopeTrafficRead))
	assert.True(t, claims.HasScope("campaigns:write"))
}

func TestTokengen_EnvSecretAndDefaultScope(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	token, err := execute(t)
	require.NoError(t, err)

	claims, err := auth.NewJWTManager(testSecret, time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Sub)
	assert.Equal(t, []string{auth.ScopeTrafficRead}, claims.Scopes())
}

func TestTokengen_ConfigFile(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	path := filepath.Join(t.TempDir(), "config.yml")
	body := "auth:\n  jwt_secret: " + testSecret + "\n  token_expiry: 2h\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	token, err := execute(t, "--config", path)
	require.NoError(t, err)

	claims, err := auth.NewJWTManager(testSecret, time.Hour).ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokengen_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := execute(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingSecret))
}

func TestTokengen_MissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
