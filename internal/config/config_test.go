package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
api:
  environment: test
  port: "9090"
  jwt_signing_key: secret
  allowed_cors_domains:
    - http://localhost:5173
participants:
  reject_cutoff: 6h
  withdrawn_bucket: separate
  sweep_max_rounds: 3
email:
  service_id: svc
storage:
  endpoint: ""
  bucket: banners
contact:
  admin_email: admin@example.com
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, 24*time.Hour, conf.API.TokenTTL, "default applies")
	assert.False(t, conf.API.AllowAdminSignup, "admin signup is off unless configured")
	assert.Equal(t, "svc", conf.Email.ServiceID)
	assert.Equal(t, 4, conf.Email.Concurrency)
	assert.False(t, conf.Storage.Enabled())
	assert.Equal(t, "admin@example.com", conf.Contact.AdminEmail)

	policy := conf.Participants.Policy()
	assert.Equal(t, 6*time.Hour, policy.RejectCutoff)
	assert.Equal(t, 12*time.Hour, policy.WithdrawCutoff)
	assert.Equal(t, "separate", policy.WithdrawnBucket)
	assert.Equal(t, 3, policy.SweepMaxRounds)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EVENTDESK_API_PORT", "7070")
	t.Setenv("EVENTDESK_PARTICIPANTS_REJECT_CUTOFF", "1h")

	conf, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "7070", conf.API.Port)
	assert.Equal(t, time.Hour, conf.Participants.Policy().RejectCutoff)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Run("missing signing key", func(t *testing.T) {
		_, err := Load(writeConfig(t, strings.Replace(testConfig, "jwt_signing_key: secret", "jwt_signing_key: \"\"", 1)))
		assert.ErrorIs(t, err, errMissingSigningKey)
	})

	t.Run("unknown withdrawn bucket", func(t *testing.T) {
		_, err := Load(writeConfig(t, strings.Replace(testConfig, "withdrawn_bucket: separate", "withdrawn_bucket: hidden", 1)))
		assert.ErrorIs(t, err, errInvalidBucketMode)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})
}

func TestPostgresURL(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss", DB: "events", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss@db:5432/events?sslmode=disable", c.URL())
}

func TestPolicyReloadsOnFileChange(t *testing.T) {
	path := writeConfig(t, testConfig)
	conf, err := Load(path)
	require.NoError(t, err)

	updated := strings.Replace(testConfig, "sweep_max_rounds: 3", "sweep_max_rounds: 8", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	assert.Eventually(t, func() bool {
		return conf.Participants.Policy().SweepMaxRounds == 8
	}, 5*time.Second, 50*time.Millisecond)
}
