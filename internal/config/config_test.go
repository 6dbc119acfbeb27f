package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, int64(100), cfg.Domain.SignupBonus)
	assert.True(t, cfg.Domain.EnforceCommunityMembershipGate)
	assert.Equal(t, 50, cfg.Domain.PostsDefaultLimit)
	assert.Equal(t, 200, cfg.Domain.PostsMaxLimit)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.ReconcileInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ENFORCE_COMMUNITY_MEMBERSHIP_GATE", "false")
	t.Setenv("OUTBOX_INTERVAL", "3s")
	t.Setenv("SIGNUP_BONUS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Domain.EnforceCommunityMembershipGate)
	assert.Equal(t, 3*time.Second, cfg.Jobs.OutboxInterval)
	assert.Equal(t, int64(250), cfg.Domain.SignupBonus)
	assert.Contains(t, cfg.DSN(), "@tcp(localhost:5432)/community")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
db:
  driver: memory
domain:
  enforce_community_membership_gate: false
  posts_default_limit: 20
  posts_max_limit: 100
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port, "env wins over file")
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.False(t, cfg.Domain.EnforceCommunityMembershipGate)
	assert.Equal(t, 20, cfg.Domain.PostsDefaultLimit)
	assert.Equal(t, int64(100), cfg.Domain.SignupBonus, "untouched keys keep defaults")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.DB.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.AppEnv = "production"
	assert.Error(t, cfg.Validate(), "default secrets rejected in production")

	cfg.JWT.AccessSecret = "a"
	cfg.JWT.RefreshSecret = "b"
	assert.NoError(t, cfg.Validate())

	cfg.Domain.PostsMaxLimit = 10
	assert.Error(t, cfg.Validate())
}

func TestDSNPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.DB.Password = "pw"
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=community sslmode=disable TimeZone=UTC", cfg.DSN())

	cfg.DB.DSN = "explicit"
	assert.Equal(t, "explicit", cfg.DSN())
}

func TestDSNMySQLCountsMatchedRows(t *testing.T) {
	cfg := Defaults()
	cfg.DB.Driver = "mysql"
	cfg.DB.User = "root"
	cfg.DB.Password = "pw"

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "root:pw@tcp(localhost:5432)/community?")
	// 未变化的行也计入 RowsAffected
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=True")
}

func TestLocation(t *testing.T) {
	cfg := Defaults()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TIMEZONE", "UTC")
	loaded, err := Load()
	require.NoError(t, err)
	loc, err = loaded.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Domain.Timezone = "Nowhere/Atlantis"
	assert.Error(t, cfg.Validate())
}
