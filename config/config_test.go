package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoad_FromFile(t *testing.T) {
	dir := writeConfig(t, `
http_server:
  port: 9090
  allowed_origins: "http://a.example, http://b.example"
security:
  jwt_secret: "`+secret+`"
vacation:
  supervisors: [elizabeth, francisco]
  holidays: ["16/09/25", "25/12/25"]
  reminder_interval: 12h
  admin_departments:
    - email: RRHH@example.com
      department: ops
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.Origins())
	assert.Equal(t, 12*time.Hour, cfg.Vacation.ReminderInterval)
	assert.Equal(t, []string{"elizabeth", "francisco"}, cfg.Vacation.Supervisors)
	assert.Equal(t, map[string]string{"rrhh@example.com": "ops"}, cfg.Vacation.DepartmentsByAdmin())
	assert.Equal(t, "./data/vacation.db", cfg.Database.Path, "default applies")

	cal, err := cfg.Vacation.HolidayCalendar()
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())
	assert.True(t, cal.IsHoliday(generic.NewTimePoint(2025, time.September, 16)))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
security:
  jwt_secret: "`+secret+`"
`)
	t.Setenv("VACATION_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("VACATION_LOGGING_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("VACATION_SECURITY_JWT_SECRET", secret)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Vacation.ReminderInterval)
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	dir := writeConfig(t, `
http_server:
  port: 0
security:
  jwt_secret: short
logging:
  level: loud
vacation:
  holidays: ["31/02/25"]
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server config")
	assert.Contains(t, err.Error(), "security config")
	assert.Contains(t, err.Error(), "logging config")
	assert.Contains(t, err.Error(), "vacation config")
}

func TestVacationConfig_Policy(t *testing.T) {
	var vc VacationConfig
	policy, err := vc.Policy()
	require.NoError(t, err)
	assert.Equal(t, timeoff.DefaultPolicy().ID, policy.ID)

	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "reform", "seniority": {"table": "reform"}}`), 0o600))
	vc.PolicyFile = path

	policy, err = vc.Policy()
	require.NoError(t, err)
	assert.Equal(t, "reform", policy.ID)
	assert.IsType(t, timeoff.ReformSeniority{}, policy.Entitlement.Seniority)
}

func TestVacationConfig_HolidayFileMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yml")
	require.NoError(t, os.WriteFile(path, []byte("holidays:\n  - date: \"01/05/25\"\n    name: Labour Day\n"), 0o600))

	vc := VacationConfig{Holidays: []string{"16/09/25"}, HolidayFile: path}
	cal, err := vc.HolidayCalendar()
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())
}
