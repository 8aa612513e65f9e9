// Package config loads service configuration from config.yml and VACATION_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/warp/vacation-engine/factory"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

// EnvPrefix prefixes every environment override, e.g. VACATION_DATABASE_PATH.
const EnvPrefix = "VACATION"

type Config struct {
	Server   ServerConfig   `mapstructure:"http_server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Vacation VacationConfig `mapstructure:"vacation"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type LoggingConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type VacationConfig struct {
	PolicyFile       string        `mapstructure:"policy_file"`
	Holidays         []string      `mapstructure:"holidays"`
	HolidayFile      string        `mapstructure:"holiday_file"`
	Supervisors      []string      `mapstructure:"supervisors"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	AdminDepartments []AdminScope  `mapstructure:"admin_departments"`
}

// AdminScope restricts an "admin" role user to one department.
type AdminScope struct {
	Email      string `mapstructure:"email"`
	Department string `mapstructure:"department"`
}

// Load reads config.yml from dir (if present) and applies environment
// overrides. A missing file is not an error; defaults and env still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.allowed_origins", "*")
	v.SetDefault("http_server.read_header_timeout", 5*time.Second)
	v.SetDefault("http_server.read_timeout", 15*time.Second)
	v.SetDefault("http_server.write_timeout", 15*time.Second)
	v.SetDefault("http_server.idle_timeout", 60*time.Second)
	v.SetDefault("http_server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.path", "./data/vacation.db")

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_issuer", "")

	v.SetDefault("logging.env", "development")
	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("vacation.policy_file", "")
	v.SetDefault("vacation.holidays", []string{})
	v.SetDefault("vacation.holiday_file", "")
	v.SetDefault("vacation.supervisors", []string{})
	v.SetDefault("vacation.reminder_interval", 24*time.Hour)
	v.SetDefault("vacation.admin_departments", []AdminScope{})
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if c.Database.Path == "" {
		errs = append(errs, "database config: path is required")
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics config: path must start with /")
	}
	if err := c.Vacation.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("vacation config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins on commas.
func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
}

func (c *VacationConfig) Validate() error {
	if c.ReminderInterval < 0 {
		return errors.New("reminder_interval must not be negative")
	}
	for _, scope := range c.AdminDepartments {
		if scope.Email == "" || scope.Department == "" {
			return errors.New("admin_departments entries need email and department")
		}
	}
	if _, err := generic.ParseHolidayList(c.Holidays); err != nil {
		return err
	}
	return nil
}

// ----------------- WIRING HELPERS -----------------

// HolidayCalendar merges the inline holiday list with the holiday file.
func (c *VacationConfig) HolidayCalendar() (*generic.StaticHolidayCalendar, error) {
	holidays, err := generic.ParseHolidayList(c.Holidays)
	if err != nil {
		return nil, err
	}
	if c.HolidayFile != "" {
		fromFile, err := generic.LoadHolidayFile(c.HolidayFile)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, fromFile...)
	}
	return generic.NewStaticHolidayCalendar(holidays), nil
}

// Policy loads the policy file, or returns the default policy when none is set.
func (c *VacationConfig) Policy() (timeoff.Policy, error) {
	if c.PolicyFile == "" {
		return timeoff.DefaultPolicy(), nil
	}
	return factory.NewPolicyFactory().LoadFile(c.PolicyFile)
}

// DepartmentsByAdmin indexes AdminDepartments by normalized email.
func (c *VacationConfig) DepartmentsByAdmin() map[string]string {
	out := make(map[string]string, len(c.AdminDepartments))
	for _, scope := range c.AdminDepartments {
		out[timeoff.NormalizeEmail(scope.Email)] = scope.Department
	}
	return out
}
