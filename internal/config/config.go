package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

// CarrierConfig describes the single carrier this service tracks: its base
// (terminal) coordinate and the timezone whose calendar days anchor every
// rolling window.
type CarrierConfig struct {
	BaseLat  float64
	BaseLng  float64
	Timezone string
}

// ComplianceRules carries every regulatory threshold as injected
// configuration. Jurisdictional changes touch this struct and nothing else.
type ComplianceRules struct {
	MaxDrivingHoursPerDay float64
	MaxOnDutyHoursPerDay  float64
	MinOffDutyHours       float64
	WeeklyLimitHours      float64
	WeeklyWindowDays      int
	ExemptionRadiusNM     float64
	ExemptionMaxDays      int
	ExemptionWindowDays   int
	WarnAtFraction        float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Carrier     CarrierConfig
	Rules       ComplianceRules
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Carrier: CarrierConfig{
			BaseLat:  v.GetFloat64("HOS_BASE_LAT"),
			BaseLng:  v.GetFloat64("HOS_BASE_LNG"),
			Timezone: v.GetString("HOS_TIMEZONE"),
		},
		Rules: ComplianceRules{
			MaxDrivingHoursPerDay: v.GetFloat64("HOS_MAX_DRIVING_HOURS"),
			MaxOnDutyHoursPerDay:  v.GetFloat64("HOS_MAX_ON_DUTY_HOURS"),
			MinOffDutyHours:       v.GetFloat64("HOS_MIN_OFF_DUTY_HOURS"),
			ExemptionRadiusNM:     v.GetFloat64("HOS_EXEMPTION_RADIUS_NM"),
			ExemptionMaxDays:      v.GetInt("HOS_EXEMPTION_MAX_DAYS"),
			ExemptionWindowDays:   v.GetInt("HOS_EXEMPTION_WINDOW_DAYS"),
			WarnAtFraction:        v.GetFloat64("HOS_WARN_AT_FRACTION"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7092
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Carrier.Timezone == "" {
		cfg.Carrier.Timezone = "UTC"
	}
	applyRuleDefaults(&cfg.Rules)

	pattern := v.GetString("HOS_OPERATING_PATTERN")
	if pattern == "" {
		pattern = "60_7"
	}
	switch pattern {
	case "60_7":
		cfg.Rules.WeeklyLimitHours = 60
		cfg.Rules.WeeklyWindowDays = 7
	case "70_8":
		cfg.Rules.WeeklyLimitHours = 70
		cfg.Rules.WeeklyWindowDays = 8
	default:
		return nil, fmt.Errorf("HOS_OPERATING_PATTERN must be 60_7 or 70_8, got %q", pattern)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyRuleDefaults(r *ComplianceRules) {
	if r.MaxDrivingHoursPerDay <= 0 {
		r.MaxDrivingHoursPerDay = 10
	}
	if r.MaxOnDutyHoursPerDay <= 0 {
		r.MaxOnDutyHoursPerDay = 15
	}
	if r.MinOffDutyHours <= 0 {
		r.MinOffDutyHours = 8
	}
	if r.ExemptionRadiusNM <= 0 {
		r.ExemptionRadiusNM = 150
	}
	if r.ExemptionMaxDays <= 0 {
		r.ExemptionMaxDays = 8
	}
	if r.ExemptionWindowDays <= 0 {
		r.ExemptionWindowDays = 30
	}
	if r.WarnAtFraction <= 0 || r.WarnAtFraction >= 1 {
		r.WarnAtFraction = 0.8
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Carrier.BaseLat < -90 || cfg.Carrier.BaseLat > 90 {
		return fmt.Errorf("HOS_BASE_LAT out of range: %v", cfg.Carrier.BaseLat)
	}
	if cfg.Carrier.BaseLng < -180 || cfg.Carrier.BaseLng > 180 {
		return fmt.Errorf("HOS_BASE_LNG out of range: %v", cfg.Carrier.BaseLng)
	}
	if _, err := time.LoadLocation(cfg.Carrier.Timezone); err != nil {
		return fmt.Errorf("HOS_TIMEZONE invalid: %w", err)
	}
	return nil
}
