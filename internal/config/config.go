// Package config loads and validates brew-signal's process-wide runtime
// configuration, mirroring the load/validate split used by the provider
// configuration in the upstream scanner this project's pacing layer is
// modeled on.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration (spec.md §6).
type Config struct {
	HTTP       HTTPConfig                `yaml:"http"`
	Database   DatabaseConfig            `yaml:"database"`
	Collector  CollectorConfig           `yaml:"collector"`
	Sources    map[string]SourceConfig   `yaml:"sources"`
	Signal     SignalConfig              `yaml:"signal"`
	Opportunity OpportunityConfig        `yaml:"opportunity"`
	BD         BDConfig                  `yaml:"bd"`
	Launch     LaunchConfig              `yaml:"launch"`
	Confidence ConfidenceConfig          `yaml:"confidence"`
}

// HTTPConfig configures the REST API surface.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeSecs int    `yaml:"conn_max_life_secs"`
}

// CollectorConfig configures retry/backoff/circuit-breaker behaviour
// shared by all source collectors; per-source SourceConfig entries set
// only pacing and freshness, not these values.
type CollectorConfig struct {
	Retries             int     `yaml:"retries"`              // R
	BreakerThreshold    int     `yaml:"breaker_threshold"`     // N consecutive failures
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs"` // C
	BackoffBaseSecs     float64 `yaml:"backoff_base_secs"`     // base of 2^attempt
}

// SourceConfig is per-source pacing and freshness configuration.
type SourceConfig struct {
	MinIntervalSecs float64 `yaml:"min_interval_secs"` // Δ, rate limiter gate
	FreshHours      int     `yaml:"fresh_hours"`
	WarnHours       int     `yaml:"warn_hours"`
}

// SignalConfig configures the trend aggregation engine's traffic-light
// thresholds.
type SignalConfig struct {
	TWow           float64 `yaml:"t_wow"`
	PBreak         float64 `yaml:"p_break"`
	LeadTimeWeeks  float64 `yaml:"lead_time_weeks"`
}

// OpportunityConfig configures the opportunity scorer's weights (§4.4).
type OpportunityConfig struct {
	WDemand     float64 `yaml:"w_demand"`
	WDiffusion  float64 `yaml:"w_diffusion"`
	WFit        float64 `yaml:"w_fit"`
	RSupply     float64 `yaml:"r_supply"`
	RGatekeeper float64 `yaml:"r_gatekeeper"`
	TimingLo    float64 `yaml:"timing_lo"`
	TimingHi    float64 `yaml:"timing_hi"`
	K           float64 `yaml:"k"`
}

// BDConfig configures BD allocation weights/thresholds (§4.5).
type BDConfig struct {
	BTiming      float64 `yaml:"b_timing"`
	BDemand      float64 `yaml:"b_demand"`
	BMarket      float64 `yaml:"b_market"`
	BFeasibility float64 `yaml:"b_feasibility"`
	FitGate      float64 `yaml:"fit_gate"`
	TauStart     float64 `yaml:"tau_start"`
	TauMonitor   float64 `yaml:"tau_monitor"`
	Gamma        float64 `yaml:"gamma"`
}

// LaunchConfig configures the launch-timing grid weights (§4.6).
type LaunchConfig struct {
	WDemand      float64 `yaml:"w_demand"`
	WEvent       float64 `yaml:"w_event"`
	WSaturation  float64 `yaml:"w_saturation"`
	WOpsRisk     float64 `yaml:"w_ops_risk"`
	EventPeakWeeks float64 `yaml:"event_peak_weeks"` // P
	EventSigmaWeeks float64 `yaml:"event_sigma_weeks"` // sigma
}

// ConfidenceConfig configures the source-health/confidence weights and
// penalties (§4.7).
type ConfidenceConfig struct {
	WIndicator       float64 `yaml:"w_indicator"`
	WSource          float64 `yaml:"w_source"`
	PenaltyDown      float64 `yaml:"penalty_down"`
	PenaltyWarn      float64 `yaml:"penalty_warn"`
	PenaltyMissing   float64 `yaml:"penalty_missing"`
	PenaltyCap       float64 `yaml:"penalty_cap"`
}

// Defaults returns the configuration populated with every default named
// throughout spec.md §4.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{Host: "127.0.0.1", Port: 8080},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifeSecs: 300,
		},
		Collector: CollectorConfig{
			Retries:             3,
			BreakerThreshold:    5,
			BreakerCooldownSecs: 1800,
			BackoffBaseSecs:     1,
		},
		Sources: map[string]SourceConfig{
			"pytrends":            {MinIntervalSecs: 5, FreshHours: 36, WarnHours: 96},
			"youtube":             {MinIntervalSecs: 1, FreshHours: 72, WarnHours: 168},
			"mal":                 {MinIntervalSecs: 1, FreshHours: 168, WarnHours: 336},
			"tw_ecommerce_shopee": {MinIntervalSecs: 2, FreshHours: 72, WarnHours: 168},
			"tw_ecommerce_momo":   {MinIntervalSecs: 2, FreshHours: 72, WarnHours: 168},
			"official":            {MinIntervalSecs: 2, FreshHours: 168, WarnHours: 336},
		},
		Signal: SignalConfig{TWow: 0.30, PBreak: 85, LeadTimeWeeks: 12},
		Opportunity: OpportunityConfig{
			WDemand: 0.30, WDiffusion: 0.20, WFit: 0.15,
			RSupply: 0.25, RGatekeeper: 0.10,
			TimingLo: 0.8, TimingHi: 0.4, K: 1.35,
		},
		BD: BDConfig{
			BTiming: 0.35, BDemand: 0.30, BMarket: 0.20, BFeasibility: 0.15,
			FitGate: 30, TauStart: 70, TauMonitor: 40, Gamma: 0.3,
		},
		Launch: LaunchConfig{
			WDemand: 0.4, WEvent: 0.3, WSaturation: 0.15, WOpsRisk: 0.15,
			EventPeakWeeks: 4, EventSigmaWeeks: 3,
		},
		Confidence: ConfidenceConfig{
			WIndicator: 0.6, WSource: 0.4,
			PenaltyDown: 15, PenaltyWarn: 7, PenaltyMissing: 10, PenaltyCap: 30,
		},
	}
}

// Load reads a YAML config file, overlays it onto Defaults and validates
// the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Collector.Retries < 1 {
		return fmt.Errorf("collector.retries must be >= 1")
	}
	if c.Collector.BreakerThreshold < 1 {
		return fmt.Errorf("collector.breaker_threshold must be >= 1")
	}
	if c.Collector.BreakerCooldownSecs <= 0 {
		return fmt.Errorf("collector.breaker_cooldown_secs must be > 0")
	}
	for key, sc := range c.Sources {
		if sc.MinIntervalSecs < 0 {
			return fmt.Errorf("sources.%s.min_interval_secs must be >= 0", key)
		}
		if sc.WarnHours < sc.FreshHours {
			return fmt.Errorf("sources.%s.warn_hours must be >= fresh_hours", key)
		}
	}
	if c.Signal.PBreak < 0 || c.Signal.PBreak > 100 {
		return fmt.Errorf("signal.p_break must be in [0,100]")
	}
	if c.BD.FitGate < 0 || c.BD.FitGate > 100 {
		return fmt.Errorf("bd.fit_gate must be in [0,100]")
	}
	return nil
}
