package veldt

import (
	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// RunMode distinguishes a local development run from a production deployment.
type RunMode string

const (
	RunModeDev  RunMode = "development"
	RunModeProd RunMode = "production"
)

const (
	DefaultNamespace = "veldt-game"
	DefaultLogLevel  = "info"
	DefaultTickRate  = 20
)

var defaultConfig = AppConfig{
	VeldtNamespace:           DefaultNamespace,
	VeldtMode:                RunModeDev,
	VeldtLogLevel:            DefaultLogLevel,
	VeldtLogPretty:           false,
	VeldtTickRate:            DefaultTickRate,
	StatsdAddress:            "",
	TelemetryTraceEnabled:    false,
	TelemetryProfilerEnabled: false,
}

// AppConfig is loaded from the environment when an App is created. Fields
// keep their default when the corresponding variable is unset.
type AppConfig struct {
	// VeldtNamespace is a unique identifier for this engine instance.
	VeldtNamespace string `config:"VELDT_NAMESPACE"`
	// VeldtMode must be either "development" or "production".
	VeldtMode RunMode `config:"VELDT_MODE"`
	// VeldtLogLevel is any level accepted by zerolog.ParseLevel.
	VeldtLogLevel string `config:"VELDT_LOG_LEVEL"`
	// VeldtLogPretty switches the app logger to human-readable console output.
	VeldtLogPretty bool `config:"VELDT_LOG_PRETTY"`
	// VeldtTickRate is how many ticks the game loop runs per second.
	VeldtTickRate int `config:"VELDT_TICK_RATE"`
	// StatsdAddress is the address of a statsd agent to emit metrics to.
	// Metrics are disabled when empty.
	StatsdAddress string `config:"STATSD_ADDRESS"`
	// TelemetryTraceEnabled turns on trace spans around each tick.
	TelemetryTraceEnabled bool `config:"TELEMETRY_TRACE_ENABLED"`
	// TelemetryProfilerEnabled turns on continuous CPU and heap profiling.
	TelemetryProfilerEnabled bool `config:"TELEMETRY_PROFILER_ENABLED"`
}

func loadAppConfig() (*AppConfig, error) {
	cfg := defaultConfig
	if err := config.FromEnv().To(&cfg); err != nil {
		return nil, eris.Wrap(err, "failed to load config from environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid app config")
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot start with. Config
// problems are surfaced here, at startup, never mid-tick.
func (cfg AppConfig) Validate() error {
	if err := Namespace(cfg.VeldtNamespace).Validate(); err != nil {
		return err
	}
	if cfg.VeldtMode != RunModeDev && cfg.VeldtMode != RunModeProd {
		return eris.Errorf("VELDT_MODE must be %q or %q, got %q", RunModeDev, RunModeProd, cfg.VeldtMode)
	}
	if _, err := zerolog.ParseLevel(cfg.VeldtLogLevel); err != nil {
		return eris.Wrapf(err, "VELDT_LOG_LEVEL %q is invalid", cfg.VeldtLogLevel)
	}
	if cfg.VeldtTickRate <= 0 {
		return eris.Errorf("VELDT_TICK_RATE must be positive, got %d", cfg.VeldtTickRate)
	}
	return nil
}
