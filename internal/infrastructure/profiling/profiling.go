// Package profiling starts the optional pprof side server and Pyroscope
// continuous profiling.
package profiling

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // bound to localhost only
	"os"
	"runtime"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
)

const (
	defaultPprofPort     = "6060"
	defaultPyroscopeURL  = "http://pyroscope:4040"
	defaultEnvironment   = "development"
	pprofReadHeaderLimit = 5 * time.Second
)

// Config controls both profilers. Both are off unless enabled.
type Config struct {
	PprofEnabled      bool   `env:"ENABLE_PROFILING"            yaml:"pprof_enabled"`
	PprofPort         string `env:"PPROF_PORT"                  yaml:"pprof_port"`
	PyroscopeEnabled  bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope_enabled"`
	PyroscopeURL      string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_url"`
	PyroscopeEnv      string `env:"PYROSCOPE_ENVIRONMENT"       yaml:"pyroscope_environment"`
	ApplicationPrefix string `yaml:"application_prefix"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PprofPort == "" {
		c.PprofPort = defaultPprofPort
	}
	if c.PyroscopeURL == "" {
		c.PyroscopeURL = defaultPyroscopeURL
	}
	if c.PyroscopeEnv == "" {
		c.PyroscopeEnv = defaultEnvironment
	}
	if c.ApplicationPrefix == "" {
		c.ApplicationPrefix = "north-cloud"
	}
}

// StartPprofServer serves net/http/pprof on localhost in the background.
func StartPprofServer(cfg Config, log logger.Logger) {
	if !cfg.PprofEnabled {
		return
	}

	addr := net.JoinHostPort("localhost", cfg.PprofPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: pprofReadHeaderLimit,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
}

// Profiler wraps a running Pyroscope profiler.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// StartPyroscope starts continuous profiling. It returns nil, nil when disabled.
func StartPyroscope(cfg Config, serviceName, version string, log logger.Logger) (*Profiler, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	appName := fmt.Sprintf("%s.%s", cfg.ApplicationPrefix, serviceName)
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.PyroscopeURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": cfg.PyroscopeEnv,
			"version":     version,
			"hostname":    hostname(),
			"go_version":  runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}

	log.Info("Pyroscope continuous profiling started",
		logger.String("application", appName),
		logger.String("server", cfg.PyroscopeURL),
		logger.String("environment", cfg.PyroscopeEnv),
	)

	return &Profiler{profiler: profiler}, nil
}

// Stop stops the profiler. Safe on a nil receiver.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
