package dramsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// EnvRoot is the environment variable naming the simulator checkout root.
const EnvRoot = "DRAMSYS_PATH"

// DefaultTimeout bounds one simulator invocation.
const DefaultTimeout = 5 * time.Minute

// Runner invokes the DRAMSys binary. Root points at the simulator checkout;
// the binary is expected at build/bin/DRAMSys beneath it.
type Runner struct {
	Root    string
	Timeout time.Duration // zero selects DefaultTimeout

	// ConfigDir receives the per-run configuration files; defaults to the
	// OS temp directory.
	ConfigDir string
}

// NewRunnerFromEnv builds a Runner from DRAMSYS_PATH, loading a .env file
// first if one is present.
func NewRunnerFromEnv() (*Runner, error) {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("loaded environment from .env")
	}
	root := os.Getenv(EnvRoot)
	if root == "" {
		return nil, fmt.Errorf("%s is not set", EnvRoot)
	}
	return &Runner{Root: root}, nil
}

// Binary returns the path of the simulator executable.
func (r *Runner) Binary() string {
	return filepath.Join(r.Root, "build", "bin", "DRAMSys")
}

// NewRunID returns a fresh unique simulation ID.
func NewRunID() string {
	return xid.New().String()
}

// Run executes one simulation and returns the report text the simulator
// wrote to stdout. The per-run configuration file is removed afterwards.
// A timeout or non-zero exit is an IO-level failure for the invocation;
// retry policy belongs to the caller.
func (r *Runner) Run(ctx context.Context, cfg SimConfig) (string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	configDir := r.ConfigDir
	if configDir == "" {
		configDir = os.TempDir()
	}
	cfgPath, err := WriteConfig(configDir, cfg)
	if err != nil {
		return "", err
	}
	defer os.Remove(cfgPath) //nolint:errcheck // best-effort cleanup

	logrus.Debugf("running simulation %s (memspec=%s, mcconfig=%s)",
		cfg.Simulation.SimulationID, cfg.Simulation.MemSpec, cfg.Simulation.MCConfig)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary(), cfgPath)
	cmd.Dir = r.Root
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), fmt.Errorf("simulation %s timed out after %s", cfg.Simulation.SimulationID, timeout)
		}
		return stdout.String(), fmt.Errorf("simulation %s failed: %w (stderr: %s)",
			cfg.Simulation.SimulationID, err, stderr.String())
	}
	return stdout.String(), nil
}
