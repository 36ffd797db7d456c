package contract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// MinToolchainVersion is the oldest sui CLI that resolves the Sui and
// MoveStdlib framework packages implicitly, which the generated Move.toml
// relies on by leaving [dependencies] empty.
const MinToolchainVersion = "1.45.0"

const versionTimeout = 10 * time.Second

// ParseToolchainVersion reads the output of `sui --version`, for example
// "sui 1.58.2-4b3d04e0bd3a".
func ParseToolchainVersion(out string) (*semver.Version, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty version output", ErrUnsupportedToolchain)
	}
	raw := fields[len(fields)-1]
	if len(fields) > 1 {
		raw = fields[1]
	}
	raw, _, _ = strings.Cut(raw, "-")
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse version %q: %v", ErrUnsupportedToolchain, out, err)
	}
	return v, nil
}

// ToolchainVersion runs `sui --version`.
func (m *Manager) ToolchainVersion(ctx context.Context) (*semver.Version, error) {
	inv := Invocation{Executable: m.cfg.SuiBinary, Args: []string{"--version"}, Timeout: versionTimeout}
	out, err := m.runner.Run(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedToolchain, err)
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("%w: %s exited %d: %s", ErrUnsupportedToolchain, inv, out.ExitCode, strings.TrimSpace(string(out.Stderr)))
	}
	return ParseToolchainVersion(string(out.Stdout))
}

// CheckToolchain fails when the installed sui CLI is missing or older than
// MinToolchainVersion.
func (m *Manager) CheckToolchain(ctx context.Context) (*semver.Version, error) {
	v, err := m.ToolchainVersion(ctx)
	if err != nil {
		return nil, err
	}
	if v.LessThan(semver.MustParse(MinToolchainVersion)) {
		return v, fmt.Errorf("%w: sui %s is older than %s", ErrUnsupportedToolchain, v, MinToolchainVersion)
	}
	return v, nil
}
