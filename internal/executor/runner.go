package executor

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ExecRunner runs external programs with os/exec
type ExecRunner struct {
	logger *zap.Logger
}

// NewCommandRunner creates the process-backed command runner
func NewCommandRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes name with args and returns the combined output
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Debug("Running command", zap.String("command", name), zap.Strings("args", args))

	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w (output: %s)", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// fileURI converts an absolute path to a file:// URI
func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// pathFromURI accepts either a file:// URI or a plain path
func pathFromURI(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `'"`)
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return strings.TrimPrefix(s, "file://")
	}
	return u.Path
}
