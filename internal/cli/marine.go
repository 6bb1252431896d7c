package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/seareport/seadata"
)

// execMarine fetches marine-service products by running the Copernicus
// Marine toolbox.
type execMarine struct {
	command string
	logger  *slog.Logger
}

func (m execMarine) Get(ctx context.Context, req seadata.MarineRequest) error {
	args := []string{
		"get",
		"--dataset-id", req.DatasetID,
		"--dataset-version", req.Version,
		"--output-directory", req.OutputDir,
		"--no-directories",
		"--disable-progress-bar",
	}
	if req.Filename != "" {
		args = append(args, "--filter", "*"+req.Filename)
	}
	m.logger.Debug("running marine toolbox",
		slog.String("command", m.command),
		slog.String("args", strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.command, args...) //nolint:gosec // command is operator configuration
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", m.command, err)
		}
		return fmt.Errorf("%s: %w: %s", m.command, err, msg)
	}
	return nil
}
