package appwatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandProvider shells out to a configured command that prints the current
// foreground application identifier. It keeps the daemon portable: whatever
// mechanism the platform offers (xdotool, kdotool, a compositor IPC query)
// can be wired in without recompiling.
type CommandProvider struct {
	command string
	timeout time.Duration
}

func NewCommandProvider(command string) *CommandProvider {
	return &CommandProvider{command: command, timeout: 5 * time.Second}
}

func (p *CommandProvider) Foreground(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, "sh", "-c", p.command).Output()
	if err != nil {
		return "", fmt.Errorf("run foreground command: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
