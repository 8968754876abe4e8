// Package launch starts shell commands in detached, named terminal sessions
// that outlive the orchestrator.
package launch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aristath/roundtable/internal/proc"
)

// Result describes a launched session.
type Result struct {
	Session string
	Script  string
}

// ProcessLauncher starts scriptPath in a detached session named session.
// Success means the session started; the command's completion is not observed.
type ProcessLauncher interface {
	LaunchDetached(ctx context.Context, scriptPath, session string) (Result, error)
}

// Tmux launches sessions with "tmux new-session -d".
type Tmux struct {
	// Binary defaults to "tmux".
	Binary string
}

// LaunchDetached implements ProcessLauncher.
func (t Tmux) LaunchDetached(ctx context.Context, scriptPath, session string) (Result, error) {
	bin := t.Binary
	if bin == "" {
		bin = "tmux"
	}
	cmd := proc.Command(ctx, bin, "new-session", "-d", "-s", session, scriptPath)
	if _, _, err := proc.Execute(ctx, cmd, nil); err != nil {
		return Result{}, fmt.Errorf("launching session %s: %w", session, err)
	}
	return Result{Session: session, Script: scriptPath}, nil
}

// SessionName returns a unique session name for a task assigned to providerName.
func SessionName(providerName string) string {
	name := strings.ToLower(strings.Map(func(r rune) rune {
		if r == '.' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, providerName))
	return "swarm_" + name + "_" + uuid.NewString()[:8]
}

// WriteScript writes command into <dir>/<session>.sh, readable and executable by the owner only.
func WriteScript(dir, session, command string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating script dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, session+".sh")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o700)
	if err != nil {
		return "", fmt.Errorf("creating script %s: %w", path, err)
	}
	if _, err := f.WriteString("#!/bin/bash\n" + command + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("writing script %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing script %s: %w", path, err)
	}
	return path, nil
}

// Runner writes a command to a script and launches it detached.
type Runner struct {
	Launcher  ProcessLauncher
	ScriptDir string
}

// Run launches command for a task assigned to providerName.
func (r *Runner) Run(ctx context.Context, providerName, command string) (Result, error) {
	session := SessionName(providerName)
	script, err := WriteScript(r.ScriptDir, session, command)
	if err != nil {
		return Result{}, err
	}
	return r.Launcher.LaunchDetached(ctx, script, session)
}
