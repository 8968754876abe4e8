package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLauncher struct {
	script, session string
	err             error
}

func (r *recordingLauncher) LaunchDetached(ctx context.Context, scriptPath, session string) (Result, error) {
	r.script, r.session = scriptPath, session
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Session: session, Script: scriptPath}, nil
}

func TestSessionName(t *testing.T) {
	re := regexp.MustCompile(`^swarm_deep_seek_[0-9a-f]{8}$`)
	name := SessionName("Deep Seek")
	assert.Regexp(t, re, name)
	assert.NotEqual(t, name, SessionName("Deep Seek"))
}

func TestWriteScript(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteScript(dir, "swarm_gpt_abcd1234", "npm install")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "swarm_gpt_abcd1234.sh"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\nnpm install\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	_, err = WriteScript(dir, "swarm_gpt_abcd1234", "again")
	assert.Error(t, err, "existing script is never overwritten")
}

func TestRunner_Run(t *testing.T) {
	rec := &recordingLauncher{}
	r := &Runner{Launcher: rec, ScriptDir: t.TempDir()}

	res, err := r.Run(context.Background(), "GPT", "rm -rf /tmp/build")
	require.NoError(t, err)
	assert.Equal(t, rec.session, res.Session)
	assert.Equal(t, rec.script, res.Script)
	assert.FileExists(t, res.Script)
}

func TestRunner_LaunchFailure(t *testing.T) {
	rec := &recordingLauncher{err: errors.New("no server")}
	r := &Runner{Launcher: rec, ScriptDir: t.TempDir()}

	_, err := r.Run(context.Background(), "GPT", "ls")
	assert.Error(t, err)
}

func TestTmux_MissingBinary(t *testing.T) {
	_, err := Tmux{Binary: "/nonexistent/tmux"}.LaunchDetached(context.Background(), "/bin/true", "swarm_x")
	assert.Error(t, err)
}
