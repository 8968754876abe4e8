package improve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/proc"
)

func TestSubprocessValidator(t *testing.T) {
	v := &SubprocessValidator{
		Path: "bash",
		Args: []string{"-c", `grep -q '"filename":"a.go"' && echo '{"pass":true,"reasons":["APPROVED"]}'`},
	}
	verdict, err := v.Validate(context.Background(), "a.go", "old", "new")
	require.NoError(t, err)
	assert.True(t, verdict.Pass)
	assert.Equal(t, []string{"APPROVED"}, verdict.Reasons)
}

func TestSubprocessValidator_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
	}{
		{"crash", "exit 3", 0},
		{"garbage reply", "echo not-json", 0},
		{"timeout", "sleep 5", 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := proc.NewProcessManager()
			v := &SubprocessValidator{Path: "bash", Args: []string{"-c", tt.script}, Timeout: tt.timeout, Processes: pm}

			start := time.Now()
			_, err := v.Validate(context.Background(), "a.go", "old", "new")
			assert.Error(t, err)
			assert.Less(t, time.Since(start), 4*time.Second)
			assert.Equal(t, 0, pm.Count())
		})
	}
}
