package improve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/roundtable/internal/proc"
)

// DefaultValidatorTimeout bounds one validator run.
const DefaultValidatorTimeout = 30 * time.Second

// SubprocessValidator runs the safety gates in a child process that reads
// {filename, original, proposed} on stdin and writes {pass, reasons} on stdout.
type SubprocessValidator struct {
	Path    string
	Args    []string
	Timeout time.Duration
	// Processes tracks the child so shutdown can kill it; may be nil.
	Processes *proc.ProcessManager
}

type validateRequest struct {
	Filename string `json:"filename"`
	Original string `json:"original"`
	Proposed string `json:"proposed"`
}

// Validate implements Validator. A timeout, crash or unreadable reply is an error.
func (v *SubprocessValidator) Validate(ctx context.Context, filename, original, proposed string) (Verdict, error) {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultValidatorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	input, err := json.Marshal(validateRequest{Filename: filename, Original: original, Proposed: proposed})
	if err != nil {
		return Verdict{}, fmt.Errorf("marshaling validation request: %w", err)
	}

	cmd := proc.Command(ctx, v.Path, v.Args...)
	cmd.Stdin = bytes.NewReader(input)

	stdout, _, err := proc.Execute(ctx, cmd, v.Processes)
	if err != nil {
		return Verdict{}, fmt.Errorf("validator: %w", err)
	}

	var verdict Verdict
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("validator reply: %w", err)
	}
	return verdict, nil
}
