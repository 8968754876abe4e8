package validate

import (
	"encoding/json"
	"fmt"
	"io"
)

// Serve reads one JSON Request from r and writes its JSON Verdict to w.
// It is the body of the validator child process.
func Serve(r io.Reader, w io.Writer) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decoding validation request: %w", err)
	}
	if err := json.NewEncoder(w).Encode(Validate(req)); err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}
	return nil
}
