package improve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/events"
)

func score(v float64) *float64 { return &v }

type fakeAuditor struct {
	audits map[string]Audit
	errs   map[string]error
}

func (f *fakeAuditor) Analyze(ctx context.Context, filename, content string) (Audit, error) {
	if err := f.errs[filename]; err != nil {
		return Audit{}, err
	}
	return f.audits[filename], nil
}

type fakeRewriter struct {
	mu     sync.Mutex
	reply  string
	err    error
	issues map[string]string
}

func (f *fakeRewriter) Rewrite(ctx context.Context, filename, content, issue string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issues == nil {
		f.issues = make(map[string]string)
	}
	f.issues[filename] = issue
	return f.reply, f.err
}

type fakeValidator struct {
	verdict Verdict
	err     error
}

func (f *fakeValidator) Validate(ctx context.Context, filename, original, proposed string) (Verdict, error) {
	return f.verdict, f.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newEngine(dir string, a Auditor, r Rewriter, v Validator) *Engine {
	return NewEngine(Config{
		Dir:        dir,
		Extensions: []string{".js", ".go"},
		Auditor:    a,
		Rewriter:   r,
		Validator:  v,
	})
}

func TestRunCycle_GateBoundary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "six.js", "six")
	writeFile(t, dir, "seven.js", "seven")

	auditor := &fakeAuditor{audits: map[string]Audit{
		"six.js":   {Score: score(6)},
		"seven.js": {Score: score(7)},
	}}
	rewriter := &fakeRewriter{reply: "better"}
	e := newEngine(dir, auditor, rewriter, &fakeValidator{verdict: Verdict{Pass: true}})

	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesScanned)
	assert.Equal(t, 1, report.Improved)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, rewriter.issues, "six.js")
	assert.NotContains(t, rewriter.issues, "seven.js")

	// Results follow name order.
	require.Len(t, report.Results, 2)
	assert.Equal(t, "seven.js", report.Results[0].Filename)
	assert.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
	assert.Equal(t, "Score acceptable (≥7)", report.Results[0].Reason)
	assert.Equal(t, "six.js", report.Results[1].Filename)
	assert.True(t, report.Results[1].Improved)
	assert.Equal(t, "Improved from score 6/10", report.Results[1].Reason)
}

func TestRunCycle_BackupBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.go", "package app // original")

	e := newEngine(dir,
		&fakeAuditor{audits: map[string]Audit{"app.go": {Score: score(2), Issues: []string{"a", "b", "c", "d"}}}},
		&fakeRewriter{reply: "package app // patched"},
		&fakeValidator{verdict: Verdict{Pass: true}},
	)

	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Improved)
	assert.True(t, res.ProposalGenerated)
	assert.True(t, res.ValidationPassed)

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "package app // original", string(bak))

	patched, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package app // patched", string(patched))
}

func TestRunCycle_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		audit     Audit
		auditErr  error
		rewriter  *fakeRewriter
		validator *fakeValidator
		want      FileResult
		wantIssue string
		untouched bool
	}{
		{
			name:      "audit error is skipped",
			auditErr:  errors.New("connection refused"),
			rewriter:  &fakeRewriter{},
			validator: &fakeValidator{},
			want:      FileResult{OriginalScore: -1, Outcome: OutcomeSkipped, Reason: "Audit error: connection refused"},
			untouched: true,
		},
		{
			name:      "missing score counts as perfect",
			audit:     Audit{Issues: []string{"x"}},
			rewriter:  &fakeRewriter{},
			validator: &fakeValidator{},
			want:      FileResult{OriginalScore: 10, Outcome: OutcomeSkipped, Reason: "Score acceptable (≥7)"},
			untouched: true,
		},
		{
			name:      "rewrite error",
			audit:     Audit{Score: score(3)},
			rewriter:  &fakeRewriter{err: errors.New("HTTP 502")},
			validator: &fakeValidator{},
			want:      FileResult{OriginalScore: 3, Outcome: OutcomeFailed, Reason: "Rewrite error: HTTP 502"},
			wantIssue: "Score 3/10, general quality improvement",
			untouched: true,
		},
		{
			name:      "empty proposal",
			audit:     Audit{Score: score(3)},
			rewriter:  &fakeRewriter{reply: "  "},
			validator: &fakeValidator{},
			want:      FileResult{OriginalScore: 3, Outcome: OutcomeFailed, Reason: "Empty rewrite proposal"},
			untouched: true,
		},
		{
			name:      "validation rejects",
			audit:     Audit{Score: score(4), Issues: []string{"one", "two"}},
			rewriter:  &fakeRewriter{reply: "rm -rf /"},
			validator: &fakeValidator{verdict: Verdict{Pass: false, Reasons: []string{"REJECTED: Dangerous pattern"}}},
			want: FileResult{OriginalScore: 4, Outcome: OutcomeFailed, ProposalGenerated: true,
				Reason: "Safety validation failed: REJECTED: Dangerous pattern"},
			wantIssue: "one; two",
			untouched: true,
		},
		{
			name:      "validator unavailable fails safe",
			audit:     Audit{Score: score(1)},
			rewriter:  &fakeRewriter{reply: "new"},
			validator: &fakeValidator{err: errors.New("timeout")},
			want: FileResult{OriginalScore: 1, Outcome: OutcomeFailed, ProposalGenerated: true,
				Reason: "Safety validation failed: timeout"},
			untouched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "f.js", "original")

			auditor := &fakeAuditor{audits: map[string]Audit{"f.js": tt.audit}}
			if tt.auditErr != nil {
				auditor.errs = map[string]error{"f.js": tt.auditErr}
			}
			e := newEngine(dir, auditor, tt.rewriter, tt.validator)

			report, err := e.RunCycle(context.Background())
			require.NoError(t, err)
			require.Len(t, report.Results, 1)

			tt.want.Filename = "f.js"
			assert.Equal(t, tt.want, report.Results[0])
			if tt.wantIssue != "" {
				assert.Equal(t, tt.wantIssue, tt.rewriter.issues["f.js"])
			}
			if tt.untouched {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, "original", string(data))
				assert.NoFileExists(t, path+".bak")
			}
		})
	}
}

func TestRunCycle_WriteFailureKeepsFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.js", "original")
	// A directory in the backup's place makes the backup write fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "f.js.bak"), 0o755))

	e := newEngine(dir,
		&fakeAuditor{audits: map[string]Audit{"f.js": {Score: score(2)}}},
		&fakeRewriter{reply: "patched"},
		&fakeValidator{verdict: Verdict{Pass: true}},
	)

	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.True(t, res.ProposalGenerated)
	assert.True(t, res.ValidationPassed)
	assert.Contains(t, res.Reason, "Write error")
	assert.Equal(t, 1, report.Failed)
}

func TestRunCycle_ReadFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling.js")))

	e := newEngine(dir, &fakeAuditor{}, &fakeRewriter{}, &fakeValidator{})
	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, "Read error")
}

func TestRunCycle_FiltersAndCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "completions")

	e := newEngine(dir, &fakeAuditor{}, &fakeRewriter{}, &fakeValidator{})
	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesScanned)
	assert.DirExists(t, dir)

	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, "a.js.bak", "x")
	writeFile(t, dir, "B.JS", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.js"), 0o755))

	report, err = e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesScanned)
	assert.Equal(t, "B.JS", report.Results[0].Filename)
}

func TestRunCycle_StreamsEvents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "x")
	writeFile(t, dir, "b.js", "y")

	bus := events.NewEventBus()
	defer bus.Close()
	sub := bus.Subscribe(events.TopicImprove, 10)

	e := NewEngine(Config{
		Dir:        dir,
		Extensions: []string{".js"},
		Auditor:    &fakeAuditor{audits: map[string]Audit{"a.js": {Score: score(9)}, "b.js": {Score: score(8)}}},
		Rewriter:   &fakeRewriter{},
		Validator:  &fakeValidator{},
		Logger:     events.NewLogger(bus, nil),
	})
	report, err := e.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.SessionID, 6)

	var files []string
	var finished *events.ImprovementFinishedEvent
	for i := 0; i < 3; i++ {
		switch ev := (<-sub).(type) {
		case events.FileAuditedEvent:
			files = append(files, ev.Filename)
			assert.Equal(t, report.SessionID, ev.SessionID)
		case events.ImprovementFinishedEvent:
			finished = &ev
		}
	}
	assert.Equal(t, []string{"a.js", "b.js"}, files)
	require.NotNil(t, finished)
	assert.Equal(t, 2, finished.Skipped)
}
