// Package improve runs the self-improvement cycle over generated files:
// audit, gate on score, rewrite, validate, and apply with a backup.
package improve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/roundtable/internal/events"
)

const agent = "SelfImprove"

// DefaultThreshold is the score at and above which a file is left alone.
const DefaultThreshold = 7

// Outcome is the terminal state of one file.
type Outcome string

const (
	OutcomeImproved Outcome = "improved"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Audit is a quality assessment. A nil Score means the auditor gave none.
type Audit struct {
	Score       *float64 `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Verdict is the safety validator's decision.
type Verdict struct {
	Pass    bool     `json:"pass"`
	Reasons []string `json:"reasons"`
}

// Auditor scores a file.
type Auditor interface {
	Analyze(ctx context.Context, filename, content string) (Audit, error)
}

// Rewriter proposes new content fixing issue.
type Rewriter interface {
	Rewrite(ctx context.Context, filename, content, issue string) (string, error)
}

// Validator decides whether proposed may replace original.
type Validator interface {
	Validate(ctx context.Context, filename, original, proposed string) (Verdict, error)
}

// FileResult is the outcome for one file.
type FileResult struct {
	Filename          string  `json:"filename"`
	OriginalScore     float64 `json:"originalScore"`
	Improved          bool    `json:"improved"`
	Outcome           Outcome `json:"outcome"`
	Reason            string  `json:"reason"`
	ProposalGenerated bool    `json:"proposalGenerated"`
	ValidationPassed  bool    `json:"validationPassed"`
}

// Report summarizes a cycle.
type Report struct {
	SessionID    string        `json:"sessionId"`
	FilesScanned int           `json:"filesScanned"`
	Improved     int           `json:"improved"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Results      []FileResult  `json:"results"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"durationMs"`
}

func (r *Report) add(res FileResult) {
	switch res.Outcome {
	case OutcomeImproved:
		r.Improved++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

// Config configures an Engine.
type Config struct {
	Dir        string
	Threshold  float64
	Extensions []string
	Auditor    Auditor
	Rewriter   Rewriter
	Validator  Validator
	Logger     *events.Logger
}

// Engine runs improvement cycles. Cycles over the same directory are
// serialized within the process.
type Engine struct {
	config Config
	log    *events.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Engine{config: cfg, log: cfg.Logger}
}

// RunCycle processes every matching file in the directory sequentially, in
// name order. Per-file failures are recorded in the report; only an
// unreadable directory is an error. A cycle waits for any other cycle over
// the same directory to finish first.
func (e *Engine) RunCycle(ctx context.Context) (*Report, error) {
	cycleLocks.Lock(e.config.Dir)
	defer cycleLocks.Unlock(e.config.Dir)

	start := time.Now()
	report := &Report{SessionID: newSessionID(), Results: []FileResult{}}
	tag := "[" + report.SessionID + "] "

	e.log.Log(agent, tag+"Self-improvement cycle started...")

	files, err := e.listFiles()
	if err != nil {
		return nil, err
	}
	report.FilesScanned = len(files)
	e.log.Logf(agent, "%sScanning %d completion file(s)...", tag, len(files))

	for _, name := range files {
		res := e.processFile(ctx, tag, name)
		report.add(res)
		e.log.Emit(events.FileAuditedEvent{
			SessionID: report.SessionID,
			Filename:  res.Filename,
			Score:     res.OriginalScore,
			Outcome:   string(res.Outcome),
			Reason:    res.Reason,
			Timestamp: time.Now(),
		})
	}

	report.Duration = time.Since(start)
	report.DurationMs = report.Duration.Milliseconds()
	e.log.Logf(agent, "%sCycle complete in %ds, %d improved, %d skipped, %d failed.",
		tag, int(report.Duration.Round(time.Second).Seconds()), report.Improved, report.Skipped, report.Failed)
	e.log.Emit(events.ImprovementFinishedEvent{
		SessionID:    report.SessionID,
		FilesScanned: report.FilesScanned,
		Improved:     report.Improved,
		Skipped:      report.Skipped,
		Failed:       report.Failed,
		Duration:     report.Duration,
		Timestamp:    time.Now(),
	})
	return report, nil
}

func (e *Engine) listFiles() ([]string, error) {
	if err := os.MkdirAll(e.config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", e.config.Dir, err)
	}
	entries, err := os.ReadDir(e.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.config.Dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !e.matches(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

func (e *Engine) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range e.config.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func (e *Engine) processFile(ctx context.Context, tag, name string) FileResult {
	path := filepath.Join(e.config.Dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Logf(agent, "%sCould not read %s: %v", tag, name, err)
		return FileResult{Filename: name, Outcome: OutcomeFailed, Reason: fmt.Sprintf("Read error: %v", err)}
	}
	content := string(data)

	audit, err := e.config.Auditor.Analyze(ctx, name, content)
	if err != nil {
		e.log.Logf(agent, "%sAudit failed for %s, skipping...", tag, name)
		return FileResult{Filename: name, OriginalScore: -1, Outcome: OutcomeSkipped, Reason: fmt.Sprintf("Audit error: %v", err)}
	}
	score := 10.0
	if audit.Score != nil {
		score = *audit.Score
	}
	e.log.Logf(agent, "%s%s: quality score %g/10", tag, name, score)

	if score >= e.config.Threshold {
		e.log.Logf(agent, "%s%s: score acceptable, no action needed.", tag, name)
		return FileResult{
			Filename:      name,
			OriginalScore: score,
			Outcome:       OutcomeSkipped,
			Reason:        fmt.Sprintf("Score acceptable (≥%g)", e.config.Threshold),
		}
	}

	issue := describeIssue(audit.Issues, score)
	e.log.Logf(agent, "%s%s: score %g/10, requesting rewrite...", tag, name, score)

	proposed, err := e.config.Rewriter.Rewrite(ctx, name, content, issue)
	if err != nil {
		e.log.Logf(agent, "%sRewrite request failed for %s: %v", tag, name, err)
		return FileResult{Filename: name, OriginalScore: score, Outcome: OutcomeFailed, Reason: fmt.Sprintf("Rewrite error: %v", err)}
	}
	if strings.TrimSpace(proposed) == "" {
		e.log.Logf(agent, "%sEmpty rewrite proposal for %s.", tag, name)
		return FileResult{Filename: name, OriginalScore: score, Outcome: OutcomeFailed, Reason: "Empty rewrite proposal"}
	}

	verdict, err := e.config.Validator.Validate(ctx, name, content, proposed)
	if err != nil || !verdict.Pass {
		reason := "Safety validation failed"
		switch {
		case err != nil:
			reason += ": " + err.Error()
		case len(verdict.Reasons) > 0:
			reason += ": " + strings.Join(verdict.Reasons, "; ")
		}
		e.log.Logf(agent, "%s%s: validation FAILED, original kept.", tag, name)
		return FileResult{Filename: name, OriginalScore: score, Outcome: OutcomeFailed, Reason: reason, ProposalGenerated: true}
	}

	if err := apply(path, data, proposed); err != nil {
		e.log.Logf(agent, "%sFailed to write patch for %s: %v", tag, name, err)
		return FileResult{
			Filename:          name,
			OriginalScore:     score,
			Outcome:           OutcomeFailed,
			Reason:            fmt.Sprintf("Write error: %v", err),
			ProposalGenerated: true,
			ValidationPassed:  true,
		}
	}

	e.log.Logf(agent, "%s%s: patched and validated (score was %g/10).", tag, name, score)
	return FileResult{
		Filename:          name,
		OriginalScore:     score,
		Improved:          true,
		Outcome:           OutcomeImproved,
		Reason:            fmt.Sprintf("Improved from score %g/10", score),
		ProposalGenerated: true,
		ValidationPassed:  true,
	}
}

// apply writes the backup before overwriting path.
func apply(path string, original []byte, proposed string) error {
	if err := os.WriteFile(path+".bak", original, 0o644); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := os.WriteFile(path, []byte(proposed), 0o644); err != nil {
		return fmt.Errorf("writing patch: %w", err)
	}
	return nil
}

func describeIssue(issues []string, score float64) string {
	if len(issues) > 3 {
		issues = issues[:3]
	}
	if joined := strings.Join(issues, "; "); joined != "" {
		return joined
	}
	return fmt.Sprintf("Score %g/10, general quality improvement", score)
}

func newSessionID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
