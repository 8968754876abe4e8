// Package swarm fans a plan's tasks out to providers concurrently and
// collects one result per task.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/extract"
	"github.com/aristath/roundtable/internal/improve"
	"github.com/aristath/roundtable/internal/launch"
	"github.com/aristath/roundtable/internal/plan"
	"github.com/aristath/roundtable/internal/provider"
)

const (
	agent        = "SwarmBuilder"
	improveAgent = "SelfImprove"

	ansiRed = "\x1b[31m"

	codeSystem = "You are an expert autonomous code generator. Output ONLY raw code, no markdown fences, no backticks, no explanatory text."
	cmdSystem  = "You are an expert DevOps terminal bot. Output ONLY the command string."
)

// ErrLeakedError is returned when a provider's text looks like an error message.
var ErrLeakedError = errors.New("provider returned an error instead of output")

// Generator produces file content for a task; the sub-swarm pipeline.
type Generator interface {
	Run(ctx context.Context, task plan.Task, system string) (string, error)
}

// CommandRunner launches a shell command detached.
type CommandRunner interface {
	Run(ctx context.Context, providerName, command string) (launch.Result, error)
}

// SkillSource returns skill text, or "" when absent.
type SkillSource interface {
	Load(name string) string
}

// Absorber ingests written files into short-term memory.
type Absorber interface {
	Absorb(ctx context.Context, filename, content string) error
}

// Improver runs one self-improvement cycle.
type Improver interface {
	RunCycle(ctx context.Context) (*improve.Report, error)
}

// BuilderConfig configures the builder. Skills, Memory and Improver may be nil.
type BuilderConfig struct {
	OutputDir        string
	ConcurrencyLimit int // 0 = unbounded
	Catalog          provider.Catalog
	Pipeline         Generator
	Commands         CommandRunner
	Skills           SkillSource
	Memory           Absorber
	Improver         Improver
	Logger           *events.Logger
}

// Builder is the task executor.
type Builder struct {
	config BuilderConfig
	log    *events.Logger

	mu       sync.Mutex
	idle     *sync.Cond
	inFlight int // running Delegate calls and improvement cycles
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "completions"
	}
	b := &Builder{config: cfg, log: cfg.Logger}
	b.idle = sync.NewCond(&b.mu)
	return b
}

func (b *Builder) track() {
	b.mu.Lock()
	b.inFlight++
	b.mu.Unlock()
}

func (b *Builder) untrack() {
	b.mu.Lock()
	b.inFlight--
	if b.inFlight == 0 {
		b.idle.Broadcast()
	}
	b.mu.Unlock()
}

// Delegate runs every task concurrently and returns one result per task, in
// task order, once all of them have finished. One task's failure never
// affects another. When any task succeeds, an improvement cycle is started in
// the background; Delegate does not wait for it.
func (b *Builder) Delegate(ctx context.Context, objective string, tasks []plan.Task) []plan.Result {
	b.track()
	defer b.untrack()

	if len(tasks) == 0 {
		b.log.Log(agent, "No tasks generated. Swarm aborted.")
		return nil
	}

	available := b.config.Catalog.ListHealthy(ctx)
	b.log.Logf(agent, "Launching %d parallel swarm tasks...", len(tasks))

	results := make([]plan.Result, len(tasks))

	var g errgroup.Group
	if b.config.ConcurrencyLimit > 0 {
		g.SetLimit(b.config.ConcurrencyLimit)
	}
	for i, task := range tasks {
		if name := provider.Remap(task.Provider, available); name != "" {
			task.Provider = name
		}
		g.Go(func() error {
			results[i] = b.executeTask(ctx, objective, task)
			return nil // task errors live in results
		})
	}
	_ = g.Wait()

	summary := plan.Summarize(results)
	b.log.Logf(agent, "Swarm complete: %d/%d succeeded, %d failed.", summary.Succeeded, len(tasks), summary.Failed)
	b.log.Emit(events.SwarmFinishedEvent{Succeeded: summary.Succeeded, Failed: summary.Failed, Timestamp: time.Now()})

	if summary.Succeeded > 0 && b.config.Improver != nil {
		b.startImprovement(ctx)
	}
	return results
}

// Wait blocks until in-flight Delegate calls and the improvement cycles they
// started have finished.
func (b *Builder) Wait() {
	b.mu.Lock()
	for b.inFlight > 0 {
		b.idle.Wait()
	}
	b.mu.Unlock()
}

func (b *Builder) startImprovement(ctx context.Context) {
	b.log.Log(improveAgent, "Auto-triggering self-improvement cycle on new completions...")
	ctx = context.WithoutCancel(ctx)

	b.track()
	go func() {
		defer b.untrack()
		report, err := b.config.Improver.RunCycle(ctx)
		if err != nil {
			b.log.Warn(improveAgent, fmt.Sprintf("Auto-improve skipped: %v", err))
			return
		}
		b.log.Logf(improveAgent, "Auto-improve done: %d improved, %d skipped.", report.Improved, report.Skipped)
	}()
}

func (b *Builder) executeTask(ctx context.Context, objective string, task plan.Task) plan.Result {
	start := time.Now()
	kind := task.Kind()

	b.log.Logf(task.Provider, "Started: %s -> %s", task.Name, task.Target())
	b.log.Emit(events.TaskStartedEvent{Name: task.Name, Kind: string(kind), Provider: task.Provider, Timestamp: start})

	var (
		res plan.Result
		err error
	)
	switch kind {
	case plan.KindCommand:
		res, err = b.runCommand(ctx, objective, task)
	case plan.KindFile:
		res, err = b.generateFile(ctx, task)
	default:
		res = plan.Result{Task: task.Name, Provider: task.Provider, Success: true, Kind: plan.KindInstructions}
	}

	if err != nil {
		b.log.Warn(task.Provider, fmt.Sprintf("FAILED: %s: %s", task.Name, truncate(err.Error(), 200)))
		b.log.Emit(events.TaskFailedEvent{Name: task.Name, Kind: string(kind), Err: err, Duration: time.Since(start), Timestamp: time.Now()})
		return plan.Result{Task: task.Name, Provider: task.Provider, Success: false, Kind: kind, Error: err.Error()}
	}

	b.log.Emit(events.TaskCompletedEvent{Name: task.Name, Kind: string(kind), Filename: res.Filename, Duration: time.Since(start), Timestamp: time.Now()})
	return res
}

func (b *Builder) runCommand(ctx context.Context, objective string, task plan.Task) (plan.Result, error) {
	command := strings.TrimSpace(task.Command)

	if task.GeneratesCommand() {
		prompt := fmt.Sprintf("Objective: %q. Task: %s. Return ONLY the exact safe shell command string to execute. No explanation.",
			objective, task.Instructions)
		out, err := b.config.Catalog.Resolve(task.Provider).Generate(ctx, prompt, cmdSystem)
		if err != nil {
			return plan.Result{}, fmt.Errorf("generating command: %w", err)
		}
		command = strings.TrimSpace(strings.ReplaceAll(out, "`", ""))
		b.log.Logf(task.Provider, "Generated command: %s", command)
	}

	if command == "" {
		return plan.Result{}, fmt.Errorf("generating command: %w", provider.ErrEmptyResponse)
	}
	if looksLikeCommandError(command) {
		return plan.Result{}, fmt.Errorf("%w: %s", ErrLeakedError, truncate(command, 100))
	}

	launched, err := b.config.Commands.Run(ctx, task.Provider, command)
	if err != nil {
		return plan.Result{}, err
	}
	b.log.Logf(task.Provider, "Deployed session [%s]: %s", launched.Session, task.Name)

	return plan.Result{
		Task:     task.Name,
		Provider: task.Provider,
		Success:  true,
		Kind:     plan.KindCommand,
		Session:  launched.Session,
	}, nil
}

func (b *Builder) generateFile(ctx context.Context, task plan.Task) (plan.Result, error) {
	system := b.systemContext(task)

	b.log.Logf(task.Provider, "Deploying HiveMind Sub-Swarm for %s...", task.Filename)
	code, err := b.config.Pipeline.Run(ctx, task, system)
	if err != nil {
		return plan.Result{}, err
	}
	if looksLikeCodeError(code) {
		return plan.Result{}, fmt.Errorf("%w: %s", ErrLeakedError, truncate(code, 150))
	}

	name := OutputName(task.Filename)
	path := filepath.Join(b.config.OutputDir, name)
	clean := extract.ScrubFences(code)

	if err := os.MkdirAll(b.config.OutputDir, 0o755); err != nil {
		return plan.Result{}, fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(clean), 0o644); err != nil {
		return plan.Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	b.log.Logf(task.Provider, "Saved module: %s", path)

	if b.config.Memory != nil {
		if err := b.config.Memory.Absorb(ctx, name, clean); err != nil {
			b.log.Logf("MemoryEngine", "Absorption skipped for %s: %v", name, err)
		} else {
			b.log.Logf("MemoryEngine", "Absorbed %s into short-term memory.", name)
		}
	}

	return plan.Result{
		Task:     task.Name,
		Provider: task.Provider,
		Success:  true,
		Kind:     plan.KindFile,
		Filename: name,
	}, nil
}

// systemContext seeds the raw-code instruction and appends each non-empty skill.
func (b *Builder) systemContext(task plan.Task) string {
	var sb strings.Builder
	sb.WriteString(codeSystem)
	if b.config.Skills == nil || len(task.Skills) == 0 {
		return sb.String()
	}
	b.log.Logf(task.Provider, "Injecting skills for %s: %s", task.Name, strings.Join(task.Skills, ", "))
	for _, name := range task.Skills {
		if data := b.config.Skills.Load(name); data != "" {
			fmt.Fprintf(&sb, "\n\n--- SKILL CONTEXT: %s ---\n%s", name, data)
		}
	}
	return sb.String()
}

// OutputName derives a collision-safe base name: <name>_<uuid><ext>.
func OutputName(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + uuid.NewString() + ext
}

// looksLikeCommandError catches error text passed off as a command.
// It only inspects the text; it is not a safety filter.
func looksLikeCommandError(s string) bool {
	return strings.HasPrefix(s, ansiRed) || strings.Contains(strings.ToLower(s), "error")
}

// looksLikeCodeError is looser than looksLikeCommandError since code mentions errors routinely.
func looksLikeCodeError(s string) bool {
	if strings.HasPrefix(s, ansiRed) {
		return true
	}
	return strings.HasPrefix(s, "[") && strings.Contains(strings.ToLower(s), "error")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
