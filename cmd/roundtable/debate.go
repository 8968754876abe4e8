package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/roundtable/internal/config"
	"github.com/aristath/roundtable/internal/console"
	"github.com/aristath/roundtable/internal/debate"
	"github.com/aristath/roundtable/internal/plan"
	"github.com/aristath/roundtable/internal/tui"
)

var (
	debateAutoApprove bool
	debateNoTUI       bool
	debateSeats       debate.Seats
)

var debateCmd = &cobra.Command{
	Use:   "debate <objective>",
	Short: "Debate an objective into a plan and run it on approval",
	Long: `Seat a visionary, a critic and a tactician, debate the objective into a
plan of parallel tasks and wait for a decision: approve runs the swarm, reject
discards the plan, feedback sends it back to the table.

By default the plan is reviewed in an interactive screen. With --no-tui the
plan is printed and the decision is read from standard input. With
--auto-approve the plan runs without review.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		req := debate.Request{
			Objective: strings.Join(args, " "),
			Overrides: debateSeats,
		}

		interactive := !debateAutoApprove && !debateNoTUI
		a, err := newApp(cmd.Context(), cfg, interactive)
		if err != nil {
			return err
		}
		defer a.Close()

		if interactive {
			return runReviewScreen(cmd.Context(), a, req)
		}

		printer := console.NewPrinter(a.bus, cmd.OutOrStdout())
		defer printer.Stop()

		if debateAutoApprove {
			err = runAutoApprove(cmd.Context(), a, req)
		} else {
			err = runPromptReview(cmd.Context(), a, req, cmd.InOrStdin(), cmd.OutOrStdout())
		}
		// Keep printing while the improvement cycle started by the swarm runs.
		a.builder.Wait()
		return err
	},
}

func init() {
	debateCmd.Flags().BoolVar(&debateAutoApprove, "auto-approve", false, "Execute the plan without review")
	debateCmd.Flags().BoolVar(&debateNoTUI, "no-tui", false, "Review the plan on standard input instead of the interactive screen")
	debateCmd.Flags().StringVar(&debateSeats.Visionary, "visionary", "", "Provider for the visionary seat")
	debateCmd.Flags().StringVar(&debateSeats.Critic, "critic", "", "Provider for the critic seat")
	debateCmd.Flags().StringVar(&debateSeats.Tactician, "tactician", "", "Provider for the tactician seat")
}

func runReviewScreen(ctx context.Context, a *app, req debate.Request) error {
	model := tui.New(ctx, a.bus, a.board, req)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("review screen: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	if m.Err() != nil {
		return m.Err()
	}
	if results := m.Results(); results != nil {
		printSummary(os.Stdout, results)
	}
	return nil
}

func runAutoApprove(ctx context.Context, a *app, req debate.Request) error {
	p, err := a.board.Debate(ctx, req)
	if err != nil {
		return err
	}
	results, err := a.board.Approve(ctx, p.ID, nil)
	if err != nil {
		return err
	}
	return swarmError(results)
}

// runPromptReview loops until the plan is approved or rejected. Any answer
// other than approve or reject is taken as feedback for the next round.
func runPromptReview(ctx context.Context, a *app, req debate.Request, in io.Reader, out io.Writer) error {
	p, err := a.board.Debate(ctx, req)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		printPlan(out, p)
		fmt.Fprint(out, "\n[a]pprove, [r]eject, or type feedback: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return a.board.Reject(p.ID)
		}

		answer := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(answer) {
		case "a", "approve":
			results, err := a.board.Approve(ctx, p.ID, nil)
			if err != nil {
				return err
			}
			return swarmError(results)
		case "r", "reject":
			return a.board.Reject(p.ID)
		case "":
			continue
		}

		p, err = a.board.Feedback(ctx, p.ID, answer)
		if err != nil {
			return err
		}
	}
}

func printPlan(out io.Writer, p *plan.Plan) {
	fmt.Fprintf(out, "\nPlan %s for %q\n", p.ID, p.Objective)
	fmt.Fprintf(out, "Visionary: %s | Critic: %s | Tactician: %s\n", p.Visionary, p.Critic, p.Tactician)
	if p.ParseError != "" {
		fmt.Fprintf(out, "Synthesis could not be parsed: %s\n", p.ParseError)
	}
	for _, s := range p.Suggestions {
		fmt.Fprintf(out, "  * %s\n", s)
	}
	for i, t := range p.Tasks {
		fmt.Fprintf(out, "  %d. [%s] %s -> %s\n", i+1, t.Provider, t.Name, t.Target())
	}
}

func printSummary(out io.Writer, results []plan.Result) {
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(out, "✓ %s", r.Task)
			if r.Filename != "" {
				fmt.Fprintf(out, " -> %s", r.Filename)
			}
			if r.Session != "" {
				fmt.Fprintf(out, " (tmux session %s)", r.Session)
			}
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "✗ %s: %s\n", r.Task, r.Error)
	}
}

// swarmError reports a non-zero exit when every task failed.
func swarmError(results []plan.Result) error {
	s := plan.Summarize(results)
	if len(results) > 0 && s.Succeeded == 0 {
		return fmt.Errorf("all %d task(s) failed", s.Failed)
	}
	return nil
}
