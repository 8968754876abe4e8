// Package console prints bus events as colored lines for non-interactive runs.
package console

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/aristath/roundtable/internal/events"
)

var palette = []color.Attribute{
	color.FgCyan,
	color.FgMagenta,
	color.FgBlue,
	color.FgYellow,
	color.FgGreen,
}

// Printer writes every log line and task outcome from a bus subscription.
type Printer struct {
	out  io.Writer
	sub  <-chan events.Event
	bus  *events.EventBus
	done chan struct{}
	once sync.Once
}

// NewPrinter subscribes to every topic on bus and prints to out until Stop.
func NewPrinter(bus *events.EventBus, out io.Writer) *Printer {
	p := &Printer{
		out:  out,
		bus:  bus,
		sub:  bus.SubscribeAll(256),
		done: make(chan struct{}),
	}
	go p.loop()
	return p
}

// Stop unsubscribes and waits for buffered events to be printed.
func (p *Printer) Stop() {
	p.once.Do(func() {
		p.bus.Unsubscribe(p.sub)
		<-p.done
	})
}

func (p *Printer) loop() {
	defer close(p.done)
	for ev := range p.sub {
		if line := Format(ev); line != "" {
			fmt.Fprintln(p.out, line)
		}
	}
}

// Format renders one event, or "" for events that are not printed.
func Format(ev events.Event) string {
	switch e := ev.(type) {
	case events.LogEvent:
		return agentColor(e.Agent).Sprintf("[%s]", e.Agent) + " " + highlight(e.Message)
	case events.TaskCompletedEvent:
		target := e.Filename
		if target == "" {
			target = e.Kind
		}
		return color.GreenString("✓ %s", e.Name) + fmt.Sprintf(" -> %s (%s)", target, e.Duration.Round(time.Millisecond))
	case events.TaskFailedEvent:
		return color.RedString("✗ %s: %v", e.Name, e.Err)
	case events.SwarmFinishedEvent:
		return color.New(color.Bold).Sprintf("Swarm finished: %d succeeded, %d failed", e.Succeeded, e.Failed)
	case events.PlanReadyEvent:
		return color.New(color.Bold, color.FgMagenta).Sprintf("Plan %s ready: %d task(s), %d suggestion(s)", short(e.PlanID), e.Tasks, e.Suggestions)
	default:
		return ""
	}
}

func highlight(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(msg, "✓") || strings.Contains(lower, "complete"):
		return color.New(color.FgGreen).Sprint(msg)
	case strings.HasPrefix(msg, "✗") || strings.Contains(lower, "failed"):
		return color.New(color.FgRed).Sprint(msg)
	default:
		return msg
	}
}

func agentColor(agent string) *color.Color {
	h := fnv.New32a()
	h.Write([]byte(agent))
	return color.New(palette[h.Sum32()%uint32(len(palette))], color.Bold)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
