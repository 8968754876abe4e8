// Package routing classifies tasks into tiers and picks providers per role
// from a declarative preference table.
package routing

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/aristath/roundtable/internal/provider"
)

// Tier is the estimated complexity of a task.
type Tier string

const (
	Basic        Tier = "BASIC"
	Intermediate Tier = "INTERMEDIATE"
	Complex      Tier = "COMPLEX"
)

// Role is a stage of the sub-swarm pipeline.
type Role string

const (
	Planner  Role = "planner"
	Coder    Role = "coder"
	Reviewer Role = "reviewer"
)

var complexKeywords = regexp.MustCompile(`(?i)architecture|security|database|optimize|refactor|concurrency|async`)

// Classify derives the tier from instruction length and keywords.
// More than 1000 characters or any complexity keyword is COMPLEX;
// more than 300 characters is INTERMEDIATE.
func Classify(instructions string) Tier {
	score := float64(utf8.RuneCountInString(instructions)) / 100
	switch {
	case score > 10 || complexKeywords.MatchString(instructions):
		return Complex
	case score > 3:
		return Intermediate
	default:
		return Basic
	}
}

// Table maps {tier, role} to an ordered provider preference list.
// Preference order is the cost policy.
type Table map[Tier]map[Role][]string

// TableFromConfig converts the string-keyed config form.
func TableFromConfig(raw map[string]map[string][]string) Table {
	t := make(Table, len(raw))
	for tier, roles := range raw {
		row := make(map[Role][]string, len(roles))
		for role, prefs := range roles {
			row[Role(role)] = prefs
		}
		t[Tier(tier)] = row
	}
	return t
}

// Preferences returns the preference list for tier and role, or nil.
func (t Table) Preferences(tier Tier, role Role) []string {
	return t[tier][role]
}

// Pick returns the first preference present in available, or available[0].
// It returns "" only when available is empty.
func Pick(prefs, available []string) string {
	for _, pref := range prefs {
		if name, ok := provider.Canonical(pref, available); ok {
			return name
		}
	}
	if len(available) == 0 {
		return ""
	}
	return available[0]
}

// Assignment is the provider chosen for each pipeline role.
type Assignment struct {
	Tier     Tier
	Planner  string
	Coder    string
	Reviewer string
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s planner=%s coder=%s reviewer=%s", a.Tier, a.Planner, a.Coder, a.Reviewer)
}

// Assign classifies instructions and picks a provider for every role.
func (t Table) Assign(instructions string, available []string) (Assignment, error) {
	if len(available) == 0 {
		return Assignment{}, provider.ErrNoProviders
	}
	tier := Classify(instructions)
	return Assignment{
		Tier:     tier,
		Planner:  Pick(t.Preferences(tier, Planner), available),
		Coder:    Pick(t.Preferences(tier, Coder), available),
		Reviewer: Pick(t.Preferences(tier, Reviewer), available),
	}, nil
}

// Seat names of the debate.
const (
	SeatVisionary = "visionary"
	SeatCritic    = "critic"
	SeatTactician = "tactician"
)

// PickSeat honors override only when it is available; otherwise it picks from prefs.
func PickSeat(override string, prefs, available []string) string {
	if override != "" {
		if name, ok := provider.Canonical(override, available); ok {
			return name
		}
	}
	return Pick(prefs, available)
}
