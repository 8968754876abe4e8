// Package validate holds the safety gates a proposed rewrite must pass before
// it may replace a file. The gates run in a separate process; see Serve.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Request is one validation job.
type Request struct {
	Filename string `json:"filename"`
	Original string `json:"original"`
	Proposed string `json:"proposed"`
}

// Verdict is the outcome of all gates.
type Verdict struct {
	Pass    bool     `json:"pass"`
	Reasons []string `json:"reasons"`
}

// minShrinkBase is the original size below which the shrink gate is not applied.
const minShrinkBase = 100

// DangerousPatterns are rejected anywhere in a proposal, case-insensitively.
var DangerousPatterns = []string{
	`rm\s+-rf`,
	`process\.exit\(0\)`,
	`\beval\s*\(`,
	`__import__\s*\(\s*['"]os['"]`,
	`subprocess\.call\s*\(\s*['"]rm`,
	`DROP\s+TABLE`,
	`DELETE\s+FROM\s+\w+\s*;?\s*$`,
}

var dangerous = compile(DangerousPatterns)

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?im)` + p)
	}
	return out
}

type syntaxCheck func(filename, content string) error

var syntaxChecks = map[string]syntaxCheck{
	".go":   checkGo,
	".json": checkJSON,
	".yaml": checkYAML,
	".yml":  checkYAML,
}

// Validate runs the gates in order and stops at the first rejection:
// non-empty, shrink, dangerous patterns, then a syntax check for known extensions.
func Validate(req Request) Verdict {
	if strings.TrimSpace(req.Proposed) == "" {
		return reject("REJECTED: Proposed content is empty (LLM returned nothing).")
	}

	origLen := utf8.RuneCountInString(req.Original)
	propLen := utf8.RuneCountInString(req.Proposed)
	if origLen > minShrinkBase && float64(propLen) < float64(origLen)*0.2 {
		return reject(fmt.Sprintf(
			"REJECTED: Proposed content is %d chars vs original %d chars (%d%% of original), likely LLM truncation.",
			propLen, origLen, 100*propLen/origLen))
	}

	for i, re := range dangerous {
		if re.MatchString(req.Proposed) {
			return reject(fmt.Sprintf("REJECTED: Dangerous pattern detected: `%s`", DangerousPatterns[i]))
		}
	}

	gates := 3
	if check, ok := syntaxChecks[strings.ToLower(filepath.Ext(req.Filename))]; ok {
		gates++
		if err := check(req.Filename, req.Proposed); err != nil {
			return reject(fmt.Sprintf("REJECTED: syntax error: %v", err))
		}
	}

	return Verdict{Pass: true, Reasons: []string{fmt.Sprintf("APPROVED: All %d safety gates passed.", gates)}}
}

func reject(reason string) Verdict {
	return Verdict{Pass: false, Reasons: []string{reason}}
}

func checkGo(filename, content string) error {
	_, err := parser.ParseFile(token.NewFileSet(), filename, content, parser.AllErrors)
	return err
}

func checkJSON(_, content string) error {
	var v any
	return json.Unmarshal([]byte(content), &v)
}

func checkYAML(_, content string) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
