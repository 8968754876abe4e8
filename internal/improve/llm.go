package improve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aristath/roundtable/internal/extract"
	"github.com/aristath/roundtable/internal/provider"
)

const (
	auditSystem   = "You are a senior code quality auditor. Output strict JSON only."
	rewriteSystem = "You are an expert code refactoring bot. Output only raw code."
)

// LLMAuditor asks a provider for a quality audit.
type LLMAuditor struct {
	Catalog  provider.Catalog
	Provider string
}

// Analyze implements Auditor. A reply without a parseable object scores 0.
func (a *LLMAuditor) Analyze(ctx context.Context, filename, content string) (Audit, error) {
	prompt := fmt.Sprintf("Perform a quality_audit on the following source file.\n\n"+
		"FILE: %s\nCONTENT:\n%s\n\n"+
		`Return a JSON object with these keys: { "score": 0-10, "issues": [...], "suggestions": [...] }.`+
		"\nOutput strictly JSON, no markdown.", filename, content)

	out, err := provider.ResolveHealthy(ctx, a.Catalog, a.Provider).Generate(ctx, prompt, auditSystem)
	if err != nil {
		return Audit{}, err
	}
	return parseAudit(out), nil
}

func parseAudit(out string) Audit {
	failed := func() Audit {
		zero := 0.0
		return Audit{Score: &zero, Issues: []string{"Parse failed"}, Suggestions: []string{}}
	}
	obj, err := extract.FirstObject(out)
	if err != nil {
		return failed()
	}
	var audit Audit
	if err := json.Unmarshal([]byte(obj), &audit); err != nil {
		return failed()
	}
	return audit
}

// LLMRewriter asks a provider for a corrected file.
type LLMRewriter struct {
	Catalog  provider.Catalog
	Provider string
}

// Rewrite implements Rewriter.
func (r *LLMRewriter) Rewrite(ctx context.Context, filename, content, issue string) (string, error) {
	prompt := fmt.Sprintf("You are a code refactoring expert. The following file has a known issue:\n\n"+
		"ISSUE: %s\n\nFILE: %s\nCURRENT CONTENT:\n%s\n\n"+
		"Provide the complete corrected file, fixing ONLY the described issue. "+
		"Output ONLY the raw code with no markdown fences.", issue, filename, content)

	out, err := provider.ResolveHealthy(ctx, r.Catalog, r.Provider).Generate(ctx, prompt, rewriteSystem)
	if err != nil {
		return "", err
	}
	return extract.StripFences(out), nil
}
