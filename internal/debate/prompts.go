package debate

import (
	"fmt"
	"strings"
)

const (
	visionarySystem = "You are an expert software architect."
	criticSystem    = "You are a meticulous senior software reviewer focused on security and scale."
	tacticianSystem = "You are a technical project manager. Output strict JSON only. No markdown fences."

	// maxListedSkills caps how many skill names the synthesis prompt advertises.
	maxListedSkills = 20
)

func draftPrompt(objective, feedback string) string {
	p := fmt.Sprintf("You are a visionary software architect. The user wants to build: %q. "+
		"Provide a high-level component breakdown. Focus on speed and modern practices. "+
		"Important: You must also proactively suggest 1 or 2 advanced architectural improvements, "+
		"features, or patterns the user might not have thought of that would fundamentally elevate the system.", objective)
	if feedback != "" {
		p += fmt.Sprintf("\n\nCRITICAL FEEDBACK FROM HUMAN COMMANDER ON PREVIOUS PLAN:\n%q\n\n"+
			"You MUST address this feedback and revise your architectural approach accordingly.", feedback)
	}
	return p
}

func critiquePrompt(draft string) string {
	return "Review the following architectural draft critically. " +
		"Point out security flaws, potential bottlenecks, and missing error handling.\n\nDraft:\n" + draft
}

func synthesisPrompt(draft, critique string, available, skills []string) string {
	if len(skills) > maxListedSkills {
		skills = skills[:maxListedSkills]
	}
	var b strings.Builder
	b.WriteString("You are a tactical project manager. Synthesize the draft and critique into a strict JSON task list for a parallel developer swarm.\n\n")
	b.WriteString("Output ONLY valid JSON with this exact schema, no markdown, no backticks, no extra text:\n")
	b.WriteString(`{ "suggestions": ["Proactive Idea 1", "Proactive Idea 2"], "tasks": [ { "name": "Task Title", "provider": "PROVIDER_NAME", "instructions": "Detailed prompt", "filename": "src/example.ts" } ] }`)
	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- \"provider\" MUST be exactly one of: %s\n", strings.Join(available, ", "))
	b.WriteString("- Each task MUST have \"name\", \"provider\", and \"instructions\"\n")
	b.WriteString("- Use \"filename\" for code file generation tasks\n")
	b.WriteString("- Use \"command\" instead of \"filename\" for shell execution tasks (set to \"AUTO\" for AI-generated)\n")
	fmt.Fprintf(&b, "- \"skills\" is an optional array. Available skills: %s\n", strings.Join(skills, ", "))
	b.WriteString("- Generate 3-8 parallel tasks maximum for efficiency\n\n")
	fmt.Fprintf(&b, "Draft:\n%s\n\nCritique:\n%s", draft, critique)
	return b.String()
}
