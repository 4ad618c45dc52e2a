package skills

import (
	"fmt"
	"strings"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/infra/llm"
)

const extractSystemPrompt = `You identify professional skills in a person's description of their experience.
Respond with a single JSON object and nothing else, shaped as:
{"skills":[{"matched_id":string|null,"matched_name":string|null,"raw_name":string,"inferred_level":1-5,"confidence":0-1,"evidence":string}]}
Rules:
- matched_id must be one of the catalog ids listed by the user, or null when no catalog skill fits.
- raw_name is the skill as the person wrote it.
- inferred_level: 1 novice, 2 beginner, 3 competent, 4 proficient, 5 expert.
- evidence is a short quote (under 200 characters) from the text supporting the skill.
- Do not list skills the text does not mention.`

const gapsSystemPrompt = `You are a career coach explaining skill gaps to an engineer.
Respond with a single JSON object and nothing else, shaped as:
{"overview":string,"explanations":[{"gap_id":string,"summary":string,"why_it_matters":string,"next_steps":[string],"estimated_weeks":1-52}]}
Rules:
- gap_id must be one of the gap ids listed by the user.
- Give at most 5 next_steps per gap, each concrete and actionable.
- Be encouraging and specific; do not invent requirements that are not listed.`

const nodeSystemPrompt = `You explain a single skill to an engineer planning their learning.
Respond with a single JSON object and nothing else, shaped as:
{"node":{"summary":string,"key_concepts":[string],"learning_path":[string],"related_skill_ids":[string]}}
Rules:
- related_skill_ids must only use ids from the related list given by the user.
- At most 8 key_concepts and 8 learning_path steps, ordered from first to last.`

func extractMessages(text string, allow entity.AllowSet) []llm.Message {
	var b strings.Builder
	b.WriteString("Catalog skills (id: name):\n")
	for _, id := range allow.IDs() {
		name, _ := allow.Name(id)
		fmt.Fprintf(&b, "- %s: %s\n", id, name)
	}
	b.WriteString("\nText:\n")
	b.WriteString(text)
	return []llm.Message{llm.SystemMessage(extractSystemPrompt), llm.UserMessage(b.String())}
}

func gapsMessages(analysis entity.GapAnalysis, targetRole, userContext string) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Target role: %s\n", targetRole)
	fmt.Fprintf(&b, "Readiness: %d%%\n\nGaps (id | name | category | current -> required | severity):\n", analysis.Readiness)
	for _, g := range analysis.Gaps {
		fmt.Fprintf(&b, "- %s | %s | %s | %d -> %d | %s\n",
			g.SkillID, g.Name, g.Category, g.CurrentLevel, g.RequiredLevel, g.Severity)
	}
	if len(analysis.Strengths) > 0 {
		b.WriteString("\nStrengths:\n")
		for _, s := range analysis.Strengths {
			fmt.Fprintf(&b, "- %s (level %d)\n", s.Name, s.CurrentLevel)
		}
	}
	if userContext != "" {
		b.WriteString("\nAbout the person:\n")
		b.WriteString(userContext)
	}
	return []llm.Message{llm.SystemMessage(gapsSystemPrompt), llm.UserMessage(b.String())}
}

func nodeMessages(skill entity.SkillInfo, userLevel int, targetRole string, related entity.AllowSet) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Skill: %s (id %s, category %s)\n", skill.Name, skill.ID, skill.Category)
	fmt.Fprintf(&b, "Current level: %d of 5\n", userLevel)
	if targetRole != "" {
		fmt.Fprintf(&b, "Target role: %s\n", targetRole)
	}
	b.WriteString("Related skills (id: name):\n")
	for _, id := range related.IDs() {
		name, _ := related.Name(id)
		fmt.Fprintf(&b, "- %s: %s\n", id, name)
	}
	return []llm.Message{llm.SystemMessage(nodeSystemPrompt), llm.UserMessage(b.String())}
}
