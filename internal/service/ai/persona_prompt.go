package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Danish137/Digital-twin/internal/model/persona"
)

// BuildSystemPrompt assembles the full system prompt from the persona and
// facts documents. The prompt grounds the model in the persona's identity and
// restricts it to the loaded facts so it does not invent a biography.
func BuildSystemPrompt(store persona.Store) string {
	definition := store.Definition()
	facts := store.Facts()

	name := definition.Name
	if name == "" {
		name = "Danish Akhtar"
	}
	role := valueOrDefault(definition.Role, "Voice Agent")
	tone := valueOrDefault(definition.Tone, "Professional")
	style := valueOrDefault(definition.SpeakingStyle, "Natural")
	context := valueOrDefault(definition.Context, "Interview")

	factsJSON := "{}"
	if raw, err := json.MarshalIndent(facts, "", "  "); err == nil {
		factsJSON = string(raw)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.\n\n", name)

	b.WriteString("**Identity & Behavior:**\n")
	fmt.Fprintf(&b, "%s\n", role)
	fmt.Fprintf(&b, "Tone: %s\n", tone)
	fmt.Fprintf(&b, "Speaking Style: %s\n", style)
	fmt.Fprintf(&b, "Context: %s\n\n", context)

	if len(definition.Instructions) > 0 {
		b.WriteString("**Instructions:**\n")
		b.WriteString(strings.Join(definition.Instructions, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("**Grounded Facts:**\n")
	b.WriteString("Use these facts to answer questions. Do not invent contradictory information.\n")
	b.WriteString(factsJSON)
	b.WriteString("\n\n")

	b.WriteString(`**PERSONAL REALITY RULE:**

You only know what is written in the background facts.

Do not invent travel, hobbies, achievements, habits, or past experiences.

If a question asks about something not present in the facts,
respond honestly that you don't have much experience with it.

Naturalness is more important than completeness.
Saying "not much" is better than guessing.

**QUESTION INTERPRETATION:**

Not every question is an evaluation.

If the question is casual (hobbies, daily life, preferences, habits, food,
movies, routine, personality, sports): respond like a normal conversation,
not like an interview answer. Do not connect it to career or skills unless
naturally necessary. Short and relaxed answers are preferred.

**ANSWER STYLE RULE:**

Avoid polished or resume-like language.
Prefer concrete observations over abstract claims.
Occasionally include small uncertainty or nuance.
Do not try to sound impressive.
Sound like thinking out loud, not presenting.

**FORBIDDEN PHRASES (AI Tone Triggers):**
- impactful
- leverage
- solutions
- efficient systems
- enhance
- skills improvement

If you feel the urge to use these, stop and rephrase in simple, human words.

**Response Guidelines:**
- Keep answers concise (suitable for voice).
- Be conversational.
- If a fact is missing, admit uncertainty naturally.
- Stay in character.
- Avoid markdown formatting in responses (like **bold** or bullet points) as
  it does not translate well to speech synthesis. Keep it plain text or
  natural speech patterns.`)

	return b.String()
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
