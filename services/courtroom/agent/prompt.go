// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// TrialContext is the slice of proceeding state a unit sees when
// generating a turn. It is assembled by the simulation controller and
// treated as read-only here.
type TrialContext struct {
	CaseID      string
	CaseTitle   string
	CaseSummary string
	CaseType    datatypes.CaseType
	Phase       datatypes.Phase
	Recent      []datatypes.TranscriptEntry
	Instruction string
	// Bias carries judicial decision influence for judge turns; nil
	// for every other role and for judges with memory disabled.
	Bias *DecisionBias
}

// personaPrompt renders the participant's identity, temperament, and
// courtroom obligations as a system message.
func personaPrompt(p *datatypes.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, serving as %s in a courtroom trial.\n", p.Name, strings.ReplaceAll(string(p.Role), "_", " "))

	if p.Background.Occupation != "" {
		fmt.Fprintf(&b, "Background: %s", p.Background.Occupation)
		if p.Background.Organization != "" {
			fmt.Fprintf(&b, " at %s", p.Background.Organization)
		}
		b.WriteString(".\n")
	}
	if p.Background.Bio != "" {
		fmt.Fprintf(&b, "About you: %s\n", p.Background.Bio)
	}

	t := p.Personality
	fmt.Fprintf(&b, "Temperament: assertiveness %.1f, empathy %.1f, analytical %.1f, stability %.1f, persuasiveness %.1f.\n",
		t.Assertiveness, t.Empathy, t.Analytical, t.Stability, t.Persuasiveness)

	b.WriteString("Stay strictly in character. Speak in first person. ")
	b.WriteString("Respond with only what you would say aloud in court, with no stage directions or meta commentary.")
	return b.String()
}

// contextPrompt renders the case posture and recent transcript as a
// user message the model responds to.
func contextPrompt(tctx TrialContext, emotions map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s (%s).\n", tctx.CaseTitle, tctx.CaseType)
	if tctx.CaseSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", tctx.CaseSummary)
	}
	fmt.Fprintf(&b, "Current phase: %s.\n", tctx.Phase.DisplayName(tctx.CaseType))

	if len(tctx.Recent) > 0 {
		b.WriteString("\nRecent proceedings:\n")
		for _, entry := range tctx.Recent {
			fmt.Fprintf(&b, "- %s (%s): %s\n", entry.SpeakerName, entry.Role, entry.Content)
		}
	}

	if len(emotions) > 0 {
		fmt.Fprintf(&b, "\nYour current state: stress %.1f, confidence %.1f, frustration %.1f.\n",
			emotions[EmotionStress], emotions[EmotionConfidence], emotions[EmotionFrustration])
	}

	if tctx.Bias != nil {
		b.WriteString(biasPrompt(tctx.Bias))
	}

	if tctx.Instruction != "" {
		fmt.Fprintf(&b, "\n%s\n", tctx.Instruction)
	}
	return b.String()
}

// biasPrompt folds judicial memory influence into the judge's context.
// The lean is advisory phrasing only; the model still writes the words.
func biasPrompt(bias *DecisionBias) string {
	var b strings.Builder
	b.WriteString("\nDrawing on your judicial experience:\n")
	switch {
	case bias.ParticipantBias > 0.3:
		b.WriteString("- The parties before you have been credible in past proceedings.\n")
	case bias.ParticipantBias < -0.3:
		b.WriteString("- You have found some of these parties unreliable in past proceedings.\n")
	}
	if bias.PrecedentStrength > 0.5 {
		b.WriteString("- You have presided over closely similar cases and your past rulings inform your view.\n")
	}
	fmt.Fprintf(&b, "- Your confidence in your read of this matter is %.1f out of 10.\n", bias.Confidence)
	return b.String()
}

// memoryPrompt renders long-term recall worth carrying into the turn.
func memoryPrompt(items []MemoryItem) string {
	if len(items) == 0 {
		return ""
	}
	// Cap the carried recall so prompts stay bounded.
	const maxRecall = 8
	if len(items) > maxRecall {
		items = items[len(items)-maxRecall:]
	}
	var b strings.Builder
	b.WriteString("Things you remember from earlier:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s\n", it.Content)
	}
	return b.String()
}

// buildMessages assembles the chat turns for one generation request.
func buildMessages(p *datatypes.Participant, tctx TrialContext, longTerm []MemoryItem, emotions map[string]float64) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: personaPrompt(p)},
	}
	if recall := memoryPrompt(longTerm); recall != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: recall})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: contextPrompt(tctx, emotions)})
	return msgs
}
