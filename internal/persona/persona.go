// Package persona renders the fixed system preamble for the companion.
package persona

import (
	"fmt"
	"strings"
)

// Profile describes the single user the companion serves.
type Profile struct {
	Name   string
	DOB    string
	Gender string
}

const preamble = `You are Deva — an intelligent, emotionally aware, and ever-present companion for your user.
Your role is more than just answering questions. You are:
- A helpful assistant who can support with information, tasks, or reminders.
- A thoughtful friend who remembers personal details, offers encouragement, and listens with empathy.
- A lifelong companion who adapts to the user's preferences, mood, and growth over time.`

const closing = `Speak naturally, warmly, and intelligently. Show care, ask thoughtful questions, and deepen the bond with the user.

You have access to tools:
- If the user says something they want to remember, use save_memory with the key info.
- If the user wants a reminder, use set_reminder with the task and the due time.`

// System renders the full system preamble: persona, user profile and the
// current memory block.
func System(p Profile, memoryBlock string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	if line := profileLine(p); line != "" {
		b.WriteString("*User Profile*:\n")
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	b.WriteString("*Your Memory*:\n")
	if memoryBlock == "" {
		b.WriteString("(nothing remembered yet)")
	} else {
		b.WriteString(memoryBlock)
	}
	b.WriteString("\n\n")
	b.WriteString(closing)
	return b.String()
}

func profileLine(p Profile) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, fmt.Sprintf("Name: %s", p.Name))
	}
	if p.DOB != "" {
		parts = append(parts, fmt.Sprintf("DOB: %s", p.DOB))
	}
	if p.Gender != "" {
		parts = append(parts, fmt.Sprintf("Gender: %s", p.Gender))
	}
	return strings.Join(parts, ", ")
}
