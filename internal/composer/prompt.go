// Package composer renders the text prompt sent to the generation model
// when no canned intent matched.
package composer

import (
	"fmt"
	"strings"

	"github.com/vtyagi/avatar/internal/session"
)

const defaultHistoryWindow = 10

// Composer assembles prompts from session state, retrieved context snippets,
// and the new user message.
type Composer struct {
	ownerName     string
	historyWindow int
}

// New creates a Composer. historyWindow caps how many history entries are
// rendered; values <= 0 use the default (10).
func New(ownerName string, historyWindow int) *Composer {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	return &Composer{ownerName: ownerName, historyWindow: historyWindow}
}

// Compose builds the prompt: one persona/directive line carrying tone and
// language, an optional Context block, the most recent history entries
// oldest-first, the new user line, and the assistant cue.
func (c *Composer) Compose(st session.State, contextSnippets []string, message string) string {
	var sb strings.Builder

	owner := c.ownerName
	if owner == "" {
		owner = "the site owner"
	}
	fmt.Fprintf(&sb, "You are %s's AI avatar. You know %s's resume, projects, and achievements. Speak in a %s tone, in %s.\n",
		owner, owner, st.Tone, st.Language)

	if len(contextSnippets) > 0 {
		sb.WriteString("Context:\n")
		for _, snippet := range contextSnippets {
			sb.WriteString(snippet)
			sb.WriteString("\n")
		}
	}

	for _, m := range window(st.History, c.historyWindow) {
		fmt.Fprintf(&sb, "%s: %s\n", speaker(m.Sender), m.Text)
	}

	fmt.Fprintf(&sb, "User: %s\nAssistant:", message)
	return sb.String()
}

// window returns the last n entries, oldest first.
func window(history []session.Message, n int) []session.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func speaker(sender string) string {
	if sender == session.SenderBot {
		return "Assistant"
	}
	return "User"
}
