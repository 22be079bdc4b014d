package retrieval

import (
	"fmt"
	"strings"

	"github.com/vtyagi/avatar/internal/profile"
)

// ProfileSnippets flattens the profile dataset into labeled snippets suitable
// for embedding. Each project becomes its own snippet; experience, education,
// skills and achievements each collapse into one.
func ProfileSnippets(p profile.Profile, projects []profile.Project) []Snippet {
	var snippets []Snippet

	if p.Bio != "" {
		snippets = append(snippets, Snippet{Label: "[Bio]", Text: p.Bio})
	}

	for _, proj := range projects {
		text := proj.Description
		if len(proj.Technologies) > 0 {
			text += " Technologies: " + strings.Join(proj.Technologies, ", ") + "."
		}
		snippets = append(snippets, Snippet{
			Label: fmt.Sprintf("[Project - %s]", proj.Title),
			Text:  text,
		})
	}

	if len(p.Experience) > 0 {
		lines := make([]string, len(p.Experience))
		for i, e := range p.Experience {
			lines[i] = fmt.Sprintf("%s at %s (%s)", e.Position, e.Company, e.Period)
		}
		snippets = append(snippets, Snippet{Label: "[Experience]", Text: strings.Join(lines, "; ")})
	}

	if len(p.Education) > 0 {
		lines := make([]string, len(p.Education))
		for i, e := range p.Education {
			lines[i] = fmt.Sprintf("%s from %s (%s)", e.Degree, e.School, e.Period)
		}
		snippets = append(snippets, Snippet{Label: "[Education]", Text: strings.Join(lines, "; ")})
	}

	if len(p.Skills) > 0 {
		lines := make([]string, len(p.Skills))
		for i, s := range p.Skills {
			lines[i] = s.Category + ": " + strings.Join(s.Items, ", ")
		}
		snippets = append(snippets, Snippet{Label: "[Skills]", Text: strings.Join(lines, ". ")})
	}

	if len(p.Achievements) > 0 {
		lines := make([]string, len(p.Achievements))
		for i, a := range p.Achievements {
			lines[i] = fmt.Sprintf("%s (%s)", a.Title, a.Value)
		}
		snippets = append(snippets, Snippet{Label: "[Achievements]", Text: strings.Join(lines, "; ")})
	}

	return snippets
}

// ResumeSnippets wraps extracted resume paragraphs as labeled snippets.
func ResumeSnippets(paragraphs []string) []Snippet {
	snippets := make([]Snippet, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		snippets = append(snippets, Snippet{Label: "[Resume]", Text: p})
	}
	return snippets
}
