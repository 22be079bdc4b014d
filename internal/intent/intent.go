// Package intent classifies visitor messages against a fixed, ordered list
// of pattern matchers. The first matching rule wins; everything the chain
// rejects is routed to the language model instead.
package intent

import (
	"regexp"
	"strings"
)

// Kind identifies the topic or directive a message mapped to.
type Kind int

const (
	KindNone Kind = iota
	KindSetTone
	KindSetLanguage
	KindProjectDetail
	KindProjectList
	KindBio
	KindExperience
	KindEducation
	KindSkills
	KindAchievements
)

// Intent is a classification result. Arg carries the extracted parameter:
// the tone or language word for directives, the resolved project title for
// project-detail requests.
type Intent struct {
	Kind Kind
	Arg  string
}

// Matcher is one rule of the chain. TryMatch reports whether the lowercased
// message matched; a rule that matches syntactically but extracts nothing
// must report false so classification falls through to the next rule.
type Matcher interface {
	TryMatch(msg string) (Intent, bool)
}

// ProjectLookup resolves a free-text fragment to a project title.
// Implemented by profile.Store.FindProject via a small adapter.
type ProjectLookup func(fragment string) (title string, ok bool)

// Classifier evaluates matchers in priority order. Directive rules come
// before all content rules.
type Classifier struct {
	matchers []Matcher
}

// New builds the rule chain. ownerName is the site owner's display name;
// its first word feeds the "who is <name>" bio patterns. lookup resolves
// project-detail fragments against the catalog.
func New(ownerName string, lookup ProjectLookup) *Classifier {
	first := firstName(ownerName)

	bioPattern := `\bwho are you\b|\btell me about yourself\b|\bintroduce yourself\b`
	if first != "" {
		bioPattern += `|\bwho is ` + regexp.QuoteMeta(first) + `\b` +
			`|\btell me about ` + regexp.QuoteMeta(first) + `\b`
	}

	return &Classifier{matchers: []Matcher{
		&captureRule{kind: KindSetTone, re: regexp.MustCompile(`\bset tone to\b\s*([a-z]+)?`)},
		&captureRule{kind: KindSetLanguage, re: regexp.MustCompile(`\bspeak in\b\s*([a-z]+)?`)},
		&projectDetailRule{
			re:     regexp.MustCompile(`\b(?:read|show|tell)\b.*\bdetails?\b(?:\s+(?:of|about|for|on))?\s*(.*)$`),
			lookup: lookup,
		},
		&keywordRule{kind: KindProjectList, re: regexp.MustCompile(`\bprojects?\b|\bportfolio\b`)},
		&keywordRule{kind: KindBio, re: regexp.MustCompile(bioPattern)},
		&keywordRule{kind: KindExperience, re: regexp.MustCompile(`\bexperience\b|\bwork history\b|\bbackground\b`)},
		&keywordRule{kind: KindEducation, re: regexp.MustCompile(`\beducation\b|\bdegrees?\b|\bstudies\b`)},
		&keywordRule{kind: KindSkills, re: regexp.MustCompile(`\bskills?\b|\btech stack\b`)},
		&keywordRule{kind: KindAchievements, re: regexp.MustCompile(`\bachievements?\b|\baccomplishments?\b`)},
	}}
}

// Classify runs the chain over the message and returns the first match.
// Matching is case-insensitive; the message is lowercased once up front.
func (c *Classifier) Classify(message string) (Intent, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Intent{}, false
	}
	for _, m := range c.matchers {
		if intent, ok := m.TryMatch(msg); ok {
			return intent, true
		}
	}
	return Intent{}, false
}

// keywordRule matches on presence alone and extracts nothing.
type keywordRule struct {
	kind Kind
	re   *regexp.Regexp
}

func (r *keywordRule) TryMatch(msg string) (Intent, bool) {
	if !r.re.MatchString(msg) {
		return Intent{}, false
	}
	return Intent{Kind: r.kind}, true
}

// captureRule matches a directive phrase and extracts its single word.
// An empty capture means the phrase was cut off ("set tone to"), which
// counts as no match for this rule only.
type captureRule struct {
	kind Kind
	re   *regexp.Regexp
}

func (r *captureRule) TryMatch(msg string) (Intent, bool) {
	m := r.re.FindStringSubmatch(msg)
	if m == nil || m[1] == "" {
		return Intent{}, false
	}
	return Intent{Kind: r.kind, Arg: m[1]}, true
}

// projectDetailRule matches a loose detail request and resolves the trailing
// fragment against the catalog. An empty fragment or an unresolved title
// falls through, typically to the project-list rule.
type projectDetailRule struct {
	re     *regexp.Regexp
	lookup ProjectLookup
}

func (r *projectDetailRule) TryMatch(msg string) (Intent, bool) {
	m := r.re.FindStringSubmatch(msg)
	if m == nil {
		return Intent{}, false
	}
	fragment := cleanFragment(m[1])
	if fragment == "" || r.lookup == nil {
		return Intent{}, false
	}
	title, ok := r.lookup(fragment)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: KindProjectDetail, Arg: title}, true
}

// cleanFragment strips the noise words people put between "details" and the
// actual project name, plus trailing punctuation.
func cleanFragment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!?")
	for _, prefix := range []string{"the ", "my ", "your "} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(s, " project")
	return strings.TrimSpace(s)
}

func firstName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
