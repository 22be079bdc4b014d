package intent

import (
	"strings"
	"testing"
)

var catalog = []string{
	"VitalCarePlatform",
	"QuickCart E-commerce App",
	"PDF-based RAG Application",
}

func testLookup(fragment string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" {
		return "", false
	}
	for _, title := range catalog {
		if strings.Contains(strings.ToLower(title), needle) {
			return title, true
		}
	}
	return "", false
}

func newTestClassifier() *Classifier {
	return New("Varun Tyagi", testLookup)
}

func TestClassifyDirectives(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		msg  string
		kind Kind
		arg  string
	}{
		{"set tone to casual", KindSetTone, "casual"},
		{"set tone to formal", KindSetTone, "formal"},
		{"please set tone to formal now", KindSetTone, "formal"},
		{"speak in french", KindSetLanguage, "french"},
		{"Speak in SPANISH", KindSetLanguage, "spanish"},
	}

	for _, tt := range tests {
		got, ok := c.Classify(tt.msg)
		if !ok {
			t.Errorf("Classify(%q) = no match, want %v", tt.msg, tt.kind)
			continue
		}
		if got.Kind != tt.kind || got.Arg != tt.arg {
			t.Errorf("Classify(%q) = {%v %q}, want {%v %q}", tt.msg, got.Kind, got.Arg, tt.kind, tt.arg)
		}
	}
}

func TestDirectiveWithoutWordFallsThrough(t *testing.T) {
	c := newTestClassifier()

	// Syntactic directive match with nothing captured must not be treated
	// as a directive; with no other rule matching, it goes to the model.
	for _, msg := range []string{"set tone to", "speak in", "set tone to   "} {
		if got, ok := c.Classify(msg); ok {
			t.Errorf("Classify(%q) = {%v %q}, want no match", msg, got.Kind, got.Arg)
		}
	}
}

func TestClassifyProjectDetail(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		msg string
		arg string
	}{
		{"show details of vitalcare", "VitalCarePlatform"},
		{"tell me the details about quickcart", "QuickCart E-commerce App"},
		{"read the details of the quickcart project", "QuickCart E-commerce App"},
		{"show me details on PDF-based RAG", "PDF-based RAG Application"},
	}

	for _, tt := range tests {
		got, ok := c.Classify(tt.msg)
		if !ok || got.Kind != KindProjectDetail {
			t.Errorf("Classify(%q) = {%v %q}, %v; want project detail", tt.msg, got.Kind, got.Arg, ok)
			continue
		}
		if got.Arg != tt.arg {
			t.Errorf("Classify(%q) resolved %q, want %q", tt.msg, got.Arg, tt.arg)
		}
	}
}

func TestUnresolvedDetailFallsThroughToList(t *testing.T) {
	c := newTestClassifier()

	// Unknown title, but the message still says "project": the detail rule
	// falls through and the list rule catches it.
	got, ok := c.Classify("show details of the doesnotexist project")
	if !ok || got.Kind != KindProjectList {
		t.Errorf("Classify = {%v %q}, %v; want project list", got.Kind, got.Arg, ok)
	}

	// Unknown title and no list keyword either: no match at all.
	if got, ok := c.Classify("show details of doesnotexist"); ok {
		t.Errorf("Classify = {%v %q}, want no match", got.Kind, got.Arg)
	}
}

func TestClassifyContentTopics(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		msg  string
		kind Kind
	}{
		{"Tell me about your projects", KindProjectList},
		{"can I see your portfolio", KindProjectList},
		{"who are you", KindBio},
		{"who is varun", KindBio},
		{"tell me about yourself", KindBio},
		{"tell me about varun", KindBio},
		{"what is your experience", KindExperience},
		{"show me your work history", KindExperience},
		{"what's your background", KindExperience},
		{"where did you get your education", KindEducation},
		{"do you have a degree", KindEducation},
		{"tell me about your studies", KindEducation},
		{"what skills do you have", KindSkills},
		{"what's your tech stack", KindSkills},
		{"list your achievements", KindAchievements},
		{"any accomplishments", KindAchievements},
	}

	for _, tt := range tests {
		got, ok := c.Classify(tt.msg)
		if !ok {
			t.Errorf("Classify(%q) = no match, want %v", tt.msg, tt.kind)
			continue
		}
		if got.Kind != tt.kind {
			t.Errorf("Classify(%q) = %v, want %v", tt.msg, got.Kind, tt.kind)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	c := newTestClassifier()

	// Both the tone directive and the skills keyword are present; the
	// directive rule is earlier in the chain and must win.
	got, ok := c.Classify("set tone to casual and show me your skills")
	if !ok || got.Kind != KindSetTone || got.Arg != "casual" {
		t.Errorf("Classify = {%v %q}, %v; want tone directive", got.Kind, got.Arg, ok)
	}

	// "projects" (rule 4) appears before "experience" (rule 6) in priority,
	// regardless of word order in the message.
	got, ok = c.Classify("experience building projects")
	if !ok || got.Kind != KindProjectList {
		t.Errorf("Classify = {%v %q}, %v; want project list", got.Kind, got.Arg, ok)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := newTestClassifier()

	for _, msg := range []string{
		"asdkjasd random text",
		"what's the weather like",
		"",
		"   ",
	} {
		if got, ok := c.Classify(msg); ok {
			t.Errorf("Classify(%q) = {%v %q}, want no match", msg, got.Kind, got.Arg)
		}
	}
}

func TestClassifierWithoutOwnerName(t *testing.T) {
	c := New("", testLookup)

	if got, ok := c.Classify("who are you"); !ok || got.Kind != KindBio {
		t.Errorf("Classify(who are you) = {%v %q}, %v; want bio", got.Kind, got.Arg, ok)
	}
	// No owner name, so "who is varun" has nothing to match against.
	if got, ok := c.Classify("who is varun"); ok {
		t.Errorf("Classify(who is varun) = {%v %q}, want no match", got.Kind, got.Arg)
	}
}
