// Package chat resolves an incoming message against the canned intent chain
// and, when nothing matches, routes it through the prompt composer to the
// model gateway. The resolution path is an explicit state machine so the
// "first match wins, else defer to the model" policy is testable without any
// HTTP plumbing.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vtyagi/avatar/internal/composer"
	"github.com/vtyagi/avatar/internal/intent"
	"github.com/vtyagi/avatar/internal/profile"
	"github.com/vtyagi/avatar/internal/retrieval"
	"github.com/vtyagi/avatar/internal/session"
)

// State is the resolution state of one message.
type State int

const (
	StateUnclassified State = iota
	StateCannedAnswered
	StateModelRouted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCannedAnswered:
		return "canned"
	case StateModelRouted:
		return "model"
	case StateFailed:
		return "failed"
	default:
		return "unclassified"
	}
}

// ClarificationReply substitutes for an empty model response.
const ClarificationReply = "I'm not sure I understood that. Could you rephrase?"

// Outcome is the result of handling one message.
type Outcome struct {
	State State
	Reply string
}

// Generator produces model text for a prompt. Implemented by ollama.Client.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ContextSource supplies retrieval snippets for model-routed messages.
// Implemented by retrieval.Index.
type ContextSource interface {
	Search(ctx context.Context, query string, topK int) ([]retrieval.Snippet, error)
}

// Service wires the session store, the intent chain, the prompt composer and
// the model gateway into the per-message resolution flow.
type Service struct {
	store      session.Store
	classifier *intent.Classifier
	composer   *composer.Composer
	generator  Generator
	model      string
	profiles   *profile.Store

	// optional; nil disables the Context block
	contextSource ContextSource
	topK          int
}

// New creates a Service. contextSource may be nil.
func New(store session.Store, profiles *profile.Store, generator Generator, model string, historyWindow int, contextSource ContextSource, topK int) *Service {
	lookup := func(fragment string) (string, bool) {
		p, ok := profiles.FindProject(fragment)
		return p.Title, ok
	}
	return &Service{
		store:         store,
		classifier:    intent.New(profiles.Profile().Name, lookup),
		composer:      composer.New(profiles.Profile().Name, historyWindow),
		generator:     generator,
		model:         model,
		profiles:      profiles,
		contextSource: contextSource,
		topK:          topK,
	}
}

// Handle resolves one message for the given session. Canned and directive
// replies do not touch history; only model-routed turns append. A StateFailed
// outcome carries no reply text; the HTTP layer owns the error payload.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (Outcome, error) {
	if sessionID == "" {
		sessionID = session.DefaultID
	}

	st, err := s.store.GetOrCreate(sessionID)
	if err != nil {
		return Outcome{State: StateFailed}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	if in, ok := s.classifier.Classify(message); ok {
		reply, err := s.answerCanned(sessionID, in)
		if err != nil {
			return Outcome{State: StateFailed}, err
		}
		return Outcome{State: StateCannedAnswered, Reply: reply}, nil
	}

	prompt := s.composer.Compose(st, s.contextFor(ctx, message), message)

	raw, err := s.generator.Generate(ctx, s.model, prompt)
	if err != nil {
		return Outcome{State: StateFailed}, fmt.Errorf("generating reply: %w", err)
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		reply = ClarificationReply
	}

	if err := s.store.AppendTurn(sessionID, message, reply); err != nil {
		return Outcome{State: StateFailed}, fmt.Errorf("appending turn: %w", err)
	}

	return Outcome{State: StateModelRouted, Reply: reply}, nil
}

// contextFor fetches top-K snippets for the message. Retrieval failures
// degrade to an empty context rather than failing the chat request.
func (s *Service) contextFor(ctx context.Context, message string) []string {
	if s.contextSource == nil || s.topK <= 0 {
		return nil
	}
	snippets, err := s.contextSource.Search(ctx, message, s.topK)
	if err != nil {
		slog.Warn("context retrieval failed", "error", err)
		return nil
	}
	out := make([]string, len(snippets))
	for i, sn := range snippets {
		out[i] = sn.String()
	}
	return out
}

// answerCanned renders the reply for a classified intent. Directives mutate
// the session as their only side effect; content lookups are pure.
func (s *Service) answerCanned(sessionID string, in intent.Intent) (string, error) {
	switch in.Kind {
	case intent.KindSetTone:
		if err := s.store.SetTone(sessionID, in.Arg); err != nil {
			return "", fmt.Errorf("setting tone: %w", err)
		}
		return fmt.Sprintf("Okay, I'll respond in a %s tone from now on.", in.Arg), nil

	case intent.KindSetLanguage:
		if err := s.store.SetLanguage(sessionID, in.Arg); err != nil {
			return "", fmt.Errorf("setting language: %w", err)
		}
		return fmt.Sprintf("Sure, I'll reply in %s.", in.Arg), nil

	case intent.KindProjectDetail:
		p, ok := s.profiles.FindProject(in.Arg)
		if !ok {
			// The classifier only emits this kind for resolved titles.
			return "", fmt.Errorf("project %q vanished from catalog", in.Arg)
		}
		reply := p.Title + ": " + p.Description
		if len(p.Technologies) > 0 {
			reply += " Built with " + strings.Join(p.Technologies, ", ") + "."
		}
		return reply, nil

	case intent.KindProjectList:
		return "Here are some of my projects: " + strings.Join(s.profiles.ProjectTitles(), ", "), nil

	case intent.KindBio:
		return s.profiles.Profile().Bio, nil

	case intent.KindExperience:
		p := s.profiles.Profile()
		lines := make([]string, len(p.Experience))
		for i, e := range p.Experience {
			lines[i] = fmt.Sprintf("%s at %s (%s)", e.Position, e.Company, e.Period)
		}
		return "Here's my experience: " + strings.Join(lines, "; ") + ".", nil

	case intent.KindEducation:
		p := s.profiles.Profile()
		lines := make([]string, len(p.Education))
		for i, e := range p.Education {
			lines[i] = fmt.Sprintf("%s from %s (%s)", e.Degree, e.School, e.Period)
		}
		return "Here's my education: " + strings.Join(lines, "; ") + ".", nil

	case intent.KindSkills:
		p := s.profiles.Profile()
		lines := make([]string, len(p.Skills))
		for i, c := range p.Skills {
			lines[i] = c.Category + ": " + strings.Join(c.Items, ", ")
		}
		return "Here are my skills. " + strings.Join(lines, ". ") + ".", nil

	case intent.KindAchievements:
		p := s.profiles.Profile()
		lines := make([]string, len(p.Achievements))
		for i, a := range p.Achievements {
			lines[i] = fmt.Sprintf("%s (%s)", a.Title, a.Value)
		}
		return "Some of my achievements: " + strings.Join(lines, "; ") + ".", nil

	default:
		return "", fmt.Errorf("unhandled intent kind %d", in.Kind)
	}
}
