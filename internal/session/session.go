// Package session keeps per-visitor conversation state: an append-only
// message history plus tone and language preferences.
package session

import (
	"errors"
	"time"
)

// DefaultID is used when a request carries no session identifier.
const DefaultID = "default"

const (
	DefaultTone     = "neutral"
	DefaultLanguage = "en"
)

// SenderUser and SenderBot are the two history senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ErrNotFound is returned by lookups of sessions that were never created.
var ErrNotFound = errors.New("session not found")

// Message is one history entry.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// State is a snapshot of one session. Mutations go through the Store; a
// State held by a caller never changes underneath it.
type State struct {
	ID       string    `json:"id"`
	Tone     string    `json:"tone"`
	Language string    `json:"language"`
	History  []Message `json:"history"`
}

// Summary describes a session without its history, for listings.
type Summary struct {
	ID        string    `json:"id"`
	Tone      string    `json:"tone"`
	Language  string    `json:"language"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store owns all session state. Implementations must be safe for concurrent
// use; per-session mutations are last-write-wins under concurrency, which is
// accepted at personal-site traffic.
type Store interface {
	// GetOrCreate returns the session snapshot, initializing a fresh one
	// (empty history, neutral tone, language "en") on first use of an id.
	GetOrCreate(id string) (State, error)

	// SetTone updates the tone preference, creating the session if needed.
	SetTone(id, tone string) error

	// SetLanguage updates the language preference, creating the session if
	// needed.
	SetLanguage(id, language string) error

	// AppendTurn appends the user message and the bot reply, in that order.
	AppendTurn(id, userText, botText string) error

	// Get returns the session snapshot or ErrNotFound.
	Get(id string) (State, error)

	// List returns summaries of all sessions.
	List() ([]Summary, error)

	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(id string) error

	// Close releases backing resources.
	Close() error
}

func newState(id string) State {
	return State{
		ID:       id,
		Tone:     DefaultTone,
		Language: DefaultLanguage,
	}
}
