// Package api exposes the chat backend over HTTP. The chat route keeps the
// wire contract the front-end depends on: every response, success or failure,
// is a JSON object with a "reply" field.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vtyagi/avatar/internal/chat"
	"github.com/vtyagi/avatar/internal/profile"
	"github.com/vtyagi/avatar/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Fixed reply payloads of the chat wire contract.
const (
	replyNoMessage = "No message provided"
	replyInternal  = "Oops! Something went wrong."
)

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Chat     *chat.Service
	Profiles *profile.Store
	Sessions session.Store

	// AllowedOrigin is the CORS origin; empty disables CORS headers,
	// "*" allows any origin.
	AllowedOrigin string

	// AdminToken guards the session management routes. Empty disables them.
	AdminToken string
}

// NewHandler builds the router: the chat endpoint, health, read-only profile
// data, and token-guarded session management.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	if deps.AllowedOrigin != "" {
		r.Use(CORS([]string{deps.AllowedOrigin}))
	}

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(deps.Chat))
	r.Get("/api/profile", handleProfile(deps.Profiles))
	r.Get("/api/projects", handleProjects(deps.Profiles))

	if deps.AdminToken != "" {
		r.Route("/api/sessions", func(r chi.Router) {
			r.Use(BearerAuth(deps.AdminToken))
			r.Get("/", handleSessionList(deps.Sessions))
			r.Get("/{id}", handleSessionGet(deps.Sessions))
			r.Delete("/{id}", handleSessionDelete(deps.Sessions))
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func handleChat(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeReply(w, http.StatusBadRequest, replyNoMessage)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeReply(w, http.StatusBadRequest, replyNoMessage)
			return
		}

		out, err := svc.Handle(r.Context(), req.SessionID, req.Message)
		if err != nil {
			slog.Error("chat request failed", "session", req.SessionID, "error", err)
			writeReply(w, http.StatusInternalServerError, replyInternal)
			return
		}

		slog.Debug("chat resolved", "session", req.SessionID, "state", out.State.String())
		writeReply(w, http.StatusOK, out.Reply)
	}
}

func handleProfile(profiles *profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profiles.Profile())
	}
}

func handleProjects(profiles *profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"projects": profiles.Projects()})
	}
}

func handleSessionList(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := store.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing sessions: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"sessions": summaries})
	}
}

func handleSessionGet(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Get(chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no such session")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	}
}

func handleSessionDelete(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(chi.URLParam(r, "id")); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeReply(w http.ResponseWriter, code int, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"reply": reply})
}
