package session

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists sessions in a SQLite database so conversations
// survive restarts. It implements Store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the session database in dataDir and runs
// pending migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "sessions.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetOrCreate(id string) (State, error) {
	if err := s.ensure(id); err != nil {
		return State{}, err
	}
	return s.Get(id)
}

// ensure creates the session row if it does not exist.
func (s *SQLiteStore) ensure(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, tone, language) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, DefaultTone, DefaultLanguage,
	)
	if err != nil {
		return fmt.Errorf("creating session %q: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) SetTone(id, tone string) error {
	if err := s.ensure(id); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE sessions SET tone = ?, updated_at = ? WHERE id = ?`,
		tone, now(), id)
	if err != nil {
		return fmt.Errorf("setting tone for session %q: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) SetLanguage(id, language string) error {
	if err := s.ensure(id); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE sessions SET language = ?, updated_at = ? WHERE id = ?`,
		language, now(), id)
	if err != nil {
		return fmt.Errorf("setting language for session %q: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) AppendTurn(id, userText, botText string) error {
	if err := s.ensure(id); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}

	var seq int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE session_id = ?`, id).Scan(&seq); err != nil {
		tx.Rollback()
		return fmt.Errorf("reading message sequence: %w", err)
	}

	for i, m := range []Message{
		{Sender: SenderUser, Text: userText},
		{Sender: SenderBot, Text: botText},
	} {
		if _, err := tx.Exec(`INSERT INTO messages (id, session_id, seq, sender, text) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), id, seq+i+1, m.Sender, m.Text); err != nil {
			tx.Rollback()
			return fmt.Errorf("appending message: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, now(), id); err != nil {
		tx.Rollback()
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Get(id string) (State, error) {
	st := State{ID: id}
	err := s.db.QueryRow(`SELECT tone, language FROM sessions WHERE id = ?`, id).
		Scan(&st.Tone, &st.Language)
	if err == sql.ErrNoRows {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("loading session %q: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT sender, text FROM messages WHERE session_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return State{}, fmt.Errorf("loading history for %q: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Sender, &m.Text); err != nil {
			return State{}, err
		}
		st.History = append(st.History, m)
	}
	return st, rows.Err()
}

func (s *SQLiteStore) List() ([]Summary, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.tone, s.language, s.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Tone, &sum.Language, &updatedAt, &sum.Messages); err != nil {
			return nil, err
		}
		sum.UpdatedAt = parseTime(updatedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
