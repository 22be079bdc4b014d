package profile

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

//go:embed defaults/*.json
var defaultsFS embed.FS

// Store holds the portfolio dataset for the lifetime of the process.
// All fields are immutable after Load.
type Store struct {
	profile  Profile
	projects []Project
}

// Load reads profile.json and projects.json from dataDir. Either file may be
// absent, in which case the embedded default dataset is used for that file.
// projects.json is accepted both as a bare array and as an object with a
// top-level "projects" key.
func Load(dataDir string) (*Store, error) {
	profileRaw, err := readOrDefault(dataDir, "profile.json")
	if err != nil {
		return nil, err
	}
	projectsRaw, err := readOrDefault(dataDir, "projects.json")
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(profileRaw, &p); err != nil {
		return nil, fmt.Errorf("parsing profile.json: %w", err)
	}

	projects, err := parseProjects(projectsRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing projects.json: %w", err)
	}

	s := &Store{profile: p, projects: projects}
	s.warnAmbiguousTitles()
	return s, nil
}

func readOrDefault(dataDir, name string) ([]byte, error) {
	if dataDir != "" {
		data, err := os.ReadFile(filepath.Join(dataDir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	data, err := defaultsFS.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", name, err)
	}
	return data, nil
}

func parseProjects(raw []byte) ([]Project, error) {
	var list []Project
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Projects []Project `json:"projects"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Projects == nil {
		return nil, fmt.Errorf("expected a list or an object with a 'projects' key")
	}
	return wrapped.Projects, nil
}

// warnAmbiguousTitles flags catalog entries whose titles substring-collide.
// Detail lookups scan in catalog order, so collisions are shadowing, not
// errors; the owner should still know.
func (s *Store) warnAmbiguousTitles() {
	for i, a := range s.projects {
		for j, b := range s.projects {
			if i == j {
				continue
			}
			if strings.Contains(strings.ToLower(b.Title), strings.ToLower(a.Title)) {
				slog.Warn("project titles substring-collide, detail lookups prefer catalog order",
					"title", a.Title, "shadows", b.Title)
			}
		}
	}
}

// Profile returns the owner profile.
func (s *Store) Profile() Profile {
	return s.profile
}

// Projects returns the project catalog in catalog order.
func (s *Store) Projects() []Project {
	return s.projects
}

// ProjectTitles returns all project titles in catalog order.
func (s *Store) ProjectTitles() []string {
	titles := make([]string, len(s.projects))
	for i, p := range s.projects {
		titles[i] = p.Title
	}
	return titles
}

// FindProject returns the first project whose title contains fragment,
// case-insensitively. The second return is false when nothing matches or the
// fragment is empty.
func (s *Store) FindProject(fragment string) (Project, bool) {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" {
		return Project{}, false
	}
	for _, p := range s.projects {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			return p, true
		}
	}
	return Project{}, false
}
