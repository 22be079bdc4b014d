package profile

// Profile is the owner's portfolio dataset. It is read-only after load and
// safe for concurrent use.
type Profile struct {
	Name         string          `json:"name"`
	Bio          string          `json:"bio"`
	Experience   []Experience    `json:"experience"`
	Education    []Education     `json:"education"`
	Skills       []SkillCategory `json:"skills"`
	Achievements []Achievement   `json:"achievements"`
}

// Experience is one entry of the work timeline, newest first.
type Experience struct {
	Position string `json:"position"`
	Company  string `json:"company"`
	Period   string `json:"period"`
}

// Education is one degree program.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Period string `json:"period"`
}

// SkillCategory groups skills under a display category ("Languages", "ML/AI").
// Categories keep catalog order when rendered.
type SkillCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Achievement is a single highlight ("LeetCode", "250+").
type Achievement struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Project is one entry of the project catalog.
type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
}
