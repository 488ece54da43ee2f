package api

import (
	"strings"
	"time"
)

// Coalition mirrors the /coalitions payload.
type Coalition struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Focus          string `json:"focus"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	BannerEmoji    string `json:"bannerEmoji,omitempty"`
	MemberCount    int    `json:"memberCount,omitempty"`
	ActiveProjects int    `json:"activeProjects,omitempty"`
}

// CoalitionInput is the create request for /coalitions.
type CoalitionInput struct {
	Name        string `json:"name"`
	Focus       string `json:"focus"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Validate checks required fields before anything is sent.
func (in CoalitionInput) Validate() error {
	return requireFields(map[string]string{
		"name":     in.Name,
		"focus":    in.Focus,
		"location": in.Location,
	})
}

// Project mirrors the /projects payload.
type Project struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Objective        string   `json:"objective"`
	ProjectType      string   `json:"project_type"`
	NeededArchetypes []string `json:"needed_archetypes"`
	OpenRoles        string   `json:"open_roles"`
	Timeline         string   `json:"timeline"`
	Region           string   `json:"region"`
	CoalitionTags    []string `json:"coalition_tags"`
	CreatedAt        string   `json:"created_at"`
}

// ParsedCreatedAt returns the creation timestamp, or the zero time.
func (p Project) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// ProjectInput is the create request for /projects.
type ProjectInput struct {
	Title            string   `json:"title"`
	Objective        string   `json:"objective"`
	Timeline         string   `json:"timeline"`
	NeededArchetypes []string `json:"needed_archetypes"`
	OpenRoles        string   `json:"open_roles"`
	ProjectType      string   `json:"project_type"`
	Region           string   `json:"region"`
	CoalitionTags    []string `json:"coalition_tags"`
}

// Validate checks required fields before anything is sent.
func (in ProjectInput) Validate() error {
	if err := requireFields(map[string]string{
		"title":      in.Title,
		"objective":  in.Objective,
		"timeline":   in.Timeline,
		"open_roles": in.OpenRoles,
	}); err != nil {
		return err
	}
	if len(in.NeededArchetypes) == 0 {
		return &ValidationError{Field: "needed_archetypes", Reason: "select at least one archetype"}
	}
	return nil
}

// Peer mirrors one /discover/ result.
type Peer struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Archetype      string `json:"archetype"`
	Tier           string `json:"tier"`
	Region         string `json:"region"`
	Bio            string `json:"bio"`
	ActiveProjects int    `json:"active_projects"`
	IsSaved        bool   `json:"is_saved"`
}

// CircleEntry is one confirmed collaborator from /collabcircle/{username}.
type CircleEntry struct {
	CollaboratorUsername string `json:"collaborator_username"`
	ProjectName          string `json:"project_name"`
	VerifiedAt           string `json:"verified_at"`
}

// ParsedVerifiedAt returns the verification timestamp, or the zero time.
func (c CircleEntry) ParsedVerifiedAt() time.Time {
	return parseTime(c.VerifiedAt)
}

// CircleResponse mirrors /collabcircle/{username}.
type CircleResponse struct {
	CollabCircle []CircleEntry `json:"collab_circle"`
}

// Option is a filter vocabulary entry from /archetypes/ or /tiers/.
type Option struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Vocabulary groups the filter option lists.
type Vocabulary struct {
	Archetypes []Option
	Tiers      []Option
}

// User is the account summary returned with a login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credentials is the /auth/login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before they are sent.
func (c Credentials) Validate() error {
	if err := requireFields(map[string]string{"email": c.Email, "password": c.Password}); err != nil {
		return err
	}
	if !strings.Contains(c.Email, "@") {
		return &ValidationError{Field: "email", Reason: "must be an email address"}
	}
	return nil
}

// Registration is the /auth/register body.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Validate checks the registration and defaults the username to the email's
// local part.
func (r *Registration) Validate() error {
	if err := (Credentials{Email: r.Email, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Username) == "" {
		r.Username = strings.SplitN(r.Email, "@", 2)[0]
	}
	return nil
}

// Profile mirrors /profile/{username}.
type Profile struct {
	FullName        string `json:"full_name"`
	Username        string `json:"username"`
	Bio             string `json:"bio"`
	PreferredThemes string `json:"preferred_themes"`
	PortfolioLinks  string `json:"portfolio_links"`
	NextBuild       string `json:"next_build"`
	Affiliations    string `json:"affiliations"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
