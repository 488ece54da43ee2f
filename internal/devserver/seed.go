package devserver

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/five82/breate/internal/api"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "collab-pass"

// SeedEmail returns the login email of a seeded username.
func SeedEmail(username string) string {
	return username + "@breate.test"
}

func (s *Server) seed() error {
	s.archetypes = []api.Option{
		{ID: 1, Name: "Director", Description: "Leads the creative vision"},
		{ID: 2, Name: "Writer", Description: "Shapes story and script"},
		{ID: 3, Name: "Cinematographer", Description: "Frames and lights the shot"},
		{ID: 4, Name: "Composer", Description: "Scores and designs sound"},
		{ID: 5, Name: "Editor", Description: "Cuts the story together"},
	}
	s.tiers = []api.Option{
		{ID: 1, Name: "Emerging", Description: "First credits"},
		{ID: 2, Name: "Established", Description: "Several shipped projects"},
		{ID: 3, Name: "Veteran", Description: "Long track record"},
	}

	peers := []struct {
		username    string
		archetypeID int64
		tierID      int64
		region      string
		bio         string
		projects    int
	}{
		{"film-maker-ama", 1, 2, "Accra", "Short films about coastal towns.", 2},
		{"filmscore-kofi", 4, 1, "Lagos", "Highlife-inspired film scores.", 1},
		{"film-buff-nana", 2, 1, "Nairobi", "Writes festival shorts.", 0},
		{"adwoa-b", 2, 3, "Global", "Screenwriter and story editor.", 3},
		{"esi-lens", 3, 2, "Accra", "Documentary camera work.", 1},
		{"yaw-cuts", 5, 2, "Global", "Editor for music videos.", 2},
	}
	for _, p := range peers {
		s.nextID++
		s.peers = append(s.peers, peer{
			Peer: api.Peer{
				ID:             s.nextID,
				Username:       p.username,
				Archetype:      s.optionName(s.archetypes, p.archetypeID),
				Tier:           s.optionName(s.tiers, p.tierID),
				Region:         p.region,
				Bio:            p.bio,
				ActiveProjects: p.projects,
			},
			ArchetypeID: p.archetypeID,
			TierID:      p.tierID,
		})
		s.profiles[p.username] = api.Profile{Username: p.username, Bio: p.bio}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), s.hashCost)
	if err != nil {
		return err
	}
	for _, p := range s.peers {
		email := SeedEmail(p.Username)
		s.accounts[email] = &account{
			user: api.User{ID: p.ID, Username: p.Username, Email: email},
			hash: hash,
		}
	}

	s.coalitions = []api.Coalition{
		{ID: 101, Name: "Accra Shorts Collective", Focus: "Short film", Location: "Accra, Ghana", Description: "Monthly shorts screenings.", BannerEmoji: "🎬", MemberCount: 14, ActiveProjects: 3},
		{ID: 102, Name: "Lagos Sound Lab", Focus: "Film scoring", Location: "Lagos, Nigeria", Description: "Composers scoring indie films.", BannerEmoji: "🎼", MemberCount: 9, ActiveProjects: 2},
		{ID: 103, Name: "Nairobi Docs", Focus: "Documentary", Location: "Nairobi, Kenya", Description: "Documentary makers sharing kit.", BannerEmoji: "📽", MemberCount: 21, ActiveProjects: 4},
		{ID: 104, Name: "Cape Town Story Room", Focus: "Screenwriting", Location: "Cape Town, South Africa", Description: "Table reads and script swaps.", BannerEmoji: "✍", MemberCount: 7, ActiveProjects: 1},
	}

	created := s.now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	s.projects = []api.Project{
		{ID: 201, Title: "Tidewater", Objective: "A short about a fishing town at dawn.", ProjectType: "Short film", NeededArchetypes: []string{"Cinematographer", "Composer"}, OpenRoles: "DP, composer", Timeline: "3 months", Region: "Accra", CoalitionTags: []string{"Accra Shorts Collective"}, CreatedAt: created},
		{ID: 202, Title: "Market Voices", Objective: "Documentary series on market traders.", ProjectType: "Documentary", NeededArchetypes: []string{"Editor"}, OpenRoles: "Editor", Timeline: "6 months", Region: "Nairobi", CoalitionTags: []string{"Nairobi Docs"}, CreatedAt: created},
	}

	verified := s.now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	s.circles["film-maker-ama"] = []api.CircleEntry{
		{CollaboratorUsername: "filmscore-kofi", ProjectName: "Tidewater", VerifiedAt: verified},
		{CollaboratorUsername: "esi-lens", ProjectName: "Tidewater", VerifiedAt: verified},
	}
	s.circles["esi-lens"] = []api.CircleEntry{
		{CollaboratorUsername: "film-maker-ama", ProjectName: "Tidewater", VerifiedAt: verified},
	}
	s.nextID = 1000
	return nil
}

func (s *Server) optionName(options []api.Option, id int64) string {
	for _, o := range options {
		if o.ID == id {
			return o.Name
		}
	}
	return ""
}
