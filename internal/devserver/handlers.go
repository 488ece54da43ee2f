package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/breate/internal/api"
)

// peer is a directory entry with the option ids the discover filters match.
type peer struct {
	api.Peer
	ArchetypeID int64
	TierID      int64
}

func (s *Server) routes(r *gin.Engine) {
	v1 := r.Group("/api/v1", s.faults())

	v1.GET("/archetypes/", s.listOptions(func() []api.Option { return s.archetypes }))
	v1.GET("/tiers/", s.listOptions(func() []api.Option { return s.tiers }))
	v1.GET("/discover/", s.discover)

	v1.GET("/coalitions", s.listCoalitions)
	v1.POST("/coalitions", s.createCoalition)
	v1.GET("/projects", s.listProjects)
	v1.POST("/projects", s.createProject)
	v1.GET("/collabcircle/:username", s.collabCircle)

	auth := v1.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	v1.GET("/profile/:username", s.getProfile)
	v1.PUT("/profile/:username", s.requireAuth(), s.updateProfile)
}

func (s *Server) listOptions(list func() []api.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		out := append([]api.Option(nil), list()...)
		s.mu.Unlock()
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) discover(c *gin.Context) {
	name := strings.ToLower(strings.TrimSpace(c.Query("name")))
	archetypeID, okA := optionalID(c.Query("archetype_id"))
	tierID, okT := optionalID(c.Query("tier_id"))
	if !okA || !okT {
		detail(c, http.StatusBadRequest, "archetype_id and tier_id must be integers")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Peer, 0, len(s.peers))
	for _, p := range s.peers {
		if name != "" && !strings.Contains(strings.ToLower(p.Username), name) {
			continue
		}
		if archetypeID != 0 && p.ArchetypeID != archetypeID {
			continue
		}
		if tierID != 0 && p.TierID != tierID {
			continue
		}
		out = append(out, p.Peer)
	}
	c.JSON(http.StatusOK, out)
}

func optionalID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func (s *Server) listCoalitions(c *gin.Context) {
	s.mu.Lock()
	out := append([]api.Coalition(nil), s.coalitions...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCoalition(c *gin.Context) {
	var in api.CoalitionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalid(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		invalid(c, err)
		return
	}

	s.mu.Lock()
	s.nextID++
	created := api.Coalition{
		ID:          s.nextID,
		Name:        strings.TrimSpace(in.Name),
		Focus:       strings.TrimSpace(in.Focus),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		BannerEmoji: "🎬",
		MemberCount: 1,
	}
	s.coalitions = append(s.coalitions, created)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, created)
}

func (s *Server) listProjects(c *gin.Context) {
	s.mu.Lock()
	out := append([]api.Project(nil), s.projects...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProject(c *gin.Context) {
	var in api.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalid(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		invalid(c, err)
		return
	}

	s.mu.Lock()
	s.nextID++
	created := api.Project{
		ID:               s.nextID,
		Title:            strings.TrimSpace(in.Title),
		Objective:        strings.TrimSpace(in.Objective),
		ProjectType:      in.ProjectType,
		NeededArchetypes: in.NeededArchetypes,
		OpenRoles:        in.OpenRoles,
		Timeline:         in.Timeline,
		Region:           in.Region,
		CoalitionTags:    in.CoalitionTags,
		CreatedAt:        s.now().UTC().Format(time.RFC3339),
	}
	s.projects = append(s.projects, created)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, created)
}

func (s *Server) collabCircle(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))

	s.mu.Lock()
	_, known := s.profiles[username]
	entries := append([]api.CircleEntry(nil), s.circles[username]...)
	s.mu.Unlock()

	if !known {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if entries == nil {
		entries = []api.CircleEntry{}
	}
	c.JSON(http.StatusOK, api.CircleResponse{CollabCircle: entries})
}

func (s *Server) getProfile(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))

	s.mu.Lock()
	p, ok := s.profiles[username]
	s.mu.Unlock()
	if !ok {
		detail(c, http.StatusNotFound, "Profile not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProfile(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if c.GetString(ctxUsername) != username {
		detail(c, http.StatusForbidden, "You can only edit your own profile")
		return
	}

	var in api.Profile
	if err := c.ShouldBindJSON(&in); err != nil {
		invalid(c, err)
		return
	}
	in.Username = username

	s.mu.Lock()
	if _, ok := s.profiles[username]; !ok {
		s.mu.Unlock()
		detail(c, http.StatusNotFound, "Profile not found")
		return
	}
	s.profiles[username] = in
	s.mu.Unlock()

	c.JSON(http.StatusOK, in)
}
