package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/filter"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1:8000", u.Host)
	assert.Equal(t, "/api/v1", u.Path)

	u, err = parseBaseURL("example.com:1234/api/v1/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:1234/api/v1", u.String())

	_, err = parseBaseURL("http://")
	assert.Error(t, err)
}

func TestClient_FetchSendsOrderedQuery(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"username":"ama"}]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api/v1", nil)
	require.NoError(t, err)

	d := filter.Descriptor{
		Endpoint: "/discover/",
		Params: []filter.Param{
			{Name: "name", Value: "film maker"},
			{Name: "archetype_id", Value: "3"},
		},
	}
	body, err := client.Fetch(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/discover/", gotPath)
	assert.Equal(t, "name=film+maker&archetype_id=3", gotQuery)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.JSONEq(t, `[{"id":1,"username":"ama"}]`, string(body))
}

func TestClient_ErrorDetailIsParsed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid email or password"}`))
		case "/api/v1/coalitions":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":[{"msg":"field required"},{"msg":"too short"}]}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api/v1", nil)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), Credentials{Email: "a@b.io", Password: "pw"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, apiErr.Temporary())
	assert.Equal(t, "Invalid email or password", UserMessage(err))

	_, err = client.CreateCoalition(context.Background(), CoalitionInput{Name: "n", Focus: "f", Location: "l"})
	assert.Equal(t, "field required; too short", UserMessage(err))

	_, err = client.ListProjects(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, UnreachableMessage, UserMessage(err))
}

func TestClient_ValidationRunsBeforeRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	_, err = client.CreateCoalition(context.Background(), CoalitionInput{Name: "Reel", Focus: " "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "focus", verr.Field)
	assert.Equal(t, "focus: is required", UserMessage(err))

	_, err = client.CreateProject(context.Background(), ProjectInput{Title: "t", Objective: "o", Timeline: "q3", OpenRoles: "dp"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "needed_archetypes", verr.Field)

	_, err = client.Login(context.Background(), Credentials{Email: "nope", Password: "pw"})
	require.ErrorAs(t, err, &verr)

	_, err = client.CollabCircle(context.Background(), "  ")
	require.ErrorAs(t, err, &verr)

	assert.Zero(t, calls.Load())
}

func TestClient_CreateAndListCoalitions(t *testing.T) {
	t.Parallel()

	var posted CoalitionInput
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_ = json.NewDecoder(r.Body).Decode(&posted)
			_ = json.NewEncoder(w).Encode(Coalition{ID: 9, Name: posted.Name, Focus: posted.Focus, Location: posted.Location})
		default:
			_ = json.NewEncoder(w).Encode([]Coalition{{ID: 9, Name: "Reel"}})
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	created, err := client.CreateCoalition(context.Background(), CoalitionInput{Name: "Reel", Focus: "film", Location: "Accra"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, "Accra", posted.Location)

	list, err := client.ListCoalitions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Reel", list[0].Name)
}

func TestClient_CollabCircleUnwrapsEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collabcircle/kofi" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"collab_circle":[{"collaborator_username":"ama","project_name":"Reel","verified_at":"2025-03-01T10:00:00Z"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	entries, err := client.CollabCircle(context.Background(), "kofi")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ama", entries[0].CollaboratorUsername)
	assert.Equal(t, 2025, entries[0].ParsedVerifiedAt().Year())
}

func TestClient_ProfileSendsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Profile{Username: "kofi", Bio: "editor"})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	client.SetToken(" tok ")
	p, err := client.Profile(context.Background(), "kofi")
	require.NoError(t, err)
	assert.Equal(t, "editor", p.Bio)

	_, err = client.ListCoalitions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer tok", ""}, gotAuth)
}

func TestClient_VocabularyRetriesEachList(t *testing.T) {
	t.Parallel()

	var tierCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/archetypes/":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Director"},{"id":2,"name":"Editor"}]`))
		case "/tiers/":
			if tierCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`[{"id":1,"name":"Emerging"}]`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	policy := fetch.Policy{MaxRetries: 2, BaseDelay: time.Millisecond}
	vocab, err := client.Vocabulary(context.Background(), policy)
	require.NoError(t, err)
	assert.Len(t, vocab.Archetypes, 2)
	assert.Len(t, vocab.Tiers, 1)
	assert.Equal(t, int32(2), tierCalls.Load())
}

func TestClient_DiscoverOmitsBlankParams(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":4,"username":"esi","is_saved":true}]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	peers, err := client.Discover(context.Background(), DiscoverQuery{Name: "esi", TierID: " "})
	require.NoError(t, err)
	assert.Equal(t, "name=esi", gotQuery)
	require.Len(t, peers, 1)
	assert.True(t, peers[0].IsSaved)
}

func TestRegistration_DefaultsUsername(t *testing.T) {
	reg := Registration{Email: "kofi@example.com", Password: "pw"}
	require.NoError(t, reg.Validate())
	assert.Equal(t, "kofi", reg.Username)
}

func TestSession_ExpiresAt(t *testing.T) {
	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "kofi",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	s := Session{AccessToken: token}
	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, s.Expired(exp.Add(-time.Minute)))
	assert.True(t, s.Expired(exp))

	_, ok = Session{AccessToken: "not-a-jwt"}.ExpiresAt()
	assert.False(t, ok)
	assert.False(t, Session{}.Expired(time.Now()))
}

func TestUserMessage_WrappedErrors(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	wrapped := &fetch.FetchError{Attempts: 4, Cause: &Error{Status: 404}}
	assert.Equal(t, "Request failed (status 404)", UserMessage(wrapped))
	assert.Equal(t, UnreachableMessage, UserMessage(errors.New("dial tcp: refused")))
	assert.True(t, strings.HasPrefix((&Error{Method: "GET", Path: "/x", Status: 500}).Error(), "api GET /x"))
}
