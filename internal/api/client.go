package api

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/filter"
)

// Ensure Client can back the fetch engine at compile time.
var _ fetch.Transport = (*Client)(nil)

// Client talks to the directory HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger

	mu    sync.RWMutex
	token string
}

const (
	DefaultBaseURL   = "http://127.0.0.1:8000/api/v1"
	defaultUserAgent = "breate/0.1"
	requestTimeout   = 10 * time.Second
	maxBodyBytes     = 8 << 20
)

// NewClient builds a Client for the API rooted at base (for example
// http://127.0.0.1:8000/api/v1).
func NewClient(base string, logger *zap.Logger) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		logger:    logger,
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetToken sets the bearer token sent with authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

// Fetch issues a GET for a descriptor and returns the raw body.
func (c *Client) Fetch(ctx context.Context, d filter.Descriptor) (stdjson.RawMessage, error) {
	body, err := c.raw(ctx, http.MethodGet, d.Endpoint, d.RawQuery(), nil, false)
	if err != nil {
		return nil, err
	}
	return stdjson.RawMessage(body), nil
}

// ListCoalitions retrieves every coalition.
func (c *Client) ListCoalitions(ctx context.Context) ([]Coalition, error) {
	var out []Coalition
	if err := c.do(ctx, http.MethodGet, "/coalitions", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCoalition validates and posts a new coalition.
func (c *Client) CreateCoalition(ctx context.Context, in CoalitionInput) (Coalition, error) {
	if err := in.Validate(); err != nil {
		return Coalition{}, err
	}
	var out Coalition
	if err := c.do(ctx, http.MethodPost, "/coalitions", in, &out, false); err != nil {
		return Coalition{}, err
	}
	return out, nil
}

// ListProjects retrieves the hub projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject validates and posts a new project.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	if err := in.Validate(); err != nil {
		return Project{}, err
	}
	var out Project
	if err := c.do(ctx, http.MethodPost, "/projects", in, &out, false); err != nil {
		return Project{}, err
	}
	return out, nil
}

// CollabCircle lists the confirmed collaborators of username.
func (c *Client) CollabCircle(ctx context.Context, username string) ([]CircleEntry, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Field: "username", Reason: "is required"}
	}
	var out CircleResponse
	if err := c.do(ctx, http.MethodGet, CirclePath(username), nil, &out, false); err != nil {
		return nil, err
	}
	return out.CollabCircle, nil
}

// CirclePath returns the collab circle endpoint for username.
func CirclePath(username string) string {
	return "/collabcircle/" + strings.TrimSpace(username)
}

// Archetypes lists the archetype filter options.
func (c *Client) Archetypes(ctx context.Context) ([]Option, error) {
	var out []Option
	if err := c.do(ctx, http.MethodGet, "/archetypes/", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// Tiers lists the tier filter options.
func (c *Client) Tiers(ctx context.Context) ([]Option, error) {
	var out []Option
	if err := c.do(ctx, http.MethodGet, "/tiers/", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// Vocabulary loads archetypes and tiers concurrently, retrying each according
// to policy.
func (c *Client) Vocabulary(ctx context.Context, policy fetch.Policy) (Vocabulary, error) {
	var vocab Vocabulary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := fetch.Retry(gctx, policy, c.logger.With(zap.String("endpoint", "/archetypes/")), func(ctx context.Context) error {
			var err error
			vocab.Archetypes, err = c.Archetypes(ctx)
			return err
		})
		return err
	})
	g.Go(func() error {
		_, err := fetch.Retry(gctx, policy, c.logger.With(zap.String("endpoint", "/tiers/")), func(ctx context.Context) error {
			var err error
			vocab.Tiers, err = c.Tiers(ctx)
			return err
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Vocabulary{}, fmt.Errorf("load filter options: %w", err)
	}
	return vocab, nil
}

// DiscoverQuery configures /discover/ requests.
type DiscoverQuery struct {
	Name        string
	ArchetypeID string
	TierID      string
}

// Discover runs a single peer search without retries.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) ([]Peer, error) {
	values := url.Values{}
	if name := strings.TrimSpace(q.Name); name != "" {
		values.Set("name", name)
	}
	if id := strings.TrimSpace(q.ArchetypeID); id != "" {
		values.Set("archetype_id", id)
	}
	if id := strings.TrimSpace(q.TierID); id != "" {
		values.Set("tier_id", id)
	}
	body, err := c.raw(ctx, http.MethodGet, "/discover/", values.Encode(), nil, false)
	if err != nil {
		return nil, err
	}
	var out []Peer
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Login exchanges credentials for a session. Rejections surface the API's
// detail message and are not retried.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg Registration) (Session, error) {
	if err := reg.Validate(); err != nil {
		return Session{}, err
	}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Profile reads the profile of username.
func (c *Client) Profile(ctx context.Context, username string) (Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, profilePath(username), nil, &out, true); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// UpdateProfile replaces the profile of username. It requires a token.
func (c *Client) UpdateProfile(ctx context.Context, username string, p Profile) (Profile, error) {
	if strings.TrimSpace(username) == "" {
		return Profile{}, &ValidationError{Field: "username", Reason: "is required"}
	}
	var out Profile
	if err := c.do(ctx, http.MethodPut, profilePath(username), p, &out, true); err != nil {
		return Profile{}, err
	}
	return out, nil
}

func profilePath(username string) string {
	return "/profile/" + strings.TrimSpace(username)
}

func (c *Client) do(ctx context.Context, method, path string, in, dest any, auth bool) error {
	body, err := c.raw(ctx, method, path, "", in, auth)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path, rawQuery string, in any, auth bool) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := *c.baseURL
	reqURL.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	reqURL.RawQuery = rawQuery

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Method: method, Path: path, Status: resp.StatusCode, Detail: parseDetail(body)}
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, apiErr
	}
	return body, nil
}

func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", base, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", base)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
