package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/breate/internal/api"
)

const ctxUsername = "username"

type account struct {
	user api.User
	hash []byte
}

// claims is the access token payload.
type claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u api.User) (string, error) {
	now := s.now()
	c := claims{
		Username: u.Username,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseToken(raw string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's username in the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			detail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			detail(c, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		cl, err := s.parseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			detail(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		c.Set(ctxUsername, cl.Username)
		c.Next()
	}
}

func (s *Server) register(c *gin.Context) {
	var reg api.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		invalid(c, err)
		return
	}
	if err := reg.Validate(); err != nil {
		invalid(c, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		detail(c, http.StatusInternalServerError, "Could not create account")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if _, taken := s.profiles[reg.Username]; taken {
		s.mu.Unlock()
		detail(c, http.StatusBadRequest, "Username already taken")
		return
	}
	s.nextID++
	acct := &account{user: api.User{ID: s.nextID, Username: reg.Username, Email: email}, hash: hash}
	s.accounts[email] = acct
	s.profiles[reg.Username] = api.Profile{Username: reg.Username}
	s.mu.Unlock()

	s.respondSession(c, http.StatusCreated, acct.user)
}

func (s *Server) login(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		invalid(c, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(creds.Password)) != nil {
		detail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.respondSession(c, http.StatusOK, acct.user)
}

func (s *Server) respondSession(c *gin.Context, status int, u api.User) {
	token, err := s.issueToken(u)
	if err != nil {
		s.logger.Error("token signing failed")
		detail(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(status, api.Session{AccessToken: token, TokenType: "bearer", User: u})
}
