// FILE: logbridge/src/internal/auth/authenticator.go
package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/limit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

const (
	// Prevent unbounded growth of attempt and session tracking
	maxAuthTrackedIPs = 10000
	maxSessions       = 10000

	sessionIdleTimeout  = 30 * time.Minute
	defaultFailureDelay = 500 * time.Millisecond
)

// Authenticator handles all authentication methods for one listener
type Authenticator struct {
	config       config.AuthConfig
	logger       *log.Logger
	basicUsers   map[string]string // username -> PHC hash
	bearerTokens map[string]bool   // token -> valid
	jwtParser    *jwt.Parser
	jwtKeyFunc   jwt.Keyfunc

	// Session tracking
	sessions  *lru.Cache[string, *Session]
	sessionMu sync.Mutex

	// Brute-force protection
	ipAuthAttempts *lru.Cache[string, *ipAuthState]
	authMu         sync.Mutex
	failureDelay   time.Duration
}

// Per-IP auth attempt tracking
type ipAuthState struct {
	limiter      *rate.Limiter
	failCount    int
	blockedUntil time.Time
}

// Session represents an authenticated connection or request
type Session struct {
	ID           string
	Username     string
	Method       string // none, basic, bearer, jwt
	RemoteAddr   string
	CreatedAt    time.Time
	LastActivity time.Time
	Metadata     map[string]any
}

// New creates a new authenticator from config. Returns nil for type "none";
// a nil *Authenticator accepts everything.
func New(cfg config.AuthConfig, logger *log.Logger) (*Authenticator, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}

	sessions, err := lru.New[string, *Session](maxSessions)
	if err != nil {
		return nil, err
	}
	attempts, err := lru.New[string, *ipAuthState](maxAuthTrackedIPs)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		config:         cfg,
		logger:         logger,
		basicUsers:     make(map[string]string),
		bearerTokens:   make(map[string]bool),
		sessions:       sessions,
		ipAuthAttempts: attempts,
		failureDelay:   defaultFailureDelay,
	}

	switch cfg.Type {
	case "basic":
		for _, user := range cfg.Users {
			a.basicUsers[user.Username] = user.PasswordHash
		}

	case "bearer":
		for _, token := range cfg.Tokens {
			a.bearerTokens[token] = true
		}

		if cfg.JWT.SigningKey != "" {
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
				jwt.WithLeeway(5 * time.Second),
				jwt.WithExpirationRequired(),
			}
			if cfg.JWT.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.JWT.Issuer))
			}
			if cfg.JWT.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.JWT.Audience))
			}
			a.jwtParser = jwt.NewParser(opts...)

			key := []byte(cfg.JWT.SigningKey)
			a.jwtKeyFunc = func(token *jwt.Token) (any, error) {
				return key, nil
			}
		}

	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}

	logger.Info("msg", "Authenticator initialized",
		"component", "auth",
		"type", cfg.Type,
		"basic_users", len(a.basicUsers),
		"static_tokens", len(a.bearerTokens),
		"jwt", a.jwtParser != nil)

	return a, nil
}

// Check and enforce per-IP attempt limits
func (a *Authenticator) checkRateLimit(remoteAddr string) error {
	ip := limit.ExtractIP(remoteAddr)
	if ip == "" {
		ip = remoteAddr
	}

	a.authMu.Lock()
	defer a.authMu.Unlock()

	state, exists := a.ipAuthAttempts.Get(ip)
	if !exists {
		// 5 attempts per minute, burst of 3
		state = &ipAuthState{
			limiter: rate.NewLimiter(rate.Every(12*time.Second), 3),
		}
		a.ipAuthAttempts.Add(ip, state)
	}

	now := time.Now()
	if now.Before(state.blockedUntil) {
		remaining := state.blockedUntil.Sub(now)
		a.logger.Warn("msg", "IP temporarily blocked",
			"component", "auth",
			"ip", ip,
			"remaining", remaining)
		return fmt.Errorf("temporarily blocked, try again in %v", remaining.Round(time.Second))
	}

	if !state.limiter.Allow() {
		state.failCount++

		// Progressive blocking: 2^failCount minutes, capped at 64
		blockMinutes := 1 << min(state.failCount, 6)
		state.blockedUntil = now.Add(time.Duration(blockMinutes) * time.Minute)

		a.logger.Warn("msg", "Auth rate limit exceeded, blocking IP",
			"component", "auth",
			"ip", ip,
			"fail_count", state.failCount,
			"block_duration", time.Duration(blockMinutes)*time.Minute)

		return fmt.Errorf("rate limit exceeded")
	}

	return nil
}

func (a *Authenticator) recordResult(remoteAddr string, success bool) {
	ip := limit.ExtractIP(remoteAddr)
	if ip == "" {
		ip = remoteAddr
	}

	a.authMu.Lock()
	defer a.authMu.Unlock()

	state, exists := a.ipAuthAttempts.Peek(ip)
	if !exists {
		return
	}
	if success {
		state.failCount = 0
		state.blockedUntil = time.Time{}
	} else {
		state.failCount++
	}
}

// AuthenticateHTTP handles an HTTP Authorization header
func (a *Authenticator) AuthenticateHTTP(authHeader, remoteAddr string) (*Session, error) {
	if a == nil {
		return anonymousSession(remoteAddr), nil
	}

	if err := a.checkRateLimit(remoteAddr); err != nil {
		return nil, err
	}

	var session *Session
	var err error

	switch a.config.Type {
	case "basic":
		session, err = a.authenticateBasic(authHeader, remoteAddr)
	case "bearer":
		session, err = a.authenticateBearer(authHeader, remoteAddr)
	default:
		err = fmt.Errorf("unsupported auth type: %s", a.config.Type)
	}

	return a.finish(session, err, remoteAddr)
}

// AuthenticateTCP handles the "AUTH <method> <credentials>" line of the
// TCP protocol. Methods are "basic" (base64 user:pass) and "token".
func (a *Authenticator) AuthenticateTCP(method, credentials, remoteAddr string) (*Session, error) {
	if a == nil {
		return anonymousSession(remoteAddr), nil
	}

	if err := a.checkRateLimit(remoteAddr); err != nil {
		return nil, err
	}

	var session *Session
	var err error

	switch strings.ToLower(method) {
	case "token":
		if a.config.Type != "bearer" {
			err = fmt.Errorf("token auth not configured")
		} else {
			session, err = a.validateToken(credentials, remoteAddr)
		}

	case "basic":
		if a.config.Type != "basic" {
			err = fmt.Errorf("basic auth not configured")
		} else {
			var username, password string
			username, password, err = decodeBasic(credentials)
			if err == nil {
				session, err = a.validateBasicAuth(username, password, remoteAddr)
			}
		}

	default:
		err = fmt.Errorf("unsupported auth method: %s", method)
	}

	return a.finish(session, err, remoteAddr)
}

func (a *Authenticator) finish(session *Session, err error, remoteAddr string) (*Session, error) {
	if err != nil {
		a.recordResult(remoteAddr, false)
		a.logger.Warn("msg", "Authentication failed",
			"component", "auth",
			"remote_addr", remoteAddr,
			"error", err)
		// Slow down guessing
		time.Sleep(a.failureDelay)
		return nil, err
	}

	a.recordResult(remoteAddr, true)
	a.storeSession(session)
	return session, nil
}

func (a *Authenticator) authenticateBasic(authHeader, remoteAddr string) (*Session, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return nil, fmt.Errorf("invalid basic auth header")
	}

	username, password, err := decodeBasic(authHeader[6:])
	if err != nil {
		return nil, err
	}
	return a.validateBasicAuth(username, password, remoteAddr)
}

func decodeBasic(credentials string) (string, string, error) {
	payload, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return "", "", fmt.Errorf("invalid credentials encoding")
	}

	username, password, ok := strings.Cut(string(payload), ":")
	if !ok {
		return "", "", fmt.Errorf("invalid credentials format")
	}
	return username, password, nil
}

func (a *Authenticator) validateBasicAuth(username, password, remoteAddr string) (*Session, error) {
	expectedHash, exists := a.basicUsers[username]
	if !exists {
		return nil, fmt.Errorf("invalid credentials")
	}

	ok, err := VerifyPassword(password, expectedHash)
	if err != nil {
		a.logger.Error("msg", "Stored password hash is malformed",
			"component", "auth",
			"username", username,
			"error", err)
		return nil, fmt.Errorf("invalid credentials")
	}
	if !ok {
		return nil, fmt.Errorf("invalid credentials")
	}

	return newSession(username, "basic", remoteAddr, nil), nil
}

func (a *Authenticator) authenticateBearer(authHeader, remoteAddr string) (*Session, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("invalid bearer auth header")
	}
	return a.validateToken(authHeader[7:], remoteAddr)
}

func (a *Authenticator) validateToken(token, remoteAddr string) (*Session, error) {
	// Static tokens first
	if a.bearerTokens[token] {
		return newSession("", "bearer", remoteAddr, map[string]any{"token_type": "static"}), nil
	}

	if a.jwtParser == nil {
		return nil, fmt.Errorf("invalid token")
	}

	claims := jwt.MapClaims{}
	parsed, err := a.jwtParser.ParseWithClaims(token, claims, a.jwtKeyFunc)
	if err != nil {
		return nil, fmt.Errorf("JWT validation failed: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}

	username, _ := claims.GetSubject()
	return newSession(username, "jwt", remoteAddr, map[string]any{"claims": claims}), nil
}

func newSession(username, method, remoteAddr string, metadata map[string]any) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Username:     username,
		Method:       method,
		RemoteAddr:   remoteAddr,
		CreatedAt:    now,
		LastActivity: now,
		Metadata:     metadata,
	}
}

func anonymousSession(remoteAddr string) *Session {
	return newSession("", "none", remoteAddr, nil)
}

func (a *Authenticator) storeSession(session *Session) {
	a.sessions.Add(session.ID, session)

	a.logger.Info("msg", "Session created",
		"component", "auth",
		"session_id", session.ID,
		"username", session.Username,
		"method", session.Method,
		"remote_addr", session.RemoteAddr)
}

// ValidateSession checks that a session exists and has not gone idle,
// and refreshes its activity time.
func (a *Authenticator) ValidateSession(sessionID string) bool {
	if a == nil {
		return true
	}

	session, exists := a.sessions.Get(sessionID)
	if !exists {
		return false
	}

	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	now := time.Now()
	if now.Sub(session.LastActivity) > sessionIdleTimeout {
		a.sessions.Remove(sessionID)
		a.logger.Debug("msg", "Session expired",
			"component", "auth",
			"session_id", sessionID)
		return false
	}
	session.LastActivity = now
	return true
}

// EndSession forgets a session, typically when its connection closes
func (a *Authenticator) EndSession(sessionID string) {
	if a == nil {
		return
	}
	a.sessions.Remove(sessionID)
}

// GetStats returns authentication statistics
func (a *Authenticator) GetStats() map[string]any {
	if a == nil {
		return map[string]any{"enabled": false}
	}

	return map[string]any{
		"enabled":         true,
		"type":            a.config.Type,
		"active_sessions": a.sessions.Len(),
		"basic_users":     len(a.basicUsers),
		"static_tokens":   len(a.bearerTokens),
		"jwt":             a.jwtParser != nil,
	}
}

// Challenge returns the WWW-Authenticate header value for a failed HTTP
// login, or "" when auth is disabled.
func Challenge(cfg config.AuthConfig) string {
	switch cfg.Type {
	case "basic":
		realm := cfg.Realm
		if realm == "" {
			realm = "Restricted"
		}
		return fmt.Sprintf("Basic realm=%q", realm)
	case "bearer":
		return "Bearer"
	default:
		return ""
	}
}
