package web

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/packetintransit/meraki/internal/bot"
	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
)

// SessionCookie is the cookie carrying the signed session ID.
const SessionCookie = "merakictl_session"

// DefaultSessionTTL is how long an idle session survives.
const DefaultSessionTTL = 24 * time.Hour

// Session is the server-side state for one browser session. The
// dashboard client and the chat processor live here, so the API key a
// user enters never leaves the process: the cookie only carries the
// session ID.
type Session struct {
	ID     string
	Client *meraki.Client
	Bot    *bot.Bot

	lastSeen time.Time
}

// HasAPIKey reports whether this session has a dashboard key set.
func (s *Session) HasAPIKey() bool {
	return s.Client.HasAPIKey()
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionStore issues and resolves web sessions. Tokens are HS256 JWTs
// holding only the session ID; everything else stays in memory here.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	secret    []byte
	ttl       time.Duration
	clk       clock.Clock
	newClient func() *meraki.Client
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionClock substitutes the time source, for tests.
func WithSessionClock(clk clock.Clock) SessionOption {
	return func(st *SessionStore) { st.clk = clk }
}

// WithSessionTTL overrides the idle expiry.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(st *SessionStore) { st.ttl = ttl }
}

// absoluteTTL caps a session's total lifetime. The idle TTL is the
// real gate; tokens and cookies just need to outlive it so an active
// session can keep refreshing.
func (st *SessionStore) absoluteTTL() time.Duration {
	return 7 * st.ttl
}

// NewSessionStore creates a session store. An empty secret gets a
// random per-process one, which invalidates sessions on restart.
// newClient builds the per-session dashboard client.
func NewSessionStore(secret string, newClient func() *meraki.Client, opts ...SessionOption) *SessionStore {
	st := &SessionStore{
		sessions:  make(map[string]*Session),
		ttl:       DefaultSessionTTL,
		clk:       &clock.RealClock{},
		newClient: newClient,
	}
	if secret != "" {
		st.secret = []byte(secret)
	} else {
		st.secret = make([]byte, 32)
		rand.Read(st.secret)
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Issue creates a session and sets its cookie on the response.
func (st *SessionStore) Issue(w http.ResponseWriter) (*Session, error) {
	client := st.newClient()
	sess := &Session{
		ID:       uuid.NewString(),
		Client:   client,
		Bot:      bot.New(client),
		lastSeen: st.clk.Now(),
	}

	token, err := st.signToken(sess.ID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.updateGauge()
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(st.absoluteTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// updateGauge pushes the live session count into the metrics gauge.
// Callers hold st.mu.
func (st *SessionStore) updateGauge() {
	metrics.Get().SessionsActive.Set(float64(len(st.sessions)))
}

// Get resolves the request's session. Expired or unknown sessions
// return false. A hit refreshes the idle timer.
func (st *SessionStore) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	id, err := st.parseToken(cookie.Value)
	if err != nil {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.clk.Now()
	if now.Sub(sess.lastSeen) > st.ttl {
		delete(st.sessions, id)
		st.updateGauge()
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// GetOrIssue returns the request's session, creating one if needed.
func (st *SessionStore) GetOrIssue(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if sess, ok := st.Get(r); ok {
		return sess, nil
	}
	return st.Issue(w)
}

// Drop removes the request's session and expires its cookie.
func (st *SessionStore) Drop(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id, err := st.parseToken(cookie.Value); err == nil {
			st.mu.Lock()
			delete(st.sessions, id)
			st.updateGauge()
			st.mu.Unlock()
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle past the TTL and reports how many.
func (st *SessionStore) Prune() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.clk.Now()
	pruned := 0
	for id, sess := range st.sessions {
		if now.Sub(sess.lastSeen) > st.ttl {
			delete(st.sessions, id)
			pruned++
		}
	}
	st.updateGauge()
	return pruned
}

// StartPruning sweeps idle sessions on an interval until ctx ends.
func (st *SessionStore) StartPruning(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (st *SessionStore) signToken(sessionID string) (string, error) {
	now := st.clk.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(st.absoluteTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(st.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (st *SessionStore) parseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return st.secret, nil
	}, jwt.WithTimeFunc(st.clk.Now))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.SessionID, nil
}
