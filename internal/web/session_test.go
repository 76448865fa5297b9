package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/meraki"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	st := NewSessionStore("test-secret", func() *meraki.Client {
		return meraki.New(meraki.WithCallInterval(0))
	}, WithSessionClock(clk), WithSessionTTL(time.Hour))
	return st, clk
}

// requestWithCookies copies the session cookie from a recorder onto a
// fresh request, the way a browser would echo it back.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionStore_IssueAndGet(t *testing.T) {
	st, _ := newTestSessionStore(t)

	rec := httptest.NewRecorder()
	sess, err := st.Issue(rec)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected a session ID")
	}
	if sess.HasAPIKey() {
		t.Error("expected fresh session without an API key")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie {
		t.Fatalf("expected one %s cookie, got %v", SessionCookie, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("expected an HttpOnly cookie")
	}
	// The cookie must never contain the raw session ID or an API key.
	if cookies[0].Value == sess.ID {
		t.Error("cookie must carry a signed token, not the bare session ID")
	}

	got, ok := st.Get(requestWithCookies(rec))
	if !ok {
		t.Fatal("expected to resolve the session")
	}
	if got.ID != sess.ID {
		t.Errorf("expected session %s, got %s", sess.ID, got.ID)
	}
}

func TestSessionStore_GetWithoutCookie(t *testing.T) {
	st, _ := newTestSessionStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := st.Get(req); ok {
		t.Error("expected no session without a cookie")
	}
}

func TestSessionStore_TamperedToken(t *testing.T) {
	st, _ := newTestSessionStore(t)

	rec := httptest.NewRecorder()
	if _, err := st.Issue(rec); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	cookie := rec.Result().Cookies()[0]
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie.Value + "x"})

	if _, ok := st.Get(req); ok {
		t.Error("expected a tampered token to be rejected")
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	st, clk := newTestSessionStore(t)

	rec := httptest.NewRecorder()
	if _, err := st.Issue(rec); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clk.Advance(30 * time.Minute)
	if _, ok := st.Get(requestWithCookies(rec)); !ok {
		t.Fatal("expected session to survive inside the TTL")
	}

	clk.Advance(2 * time.Hour)
	if _, ok := st.Get(requestWithCookies(rec)); ok {
		t.Error("expected session to expire past the TTL")
	}
	if st.Len() != 0 {
		t.Errorf("expected expired session removed, %d left", st.Len())
	}
}

func TestSessionStore_GetRefreshesIdleTimer(t *testing.T) {
	st, clk := newTestSessionStore(t)

	rec := httptest.NewRecorder()
	if _, err := st.Issue(rec); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Touch the session every 45 minutes; it must outlive the 1h TTL.
	for i := 0; i < 3; i++ {
		clk.Advance(45 * time.Minute)
		if _, ok := st.Get(requestWithCookies(rec)); !ok {
			t.Fatalf("expected session alive after touch %d", i+1)
		}
	}
}

func TestSessionStore_Drop(t *testing.T) {
	st, _ := newTestSessionStore(t)

	rec := httptest.NewRecorder()
	if _, err := st.Issue(rec); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	dropRec := httptest.NewRecorder()
	st.Drop(dropRec, requestWithCookies(rec))

	if _, ok := st.Get(requestWithCookies(rec)); ok {
		t.Error("expected session gone after Drop")
	}
	cookies := dropRec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("expected an expiring cookie, got %v", cookies)
	}
}

func TestSessionStore_Prune(t *testing.T) {
	st, clk := newTestSessionStore(t)

	for i := 0; i < 3; i++ {
		if _, err := st.Issue(httptest.NewRecorder()); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}
	if st.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", st.Len())
	}

	clk.Advance(2 * time.Hour)
	if pruned := st.Prune(); pruned != 3 {
		t.Errorf("expected 3 pruned sessions, got %d", pruned)
	}
	if st.Len() != 0 {
		t.Errorf("expected empty store, %d left", st.Len())
	}
}

func TestSessionStore_KeysAreIsolated(t *testing.T) {
	st, _ := newTestSessionStore(t)

	recA := httptest.NewRecorder()
	sessA, _ := st.Issue(recA)
	recB := httptest.NewRecorder()
	sessB, _ := st.Issue(recB)

	sessA.Client.SetAPIKey("secret-a")

	if !sessA.HasAPIKey() {
		t.Error("expected session A to hold a key")
	}
	if sessB.HasAPIKey() {
		t.Error("expected session B unaffected by session A's key")
	}
}
