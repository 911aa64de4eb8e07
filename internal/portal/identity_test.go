package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type authCounters struct {
	logouts   atomic.Int32
	refreshes atomic.Int32
}

func authServer(t *testing.T) (*httptest.Server, *authCounters) {
	t.Helper()
	var counters authCounters
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
			return
		}
		json.NewEncoder(w).Encode(authWire{
			User:    wireUser{ID: 1, Name: "Budi Santoso", Email: req["email"], Phone: "081234567890", Role: "CLIENT"},
			Access:  wireToken{Token: "tok", Expires: time.Now().Add(15 * time.Minute)},
			Refresh: wireToken{Token: "ref", Expires: time.Now().Add(30 * 24 * time.Hour)},
		})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "email already registered"})
			return
		}
		json.NewEncoder(w).Encode(authWire{
			User:    wireUser{ID: 2, Name: req["name"], Email: req["email"], Role: "CLIENT"},
			Access:  wireToken{Token: "tok2", Expires: time.Now().Add(15 * time.Minute)},
			Refresh: wireToken{Token: "ref2", Expires: time.Now().Add(30 * 24 * time.Hour)},
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		counters.refreshes.Add(1)
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["refresh_token"] != "ref" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid refresh"})
			return
		}
		json.NewEncoder(w).Encode(authWire{
			User:    wireUser{ID: 1, Name: "Budi Santoso", Email: "budi@example.com", Phone: "081234567890", Role: "CLIENT"},
			Access:  wireToken{Token: "tok2", Expires: time.Now().Add(15 * time.Minute)},
			Refresh: wireToken{Token: "ref2", Expires: time.Now().Add(30 * 24 * time.Hour)},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		counters.logouts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux), &counters
}

func TestGateLogin(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	gate := NewGate(NewClient(srv.URL), &MemoryStore{})
	if _, ok := gate.Current(); ok {
		t.Fatal("fresh gate reports an identity")
	}

	id, err := gate.Login(context.Background(), "budi@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id.Name != "Budi Santoso" || id.Role != "CLIENT" || id.Token != "tok" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if cur, ok := gate.Current(); !ok || cur.ID != id.ID {
		t.Fatalf("Current() = %+v, %v", cur, ok)
	}
}

// A rejected login leaves whatever session existed before untouched.
func TestGateLoginFailureMutatesNothing(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	gate := NewGate(NewClient(srv.URL), &MemoryStore{})
	if _, err := gate.Login(context.Background(), "x@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
	if _, ok := gate.Current(); ok {
		t.Fatal("failed login established an identity")
	}

	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	before, _ := gate.Current()

	_, err := gate.Login(context.Background(), "budi@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
	after, ok := gate.Current()
	if !ok || after != before {
		t.Fatalf("Current() changed after failed login: %+v -> %+v", before, after)
	}
}

func TestGateRegister(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	gate := NewGate(NewClient(srv.URL), &MemoryStore{})
	id, err := gate.Register(context.Background(), "Sari Dewi", "sari@example.com", "081298765432", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if id.Name != "Sari Dewi" {
		t.Fatalf("identity name = %q", id.Name)
	}
	if _, ok := gate.Current(); !ok {
		t.Fatal("Register() did not establish a session")
	}

	var regErr *RegistrationError
	_, err = gate.Register(context.Background(), "X", "taken@example.com", "0812", "secret")
	if !errors.As(err, &regErr) {
		t.Fatalf("Register(duplicate) error = %v, want *RegistrationError", err)
	}
	if regErr.Message != "email already registered" {
		t.Fatalf("message = %q", regErr.Message)
	}
}

func TestGatePersistsAcrossRestarts(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()
	api := NewClient(srv.URL)

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	gate := NewGate(api, NewFileStore(path))
	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file mode = %o, want 600", perm)
	}

	// A new gate over the same file picks the session back up.
	reborn := NewGate(api, NewFileStore(path))
	id, ok := reborn.Current()
	if !ok || id.Email != "budi@example.com" {
		t.Fatalf("restored identity = %+v, %v", id, ok)
	}
}

func TestGateDropsExpiredSessionOnLoad(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	store.Save(Identity{ID: 1, Name: "Budi", Token: "old", Expires: time.Now().Add(-time.Hour)})

	gate := NewGate(NewClient(srv.URL), store)
	if _, ok := gate.Current(); ok {
		t.Fatal("expired session survived the load")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expired session file still on disk: %v", err)
	}
}

func TestGateLogoutIdempotent(t *testing.T) {
	srv, counters := authServer(t)
	defer srv.Close()

	store := &MemoryStore{}
	gate := NewGate(NewClient(srv.URL), store)
	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if err := gate.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := gate.Current(); ok {
		t.Fatal("identity survived logout")
	}
	if _, found, _ := store.Load(); found {
		t.Fatal("store still holds the session")
	}

	// Second logout: nothing to do, nothing to fail.
	if err := gate.Logout(context.Background()); err != nil {
		t.Fatalf("repeat Logout() error = %v", err)
	}
	if n := counters.logouts.Load(); n != 1 {
		t.Fatalf("server saw %d logout calls, want 1", n)
	}
}

// Logout clears local state even when the server is unreachable.
func TestGateLogoutSurvivesDeadServer(t *testing.T) {
	srv, _ := authServer(t)
	gate := NewGate(NewClient(srv.URL), &MemoryStore{})
	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	if err := gate.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := gate.Current(); ok {
		t.Fatal("identity survived logout with dead server")
	}
}

func TestGateRequireRole(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	gate := NewGate(NewClient(srv.URL), &MemoryStore{})
	if _, err := gate.RequireRole("SALES"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous RequireRole() = %v, want ErrUnauthenticated", err)
	}

	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := gate.RequireRole("SALES"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("client RequireRole(SALES) = %v, want ErrForbidden", err)
	}
	if id, err := gate.RequireRole("CLIENT"); err != nil || id.Role != "CLIENT" {
		t.Fatalf("RequireRole(CLIENT) = %+v, %v", id, err)
	}
}

// A session whose expiry passes while the process runs reads as anonymous
// from then on, without waiting for a request to fail.
func TestGateSessionExpiryTearsDown(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	store := &MemoryStore{}
	gate := NewGate(NewClient(srv.URL), store)
	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	id, _ := gate.Current()

	gate.now = func() time.Time { return id.Expires.Add(time.Second) }
	if _, ok := gate.Current(); ok {
		t.Fatal("Current() still reports a session past its expiry")
	}
	if _, err := gate.RequireRole("CLIENT"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("RequireRole() past expiry = %v, want ErrUnauthenticated", err)
	}
	if _, found, _ := store.Load(); found {
		t.Fatal("store still holds the expired session")
	}
}

// An expired access token renews transparently through the refresh
// endpoint; callers of Fresh never see the gap.
func TestGateFreshRenewsAccessToken(t *testing.T) {
	srv, counters := authServer(t)
	defer srv.Close()

	store := &MemoryStore{}
	gate := NewGate(NewClient(srv.URL), store)
	if _, err := gate.Login(context.Background(), "budi@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	// Within the access window no renewal happens.
	id, err := gate.Fresh(context.Background())
	if err != nil || id.Token != "tok" {
		t.Fatalf("Fresh() inside window = %+v, %v", id, err)
	}
	if n := counters.refreshes.Load(); n != 0 {
		t.Fatalf("server saw %d refresh calls inside the window, want 0", n)
	}

	gate.now = func() time.Time { return time.Now().Add(20 * time.Minute) }
	id, err = gate.Fresh(context.Background())
	if err != nil {
		t.Fatalf("Fresh() error = %v", err)
	}
	if id.Token != "tok2" || id.Refresh != "ref2" {
		t.Fatalf("renewed identity = %+v, want rotated token pair", id)
	}
	if n := counters.refreshes.Load(); n != 1 {
		t.Fatalf("server saw %d refresh calls, want 1", n)
	}
	if saved, found, _ := store.Load(); !found || saved.Token != "tok2" {
		t.Fatalf("store holds %+v, want the renewed session", saved)
	}
}

// A refresh token the server no longer accepts ends the session.
func TestGateFreshRejectedRefreshEndsSession(t *testing.T) {
	srv, _ := authServer(t)
	defer srv.Close()

	store := &MemoryStore{}
	store.Save(Identity{
		ID:           1,
		Role:         "CLIENT",
		Token:        "stale",
		TokenExpires: time.Now().Add(-time.Minute),
		Refresh:      "revoked",
		Expires:      time.Now().Add(24 * time.Hour),
	})
	gate := NewGate(NewClient(srv.URL), store)

	if _, err := gate.Fresh(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Fresh() with revoked refresh = %v, want ErrUnauthenticated", err)
	}
	if _, ok := gate.Current(); ok {
		t.Fatal("session survived a rejected refresh")
	}
	if _, found, _ := store.Load(); found {
		t.Fatal("store still holds the dead session")
	}
}

// Transport trouble during renewal is not a logout: the session stays so
// the caller can retry once connectivity returns.
func TestGateFreshNetworkErrorKeepsSession(t *testing.T) {
	srv, _ := authServer(t)
	srv.Close()

	store := &MemoryStore{}
	store.Save(Identity{
		ID:           1,
		Role:         "CLIENT",
		Token:        "stale",
		TokenExpires: time.Now().Add(-time.Minute),
		Refresh:      "ref",
		Expires:      time.Now().Add(24 * time.Hour),
	})
	gate := NewGate(NewClient(srv.URL), store)

	_, err := gate.Fresh(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Fresh() with dead server = %v, want ErrNetwork", err)
	}
	if _, ok := gate.Current(); !ok {
		t.Fatal("transport failure tore the session down")
	}
}

func TestFileStoreCorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, found, err := NewFileStore(path).Load()
	if err != nil || found {
		t.Fatalf("Load() = found=%v err=%v, want absent", found, err)
	}
}
