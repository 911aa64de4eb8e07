package portal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Identity is an established session: who the user is plus the tokens
// that prove it.  Token is the short-lived access bearer; Refresh renews
// it.  Expires follows the refresh token's lifetime, which the server
// caps at thirty days, and bounds the whole session.
type Identity struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	TokenExpires time.Time `json:"token_expires"`
	Refresh      string    `json:"refresh"`
	Expires      time.Time `json:"expires"`
}

// tokenSkew renews the access token slightly before its stated expiry so
// a request issued right at the boundary does not race the server clock.
const tokenSkew = 30 * time.Second

// Gate owns the current identity.  All transitions go through it: login
// and register establish, logout tears down, access tokens renew through
// Fresh, and sessions past their expiry evaporate the moment they are
// observed.  Failed transitions never mutate the current state.
type Gate struct {
	mu      sync.Mutex
	api     *Client
	store   CredentialStore
	current *Identity
	now     func() time.Time
}

// NewGate restores any persisted session from the store.  A session past
// its expiry is discarded and cleared from disk rather than handed to
// callers.
func NewGate(api *Client, store CredentialStore) *Gate {
	g := &Gate{api: api, store: store, now: time.Now}
	if id, ok, err := store.Load(); err == nil && ok {
		if g.now().Before(id.Expires) {
			g.current = &id
		} else {
			_ = store.Clear()
		}
	}
	return g
}

// Current returns the active identity, if any.  A session whose expiry
// has passed is torn down here, so an expired session reads as anonymous
// everywhere without waiting for a failed request to reveal it.
func (g *Gate) Current() (Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return Identity{}, false
	}
	if !g.now().Before(g.current.Expires) {
		g.current = nil
		_ = g.store.Clear()
		return Identity{}, false
	}
	return *g.current, true
}

// Fresh returns the current identity with a usable access token, renewing
// it through the refresh endpoint when it is expired or about to expire.
// A rejected refresh ends the session; a transport failure leaves it
// intact so the caller can retry.
func (g *Gate) Fresh(ctx context.Context) (Identity, error) {
	id, ok := g.Current()
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	if g.now().Add(tokenSkew).Before(id.TokenExpires) {
		return id, nil
	}
	renewed, err := g.api.Refresh(ctx, id.Refresh)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			g.drop()
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, err
	}
	g.adopt(renewed)
	return renewed, nil
}

// Login establishes a session.  On failure the previous state, whatever
// it was, is left untouched.
func (g *Gate) Login(ctx context.Context, email, password string) (Identity, error) {
	id, err := g.api.Login(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	g.adopt(id)
	return id, nil
}

// Register creates an account and establishes the session in one step,
// so a fresh signup does not have to log in again.
func (g *Gate) Register(ctx context.Context, name, email, phone, password string) (Identity, error) {
	id, err := g.api.Register(ctx, name, email, phone, password)
	if err != nil {
		return Identity{}, err
	}
	g.adopt(id)
	return id, nil
}

// Logout tears down the session.  The remote revocation is best-effort;
// local state and the persisted record are cleared regardless, and
// calling Logout with no session is a no-op.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	cur := g.current
	g.current = nil
	g.mu.Unlock()
	_ = g.store.Clear()
	if cur != nil {
		_ = g.api.Logout(ctx, cur.Token)
	}
	return nil
}

// RequireRole returns the identity when it exists and carries the wanted
// role.  No session yields ErrUnauthenticated; the wrong role yields
// ErrForbidden.
func (g *Gate) RequireRole(role string) (Identity, error) {
	id, ok := g.Current()
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	if id.Role != role {
		return Identity{}, ErrForbidden
	}
	return id, nil
}

func (g *Gate) adopt(id Identity) {
	g.mu.Lock()
	g.current = &id
	g.mu.Unlock()
	_ = g.store.Save(id)
}

func (g *Gate) drop() {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
	_ = g.store.Clear()
}
