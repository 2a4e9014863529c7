package cloud

import "sync"

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token() string {
	return string(t)
}

// RotatingToken holds a token that can be replaced while requests are in
// flight, e.g. after the host application refreshes its session.
type RotatingToken struct {
	mu    sync.RWMutex
	token string
}

func NewRotatingToken(token string) *RotatingToken {
	return &RotatingToken{token: token}
}

func (t *RotatingToken) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *RotatingToken) Set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}
