// Package captcha owns the image-challenge step that guards login.
package captcha

import (
	"context"
	"strings"
	"sync"
)

// Fetcher retrieves a fresh challenge image from the remote service
type Fetcher interface {
	FetchCaptcha(ctx context.Context) ([]byte, error)
}

// Gate holds the current challenge image and the operator-supplied answer.
// The answer is single-use: a refresh or a Take invalidates it, so a failed
// login can never silently reuse a stale answer.
type Gate struct {
	fetcher Fetcher

	mu     sync.Mutex
	image  []byte
	answer string
}

// NewGate creates a Gate backed by fetcher
func NewGate(fetcher Fetcher) *Gate {
	return &Gate{fetcher: fetcher}
}

// Refresh fetches a new challenge, invalidating any entered answer
func (g *Gate) Refresh(ctx context.Context) error {
	img, err := g.fetcher.FetchCaptcha(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.image = img
	g.answer = ""
	g.mu.Unlock()
	return nil
}

// Image returns the current challenge image, nil before the first Refresh
func (g *Gate) Image() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.image
}

// SetAnswer stores the operator's answer for the current challenge
func (g *Gate) SetAnswer(answer string) {
	g.mu.Lock()
	g.answer = strings.TrimSpace(answer)
	g.mu.Unlock()
}

// TakeAnswer returns the entered answer and clears it
func (g *Gate) TakeAnswer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	answer := g.answer
	g.answer = ""
	return answer
}

// HasAnswer reports whether a non-empty answer is waiting
func (g *Gate) HasAnswer() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.answer != ""
}
