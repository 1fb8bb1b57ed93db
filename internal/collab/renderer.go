package collab

import (
	"context"
	"time"
)

// #region renderer

// Renderer wraps the reply generation service, which phrases a committed
// outcome as a conversational reply. It never decides anything; when it is
// unavailable the caller falls back to a templated reply.
type Renderer struct {
	c client
}

// NewRenderer creates a renderer client with the given call budget.
func NewRenderer(baseURL string, budget time.Duration) *Renderer {
	return &Renderer{c: newClient("renderer", baseURL, budget)}
}

// Render phrases one outcome. event names what happened; payload carries the
// already-committed facts the reply may mention.
func (r *Renderer) Render(ctx context.Context, event string, payload any) (string, error) {
	req := struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{Event: event, Payload: payload}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := r.c.postJSON(ctx, "/render", req, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// #endregion renderer

// #region fallback

// WithFallback runs a collaborator call and substitutes the deterministic
// fallback when the call fails or times out. The second return reports
// whether the fallback was used.
func WithFallback[T any](ctx context.Context, call func(context.Context) (T, error), fallback func() T) (T, bool) {
	out, err := call(ctx)
	if err != nil {
		return fallback(), true
	}
	return out, false
}

// #endregion fallback
