package session

import (
	"context"
	"net/http"
)

type contextKey struct{}

// State is the session attached to a request. ID is empty until the first Commit.
type State struct {
	ID   string
	Data *Data
}

// Middleware loads the visitor's session into the request context. It never rejects a request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, id := m.Load(r.Context(), r)
		ctx := context.WithValue(r.Context(), contextKey{}, &State{ID: id, Data: data})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Commit saves the state from the request context, issuing a cookie for new visitors.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, state *State) error {
	id, err := m.Save(ctx, w, state.ID, state.Data)
	if err != nil {
		return err
	}
	state.ID = id
	return nil
}

// FromContext returns the request's session state, or nil outside the middleware.
func FromContext(ctx context.Context) *State {
	if ctx == nil {
		return nil
	}
	state, _ := ctx.Value(contextKey{}).(*State)
	return state
}
