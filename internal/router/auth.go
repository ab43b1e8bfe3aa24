package router

import (
	"context"
	"strings"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/httpcodec"
)

// bearerToken extracts the session token from the Authorization header.
// A bare token without the "Bearer " prefix is also accepted.
func bearerToken(req *httpcodec.Request) (string, bool) {
	v, ok := req.Header("authorization")
	if !ok || v == "" {
		return "", false
	}
	if rest, found := strings.CutPrefix(v, "Bearer "); found {
		return rest, true
	}
	return v, true
}

// authenticate resolves the caller's token to a user, or returns a 401.
func (rt *Router) authenticate(ctx context.Context, req *httpcodec.Request) (*domain.User, *apperr.Error) {
	token, ok := bearerToken(req)
	if !ok {
		return nil, apperr.Unauthorized()
	}
	user, err := rt.sessions.Validate(ctx, token)
	if err != nil {
		return nil, apperr.As(err)
	}
	return user, nil
}
