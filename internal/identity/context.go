package identity

import "context"

type ctxKey string

const (
	profileContextKey ctxKey = "tasktrak.identity.profile"
	sessionContextKey ctxKey = "tasktrak.identity.session"
)

// WithProfile returns a context carrying the given profile. The
// RequireAPI middleware uses it; handler tests can too.
func WithProfile(ctx context.Context, p Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, p)
}

func withSessionContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func ProfileFromContext(ctx context.Context) (Profile, bool) {
	v := ctx.Value(profileContextKey)
	p, ok := v.(Profile)
	return p, ok
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionContextKey)
	s, ok := v.(Session)
	return s, ok
}
