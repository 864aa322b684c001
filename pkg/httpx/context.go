package httpx

import "context"

// Identity is the request-scoped resolved principal attached by the identity
// gate. It is either fully populated or absent; failure paths never leave a
// partial identity on the context.
type Identity struct {
	UserID   string
	Username string
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// ContextWithIdentity attaches a resolved identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the resolved identity for the request, if the
// gate established one.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}
