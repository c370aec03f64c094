package domain

import "context"

type ctxKey int

const (
	identityKey ctxKey = iota
	requestMetaKey
)

// RequestMeta carries transport-level detail captured for audit entries.
type RequestMeta struct {
	IP            string
	UserAgent     string
	CorrelationID string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}
