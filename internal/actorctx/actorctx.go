// Package actorctx carries the verified caller identity on a context.Context
// so code below the HTTP layer can read it without depending on gin.
package actorctx

import "context"

// Identity is derived from a verified token only; it is never re-read from
// the user store.
type Identity struct {
	SubjectID string `json:"subjectId"`
	IsAdmin   bool   `json:"isAdmin"`
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(Identity)

	return v, ok && v.SubjectID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.SubjectID, ok
}
