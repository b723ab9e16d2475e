package auth

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithIdentity attaches both the subject and its role, as JWTMiddleware does.
func WithIdentity(ctx context.Context, sub, role string) context.Context {
	return rbac.WithRole(WithSubject(ctx, sub), role)
}
