package models

import (
	"context"
	"strings"

	"go-bizsuite/pkg/access"
	"go-bizsuite/pkg/utils"
)

// Subject is the authenticated caller a permission question is asked for
type Subject struct {
	UserID     string      `json:"user_id"`
	OrgID      string      `json:"org_id"`
	Role       access.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	SuperAdmin bool        `json:"super_admin,omitempty"`
}

// SubjectFromClaims normalizes token claims. Unknown roles are kept as-is and
// resolve to no permissions.
func SubjectFromClaims(claims *utils.UserClaims) Subject {
	if claims == nil {
		return Subject{}
	}
	return Subject{
		UserID:     claims.UserID,
		OrgID:      claims.OrgID,
		Role:       access.Role(strings.ToLower(strings.TrimSpace(claims.Role))),
		Department: claims.Department,
		SuperAdmin: claims.SuperAdmin,
	}
}

// SubjectFromContext reads the claims the auth middleware stored on the
// request context
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return Subject{}, false
	}
	return SubjectFromClaims(claims), true
}

// WithSubject stores claims and tenant on ctx the way the auth middleware does
func WithSubject(ctx context.Context, claims *utils.UserClaims) context.Context {
	ctx = context.WithValue(ctx, utils.UserClaimsKey, claims)
	if claims != nil && claims.OrgID != "" {
		ctx = context.WithValue(ctx, TenantIDKey, claims.OrgID)
	}
	return ctx
}
