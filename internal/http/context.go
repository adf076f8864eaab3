package http

import (
	"context"

	"github.com/example/shift-roster/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	employeeIDContextKey contextKey = "employee_id"
	usernameContextKey   contextKey = "username"
	shiftCodeContextKey  contextKey = "shift_code"
	snapshotIDContextKey contextKey = "snapshot_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithEmployeeID injects the employee identifier resolved from the request path.
func ContextWithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDContextKey, employeeID)
}

// EmployeeIDFromContext extracts an employee identifier previously associated with the context.
func EmployeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDContextKey).(string)
	return id, ok
}

// ContextWithUsername injects the account name resolved from the request path.
func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameContextKey, username)
}

// UsernameFromContext extracts an account name previously associated with the context.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameContextKey).(string)
	return username, ok
}

// ContextWithShiftCode injects the shift code resolved from the request path.
func ContextWithShiftCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, shiftCodeContextKey, code)
}

// ShiftCodeFromContext extracts a shift code previously associated with the context.
func ShiftCodeFromContext(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(shiftCodeContextKey).(string)
	return code, ok
}

// ContextWithSnapshotID injects the snapshot identifier resolved from the request path.
func ContextWithSnapshotID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, snapshotIDContextKey, id)
}

// SnapshotIDFromContext extracts a snapshot identifier previously associated with the context.
func SnapshotIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(snapshotIDContextKey).(string)
	return id, ok
}
