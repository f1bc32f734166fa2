// Package session carries who is making a request through a context.
package session

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Role is what the caller may see.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole maps a header value onto a Role; anything unrecognized is a
// student.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleTeacher)) {
		return RoleTeacher
	}
	return RoleStudent
}

// Context identifies one request: a fresh ID, the student it acts for and
// the caller's role.
type Context struct {
	ID      uuid.UUID
	Student string
	Role    Role
}

// New builds a Context with a random ID. The student name is kept as given.
func New(student string, role Role) *Context {
	return &Context{ID: uuid.New(), Student: student, Role: role}
}

// IsTeacher reports whether the caller may read other students' reports.
func (c *Context) IsTeacher() bool {
	return c != nil && c.Role == RoleTeacher
}

type contextKey struct{}

func With(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// From returns the session attached to ctx, or nil.
func From(ctx context.Context) *Context {
	if sc, ok := ctx.Value(contextKey{}).(*Context); ok {
		return sc
	}
	return nil
}
