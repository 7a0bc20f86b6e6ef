package examauth

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface used across the package. The server
// binary wires a structured implementation; the default writes to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Users is the identity store consumed by the auth core. Everything else
// about the user data model (exams, scores, tags) lives outside this module.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id int64) error
	ActiveGuestCount(ctx context.Context) (int, error)
	DeleteExpiredGuests(ctx context.Context) (int, error)
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) { d.print("DBG", format, args...) }
func (d defLogger) Info(format string, args ...any)  { d.print("INF", format, args...) }
func (d defLogger) Warn(format string, args ...any)  { d.print("WRN", format, args...) }
func (d defLogger) Error(format string, args ...any) { d.print("ERR", format, args...) }

func (defLogger) print(level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	fmt.Printf("[%s] AUTH %s\n", level, msg)
}
