package examauth

import (
	"context"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the users table when missing. The wider application
// owns its own migrations; the auth core only needs its identity table.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
