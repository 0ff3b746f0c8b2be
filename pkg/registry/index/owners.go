package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// FindOwnerByUsername returns the owner with the given username, or nil when
// absent.
func (t *Tx) FindOwnerByUsername(ctx context.Context, username string) (*Owner, error) {
	row := t.queryRow(ctx, `
SELECT id, username, created_at
FROM owner
WHERE username = ?`, username)

	var o Owner
	if err := row.Scan(&o.ID, &o.Username, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &o, nil
}

// InsertOwner creates an owner for the username.
func (t *Tx) InsertOwner(ctx context.Context, username string) (Owner, error) {
	o := Owner{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: t.idx.clock.Now().UTC(),
	}
	_, err := t.exec(ctx, `
INSERT INTO owner(id, username, created_at)
VALUES           (?,  ?,        ?)`, o.ID, o.Username, o.CreatedAt)
	if err != nil {
		return Owner{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return o, nil
}
