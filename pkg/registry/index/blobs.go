package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// InsertBlob records a blob for the repository under the prefixed digest.
func (t *Tx) InsertBlob(ctx context.Context, repository, dgst string) (Blob, error) {
	b := Blob{
		ID:         uuid.New(),
		Repository: repository,
		Digest:     dgst,
		CreatedAt:  t.idx.clock.Now().UTC(),
	}
	_, err := t.exec(ctx, `
INSERT INTO blob(id, repository, digest, created_at)
VALUES          (?,  ?,          ?,      ?)`, b.ID, b.Repository, b.Digest, b.CreatedAt)
	if err != nil {
		return Blob{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return b, nil
}

// FindBlobByDigest returns the repository's blob with the digest, or nil
// when absent.
func (t *Tx) FindBlobByDigest(ctx context.Context, repository, dgst string) (*Blob, error) {
	row := t.queryRow(ctx, `
SELECT id, repository, digest, created_at
FROM blob
WHERE digest = ? AND repository = ?`, dgst, repository)
	return scanBlob(row)
}

// FindBlobByID returns the repository's blob with the id, or nil when
// absent.
func (t *Tx) FindBlobByID(ctx context.Context, repository string, id uuid.UUID) (*Blob, error) {
	row := t.queryRow(ctx, `
SELECT id, repository, digest, created_at
FROM blob
WHERE id = ? AND repository = ?`, id, repository)
	return scanBlob(row)
}

// ListBlobsByDigest returns every blob row sharing the digest across all
// repositories. The on-disk file may only be removed when this comes back
// empty.
func (t *Tx) ListBlobsByDigest(ctx context.Context, dgst string) ([]Blob, error) {
	rows, err := t.query(ctx, `
SELECT id, repository, digest, created_at
FROM blob
WHERE digest = ?`, dgst)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer rows.Close()

	var out []Blob
	for rows.Next() {
		var b Blob
		if err := rows.Scan(&b.ID, &b.Repository, &b.Digest, &b.CreatedAt); err != nil {
			return nil, errdefs.NewE(errdefs.ErrSystem, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return out, nil
}

// DeleteBlob removes the blob row.
func (t *Tx) DeleteBlob(ctx context.Context, id uuid.UUID) error {
	_, err := t.exec(ctx, `
DELETE FROM blob
WHERE id = ?`, id)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

func scanBlob(row *sql.Row) (*Blob, error) {
	var b Blob
	if err := row.Scan(&b.ID, &b.Repository, &b.Digest, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &b, nil
}
