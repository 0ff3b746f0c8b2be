package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

const manifestColumns = `id, repository, tag, blob_id, digest, content_type_top, content_type_sub, created_at`

// InsertManifest records a manifest. Tag is nil for pushes by digest.
func (t *Tx) InsertManifest(ctx context.Context, repository string, tag *string, blobID uuid.UUID, dgst, contentTypeTop, contentTypeSub string) (Manifest, error) {
	m := Manifest{
		ID:             uuid.New(),
		Repository:     repository,
		Tag:            tag,
		BlobID:         blobID,
		Digest:         dgst,
		ContentTypeTop: contentTypeTop,
		ContentTypeSub: contentTypeSub,
		CreatedAt:      t.idx.clock.Now().UTC(),
	}
	var tagValue any
	if tag != nil {
		tagValue = *tag
	}
	_, err := t.exec(ctx, `
INSERT INTO manifest(id, repository, tag, blob_id, digest, content_type_top, content_type_sub, created_at)
VALUES              (?,  ?,          ?,   ?,       ?,      ?,                ?,                ?)`,
		m.ID, m.Repository, tagValue, m.BlobID, m.Digest, m.ContentTypeTop, m.ContentTypeSub, m.CreatedAt)
	if err != nil {
		return Manifest{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return m, nil
}

// FindManifestByTag returns the repository's manifest with the tag, or nil
// when absent.
func (t *Tx) FindManifestByTag(ctx context.Context, repository, tag string) (*Manifest, error) {
	row := t.queryRow(ctx, `
SELECT `+manifestColumns+`
FROM manifest
WHERE repository = ? AND tag = ?`, repository, tag)
	return scanManifest(row)
}

// FindManifestsByDigest returns every manifest row in the repository with
// the digest. Several rows may exist when the same image was pushed under
// multiple tags.
func (t *Tx) FindManifestsByDigest(ctx context.Context, repository, dgst string) ([]Manifest, error) {
	rows, err := t.query(ctx, `
SELECT `+manifestColumns+`
FROM manifest
WHERE repository = ? AND digest = ?`, repository, dgst)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return scanManifests(rows)
}

// FindFirstManifestByDigest returns one manifest row in the repository with
// the digest, or nil when absent.
func (t *Tx) FindFirstManifestByDigest(ctx context.Context, repository, dgst string) (*Manifest, error) {
	row := t.queryRow(ctx, `
SELECT `+manifestColumns+`
FROM manifest
WHERE repository = ? AND digest = ?
ORDER BY created_at ASC
LIMIT 1`, repository, dgst)
	return scanManifest(row)
}

// ListManifests returns the repository's manifests ordered by tag ascending.
// When last is non-empty only manifests with a tag strictly greater are
// returned; when n is positive the result is capped at n rows.
func (t *Tx) ListManifests(ctx context.Context, repository string, n int, last string) ([]Manifest, error) {
	query := `
SELECT ` + manifestColumns + `
FROM manifest
WHERE repository = ?`
	args := []any{repository}
	if last != "" {
		query += ` AND tag > ?`
		args = append(args, last)
	}
	query += ` ORDER BY tag ASC`
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return scanManifests(rows)
}

// FindManifestsByBlob returns the repository's manifests that reference the
// blob, either as their config blob or through a layer row. Used as the
// blob-delete guard.
func (t *Tx) FindManifestsByBlob(ctx context.Context, repository string, blobID uuid.UUID) ([]Manifest, error) {
	rows, err := t.query(ctx, `
SELECT `+manifestColumns+`
FROM manifest
WHERE repository = ?
  AND (blob_id = ? OR EXISTS (
      SELECT 1 FROM manifest_layer
      WHERE manifest_layer.manifest_id = manifest.id
        AND manifest_layer.blob_id = ?))`, repository, blobID, blobID)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return scanManifests(rows)
}

// DeleteManifest removes the manifest row.
func (t *Tx) DeleteManifest(ctx context.Context, id uuid.UUID) error {
	_, err := t.exec(ctx, `
DELETE FROM manifest
WHERE id = ?`, id)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// NullifyTag clears the tag of the matching manifest, leaving the row
// retrievable by digest. It reports whether a row was updated.
func (t *Tx) NullifyTag(ctx context.Context, repository, tag string) (bool, error) {
	res, err := t.exec(ctx, `
UPDATE manifest
SET tag = NULL
WHERE repository = ? AND tag = ?`, repository, tag)
	if err != nil {
		return false, errdefs.NewE(errdefs.ErrSystem, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return n > 0, nil
}

func scanManifest(row *sql.Row) (*Manifest, error) {
	var (
		m   Manifest
		tag sql.NullString
	)
	err := row.Scan(&m.ID, &m.Repository, &tag, &m.BlobID, &m.Digest, &m.ContentTypeTop, &m.ContentTypeSub, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	if tag.Valid {
		m.Tag = &tag.String
	}
	return &m, nil
}

func scanManifests(rows *sql.Rows) ([]Manifest, error) {
	defer rows.Close()

	var out []Manifest
	for rows.Next() {
		var (
			m   Manifest
			tag sql.NullString
		)
		err := rows.Scan(&m.ID, &m.Repository, &tag, &m.BlobID, &m.Digest, &m.ContentTypeTop, &m.ContentTypeSub, &m.CreatedAt)
		if err != nil {
			return nil, errdefs.NewE(errdefs.ErrSystem, err)
		}
		if tag.Valid {
			m.Tag = &tag.String
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return out, nil
}
