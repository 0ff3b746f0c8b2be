package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// InsertManifestLayer links a layer blob to a manifest.
func (t *Tx) InsertManifestLayer(ctx context.Context, manifestID, blobID uuid.UUID, mediaType string, size int64) (ManifestLayer, error) {
	l := ManifestLayer{
		ManifestID: manifestID,
		BlobID:     blobID,
		MediaType:  mediaType,
		Size:       size,
		CreatedAt:  t.idx.clock.Now().UTC(),
	}
	_, err := t.exec(ctx, `
INSERT INTO manifest_layer(manifest_id, blob_id, media_type, size, created_at)
VALUES                    (?,           ?,       ?,          ?,    ?)`,
		l.ManifestID, l.BlobID, l.MediaType, l.Size, l.CreatedAt)
	if err != nil {
		return ManifestLayer{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return l, nil
}

// FindManifestLayer returns the layer row for (manifest, blob), or nil when
// absent.
func (t *Tx) FindManifestLayer(ctx context.Context, manifestID, blobID uuid.UUID) (*ManifestLayer, error) {
	row := t.queryRow(ctx, `
SELECT manifest_id, blob_id, media_type, size, created_at
FROM manifest_layer
WHERE manifest_id = ? AND blob_id = ?`, manifestID, blobID)

	var l ManifestLayer
	err := row.Scan(&l.ManifestID, &l.BlobID, &l.MediaType, &l.Size, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &l, nil
}

// ListManifestLayers returns the manifest's layer rows.
func (t *Tx) ListManifestLayers(ctx context.Context, manifestID uuid.UUID) ([]ManifestLayer, error) {
	rows, err := t.query(ctx, `
SELECT manifest_id, blob_id, media_type, size, created_at
FROM manifest_layer
WHERE manifest_id = ?`, manifestID)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer rows.Close()

	var out []ManifestLayer
	for rows.Next() {
		var l ManifestLayer
		if err := rows.Scan(&l.ManifestID, &l.BlobID, &l.MediaType, &l.Size, &l.CreatedAt); err != nil {
			return nil, errdefs.NewE(errdefs.ErrSystem, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return out, nil
}

// DeleteManifestLayers removes all layer rows of the manifest.
func (t *Tx) DeleteManifestLayers(ctx context.Context, manifestID uuid.UUID) error {
	_, err := t.exec(ctx, `
DELETE FROM manifest_layer
WHERE manifest_id = ?`, manifestID)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}
