package registry

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/ocispec/manifest"
	"github.com/wharfd/wharfd/pkg/registry/content"
	"github.com/wharfd/wharfd/pkg/registry/index"
	"github.com/wharfd/wharfd/pkg/xlog"
)

// ManifestResult reports a stored manifest after a put.
type ManifestResult struct {
	ID      uuid.UUID
	Digest  digest.Digest
	Subject *digest.Digest
}

// ManifestContent is a stored manifest document opened for reading. The
// caller owns Body and must close it.
type ManifestContent struct {
	ID          uuid.UUID
	Digest      digest.Digest
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// PutManifest validates and stores a manifest under the reference, which is
// either a tag or a sha256 digest. All referenced blobs must already exist
// in the repository. Fat manifests are parsed but not persisted.
//
// Pushing a tag that already exists reuses the existing row without updating
// its digest, blob or content type; only the layer links and the stored
// document can grow. This mirrors the historical overwrite behavior.
func (r *Registry) PutManifest(ctx context.Context, repository, reference, contentType string, body []byte) (*ManifestResult, error) {
	if manifest.IsIndexType(contentType) {
		if _, err := manifest.ParseIndex(contentType, body); err != nil {
			return nil, err
		}
		return nil, errdefs.Newf(manifest.ErrUnsupportedType, "fat manifests are not persisted")
	}
	m, err := manifest.ParseImage(contentType, body)
	if err != nil {
		return nil, err
	}
	dgst := digest.FromBytes(body)
	mediaType := manifest.NormalizeContentType(contentType)
	top, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return nil, errdefs.Newf(manifest.ErrInvalidSchema, "malformed content type %q", contentType)
	}

	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	configBlob, err := tx.FindBlobByDigest(ctx, repository, m.Config.Digest.String())
	if err != nil {
		return nil, err
	}
	if configBlob == nil {
		return nil, errdefs.Newf(ErrInvalidDigest, "config blob %s not found in %s", m.Config.Digest, repository)
	}

	var row *index.Manifest
	if isDigestReference(reference) {
		row, err = tx.FindFirstManifestByDigest(ctx, repository, dgst.String())
		if err != nil {
			return nil, err
		}
		if row == nil {
			inserted, err := tx.InsertManifest(ctx, repository, nil, configBlob.ID, dgst.String(), top, sub)
			if err != nil {
				return nil, err
			}
			row = &inserted
		}
	} else {
		row, err = tx.FindManifestByTag(ctx, repository, reference)
		if err != nil {
			return nil, err
		}
		if row == nil {
			tag := reference
			inserted, err := tx.InsertManifest(ctx, repository, &tag, configBlob.ID, dgst.String(), top, sub)
			if err != nil {
				return nil, err
			}
			row = &inserted
		}
	}

	for _, layer := range m.Layers {
		blob, err := tx.FindBlobByDigest(ctx, repository, layer.Digest.String())
		if err != nil {
			return nil, err
		}
		if blob == nil {
			return nil, errdefs.Newf(ErrInvalidDigest, "layer blob %s not found in %s", layer.Digest, repository)
		}
		existing, err := tx.FindManifestLayer(ctx, row.ID, blob.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if _, err := tx.InsertManifestLayer(ctx, row.ID, blob.ID, layer.MediaType, layer.Size); err != nil {
				return nil, err
			}
		}
	}

	if err := r.store.PutManifest(row.ID, body); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	xlog.C(ctx).Infof("stored manifest %s (%s) in %s", row.ID, dgst, repository)

	result := &ManifestResult{ID: row.ID, Digest: dgst}
	if m.Subject != nil {
		subject := m.Subject.Digest
		result.Subject = &subject
	}
	return result, nil
}

// GetManifest opens the manifest addressed by tag or digest for reading.
func (r *Registry) GetManifest(ctx context.Context, repository, reference string) (*ManifestContent, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var row *index.Manifest
	if isDigestReference(reference) {
		row, err = tx.FindFirstManifestByDigest(ctx, repository, reference)
	} else {
		row, err = tx.FindManifestByTag(ctx, repository, reference)
	}
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errdefs.Newf(ErrManifestNotFound, "manifest %q in %s", reference, repository)
	}
	d, err := digest.Parse(row.Digest)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidState, "manifest %s holds malformed digest %q", row.ID, row.Digest)
	}
	body, size, err := r.store.OpenManifest(row.ID)
	if err != nil {
		if errors.Is(err, content.ErrContentMissing) {
			return nil, errdefs.Newf(ErrManifestFileNotFound, "manifest %s has a row but no file", row.ID)
		}
		return nil, err
	}
	return &ManifestContent{
		ID:          row.ID,
		Digest:      d,
		ContentType: row.ContentType(),
		Size:        size,
		Body:        body,
	}, nil
}

// DeleteManifest removes manifests addressed by digest, including their
// layer links and stored documents. A tag reference only clears the tag and
// keeps the manifest retrievable by digest.
func (r *Registry) DeleteManifest(ctx context.Context, repository, reference string) error {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if !isDigestReference(reference) {
		updated, err := tx.NullifyTag(ctx, repository, reference)
		if err != nil {
			return err
		}
		if !updated {
			return errdefs.Newf(ErrFailedToDeleteTag, "tag %q not found in %s", reference, repository)
		}
		xlog.C(ctx).Infof("untagged %q in %s", reference, repository)
		return tx.Commit()
	}

	rows, err := tx.FindManifestsByDigest(ctx, repository, reference)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errdefs.Newf(ErrManifestNotFound, "manifest %q in %s", reference, repository)
	}
	for _, row := range rows {
		if err := tx.DeleteManifestLayers(ctx, row.ID); err != nil {
			return err
		}
		if err := tx.DeleteManifest(ctx, row.ID); err != nil {
			return err
		}
		if err := r.store.DeleteManifestFile(row.ID); err != nil {
			if errors.Is(err, content.ErrContentMissing) {
				return errdefs.Newf(ErrManifestFileNotFound, "manifest %s has a row but no file", row.ID)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	xlog.C(ctx).Infof("deleted %d manifests with digest %s from %s", len(rows), reference, repository)
	return nil
}
