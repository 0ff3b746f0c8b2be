package registry

import (
	"context"
	"errors"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/registry/content"
	"github.com/wharfd/wharfd/pkg/xlog"
)

// BlobContent is an open finalized blob ready for streaming. The caller owns
// Body and must close it.
type BlobContent struct {
	Digest digest.Digest
	Size   int64
	Body   io.ReadCloser
}

// GetBlob opens the repository's blob with the digest for reading.
func (r *Registry) GetBlob(ctx context.Context, repository, rawDigest string) (*BlobContent, error) {
	d, err := parseDigest(rawDigest)
	if err != nil {
		return nil, err
	}

	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row, err := tx.FindBlobByDigest(ctx, repository, d.String())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errdefs.Newf(ErrBlobNotFound, "blob %s in %s", d, repository)
	}
	body, size, err := r.store.OpenBlob(d)
	if err != nil {
		if errors.Is(err, content.ErrContentMissing) {
			return nil, errdefs.Newf(ErrBlobFileNotFound, "blob %s has a row but no file", d)
		}
		return nil, err
	}
	return &BlobContent{Digest: d, Size: size, Body: body}, nil
}

// DeleteBlob removes the repository's reference to the blob. The on-disk
// file goes away only when the last reference across all repositories is
// removed, and only when no manifest in the repository still points at the
// blob.
func (r *Registry) DeleteBlob(ctx context.Context, repository, rawDigest string) error {
	d, err := parseDigest(rawDigest)
	if err != nil {
		return err
	}

	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row, err := tx.FindBlobByDigest(ctx, repository, d.String())
	if err != nil {
		return err
	}
	if row == nil {
		return errdefs.Newf(ErrBlobNotFound, "blob %s in %s", d, repository)
	}
	refs, err := tx.FindManifestsByBlob(ctx, repository, row.ID)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return errdefs.Newf(ErrBlobManifestStillExists, "%d manifests still reference blob %s", len(refs), d)
	}
	if err := tx.DeleteBlob(ctx, row.ID); err != nil {
		return err
	}
	remaining, err := tx.ListBlobsByDigest(ctx, d.String())
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := r.store.DeleteBlobFile(d); err != nil {
			if errors.Is(err, content.ErrContentMissing) {
				return errdefs.Newf(ErrBlobFileNotFound, "blob %s has a row but no file", d)
			}
			return err
		}
		xlog.C(ctx).Infof("deleted last reference to blob %s, removed file", d)
	}
	return tx.Commit()
}
