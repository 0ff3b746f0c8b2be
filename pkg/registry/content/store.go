// Package content implements the filesystem-backed, content-addressed store
// for blob bytes, in-flight upload chunks, and raw manifest documents.
//
// Layout under the configured root:
//
//	blobs/sha256/<hex>.tar.gz          finalized blobs
//	uploads/blobs/sha256/<hex>.tar.gz  per-chunk intermediate files
//	manifests/<manifest-id>.json       raw manifest bytes
//
// Files are keyed by content digest, so writes for the same key always carry
// identical bytes and last-writer-wins is safe.
package content

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/xlog"
)

// ErrContentMissing signals that the requested file does not exist.
var ErrContentMissing = errdefs.Newf(errdefs.ErrNotFound, "content missing")

const (
	blobExtension     = ".tar.gz"
	manifestExtension = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a content-addressed file store rooted at a single directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a Store backed by the OS filesystem.
func NewStore(root string) *Store {
	return NewStoreWithFs(afero.NewOsFs(), root)
}

// NewStoreWithFs returns a Store backed by the given filesystem. Tests use
// an in-memory fs.
func NewStoreWithFs(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// BlobPath returns the path of the finalized blob file for the digest.
func (s *Store) BlobPath(dgst digest.Digest) string {
	return filepath.Join(s.root, "blobs", dgst.Algorithm().String(), dgst.Encoded()+blobExtension)
}

func (s *Store) chunkPath(dgst digest.Digest) string {
	return filepath.Join(s.root, "uploads", "blobs", dgst.Algorithm().String(), dgst.Encoded()+blobExtension)
}

func (s *Store) manifestPath(id uuid.UUID) string {
	return filepath.Join(s.root, "manifests", id.String()+manifestExtension)
}

// PutChunk stores one upload chunk under its own content digest. Retries
// with identical bytes overwrite the same file.
func (s *Store) PutChunk(dgst digest.Digest, data []byte) error {
	return s.write(s.chunkPath(dgst), data)
}

// ReadChunk returns the bytes of a previously stored chunk.
func (s *Store) ReadChunk(dgst digest.Digest) ([]byte, error) {
	return s.read(s.chunkPath(dgst))
}

// PromoteBlob writes the finalized blob file. It is a no-op when the
// destination already exists: the digest guarantees identical content.
func (s *Store) PromoteBlob(dgst digest.Digest, data []byte) error {
	path := s.BlobPath(dgst)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if exists {
		xlog.Default().Debugf("blob %s already promoted, skipping write", dgst)
		return nil
	}
	return s.write(path, data)
}

// OpenBlob opens the finalized blob file for reading and reports its size.
func (s *Store) OpenBlob(dgst digest.Digest) (io.ReadCloser, int64, error) {
	return s.open(s.BlobPath(dgst))
}

// DeleteBlobFile removes the finalized blob file. The index must have
// confirmed that no blob row references the digest.
func (s *Store) DeleteBlobFile(dgst digest.Digest) error {
	return s.remove(s.BlobPath(dgst))
}

// PutManifest stores the raw manifest bytes under the manifest id. Writing
// an id that already exists is a no-op.
func (s *Store) PutManifest(id uuid.UUID, data []byte) error {
	path := s.manifestPath(id)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if exists {
		return nil
	}
	return s.write(path, data)
}

// OpenManifest opens the raw manifest bytes for reading and reports the size.
func (s *Store) OpenManifest(id uuid.UUID) (io.ReadCloser, int64, error) {
	return s.open(s.manifestPath(id))
}

// DeleteManifestFile removes the stored manifest document.
func (s *Store) DeleteManifestFile(id uuid.UUID) error {
	return s.remove(s.manifestPath(id))
}

func (s *Store) write(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

func (s *Store) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Newf(ErrContentMissing, "read %s", path)
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return data, nil
}

func (s *Store) open(path string) (io.ReadCloser, int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errdefs.Newf(ErrContentMissing, "open %s", path)
		}
		return nil, 0, errdefs.NewE(errdefs.ErrSystem, err)
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return f, info.Size(), nil
}

func (s *Store) remove(path string) error {
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if !exists {
		return errdefs.Newf(ErrContentMissing, "remove %s", path)
	}
	if err := s.fs.Remove(path); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}
