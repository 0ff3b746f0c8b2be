package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/samber/lo"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/registry/index"
	"github.com/wharfd/wharfd/pkg/xlog"
)

// Blob identifies a finalized blob.
type Blob struct {
	ID     uuid.UUID
	Digest digest.Digest
}

// CreateSession opens a new upload chain in the repository and returns its
// root node. The owner and repository rows are created lazily on first use.
func (r *Registry) CreateSession(ctx context.Context, username, repository string) (index.UploadSession, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return index.UploadSession{}, err
	}
	defer func() { _ = tx.Rollback() }()

	tx, err = r.ensureRepository(ctx, tx, username, repository)
	if err != nil {
		return index.UploadSession{}, err
	}
	s, err := tx.InsertSession(ctx, repository, nil, 0)
	if err != nil {
		return index.UploadSession{}, err
	}
	if err := tx.Commit(); err != nil {
		return index.UploadSession{}, err
	}
	xlog.C(ctx).Debugf("created upload session %s in %s for %s", s.ID, repository, username)
	return s, nil
}

// ensureRepository makes the repository row exist inside the transaction.
// A unique-constraint collision means another request created the owner or
// repository concurrently; the transaction is rolled back and the check is
// redone on a fresh one, where the winner's rows are visible.
func (r *Registry) ensureRepository(ctx context.Context, tx *index.Tx, username, namespace string) (*index.Tx, error) {
	err := createRepositoryIfAbsent(ctx, tx, username, namespace)
	if err == nil || !index.IsUniqueViolation(err) {
		return tx, err
	}
	xlog.C(ctx).Debugf("lost creation race for %s, retrying on a fresh transaction", namespace)
	_ = tx.Rollback()

	fresh, err := r.idx.Begin(ctx)
	if err != nil {
		return tx, err
	}
	if err := createRepositoryIfAbsent(ctx, fresh, username, namespace); err != nil {
		return fresh, err
	}
	return fresh, nil
}

func createRepositoryIfAbsent(ctx context.Context, tx *index.Tx, username, namespace string) error {
	repo, err := tx.FindRepositoryByNamespace(ctx, namespace)
	if err != nil {
		return err
	}
	if repo != nil {
		return nil
	}
	owner, err := tx.FindOwnerByUsername(ctx, username)
	if err != nil {
		return err
	}
	if owner == nil {
		o, err := tx.InsertOwner(ctx, username)
		if err != nil {
			return err
		}
		owner = &o
	}
	_, err = tx.InsertRepository(ctx, owner.ID, namespace)
	return err
}

// AppendChunk uploads one chunk to the open session node and returns the new
// open successor. Its starting byte index is the total number of bytes
// received so far, which the shell turns into the Range acknowledgement.
func (r *Registry) AppendChunk(ctx context.Context, repository string, sessionID uuid.UUID, data []byte, expectedStart, declaredLength *int64) (index.UploadSession, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return index.UploadSession{}, err
	}
	defer func() { _ = tx.Rollback() }()

	node, err := tx.FindSession(ctx, repository, sessionID)
	if err != nil {
		return index.UploadSession{}, err
	}
	if node == nil {
		return index.UploadSession{}, errdefs.Newf(ErrSessionNotFound, "session %s in %s", sessionID, repository)
	}
	succ, err := r.appendChunk(ctx, tx, node, data, expectedStart, declaredLength)
	if err != nil {
		return index.UploadSession{}, err
	}
	if err := tx.Commit(); err != nil {
		return index.UploadSession{}, err
	}
	return *succ, nil
}

func (r *Registry) appendChunk(ctx context.Context, tx *index.Tx, node *index.UploadSession, data []byte, expectedStart, declaredLength *int64) (*index.UploadSession, error) {
	if node.IsFinished {
		return nil, errdefs.Newf(ErrSessionNotFound, "session %s is finished", node.ID)
	}
	if node.Digest != nil {
		return nil, errdefs.Newf(ErrBlobPartAlreadyUploaded, "session %s already holds a chunk", node.ID)
	}
	if expectedStart != nil && *expectedStart != node.StartingByteIndex {
		return nil, errdefs.Newf(ErrInvalidStartIndex, "expected chunk start %d, got %d", node.StartingByteIndex, *expectedStart)
	}
	if declaredLength != nil && *declaredLength != int64(len(data)) {
		return nil, errdefs.Newf(ErrInvalidContentLength, "declared length %d, body is %d bytes", *declaredLength, len(data))
	}

	chunkDigest := digest.FromBytes(data)
	won, err := tx.SetSessionDigest(ctx, node.ID, chunkDigest.String())
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent append claimed the node first.
		return nil, errdefs.Newf(ErrBlobPartAlreadyUploaded, "session %s already holds a chunk", node.ID)
	}
	if err := r.store.PutChunk(chunkDigest, data); err != nil {
		return nil, err
	}
	succ, err := tx.InsertSession(ctx, node.Repository, &node.ID, node.StartingByteIndex+int64(len(data)))
	if err != nil {
		return nil, err
	}
	xlog.C(ctx).Debugf("appended %d-byte chunk %s to session %s", len(data), chunkDigest, node.ID)
	return &succ, nil
}

// GetSession resumes an upload by walking successor links from the given
// node to the terminal open node of its chain.
func (r *Registry) GetSession(ctx context.Context, repository string, sessionID uuid.UUID) (index.UploadSession, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return index.UploadSession{}, err
	}
	defer func() { _ = tx.Rollback() }()

	node, err := tx.FindSession(ctx, repository, sessionID)
	if err != nil {
		return index.UploadSession{}, err
	}
	if node == nil {
		return index.UploadSession{}, errdefs.Newf(ErrSessionNotFound, "session %s in %s", sessionID, repository)
	}
	for {
		succ, err := tx.FindSessionByPrevious(ctx, repository, node.ID)
		if err != nil {
			return index.UploadSession{}, err
		}
		if succ == nil {
			break
		}
		node = succ
	}
	if node.IsFinished {
		return index.UploadSession{}, errdefs.Newf(ErrSessionNotFound, "session %s is finished", sessionID)
	}
	if node.Digest != nil {
		return index.UploadSession{}, errdefs.Newf(errdefs.ErrInvalidState, "terminal session %s holds a chunk but has no successor", node.ID)
	}
	return *node, nil
}

// FinalizeUpload concludes an upload chain: the chunk files are concatenated
// in order, the result is verified against the expected digest, and the blob
// is promoted into the content store. Non-empty finalBytes are appended as a
// last chunk first.
func (r *Registry) FinalizeUpload(ctx context.Context, repository string, sessionID uuid.UUID, expectedDigest string, finalBytes []byte) (Blob, error) {
	want, err := parseDigest(expectedDigest)
	if err != nil {
		return Blob{}, err
	}

	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return Blob{}, err
	}
	defer func() { _ = tx.Rollback() }()

	node, err := tx.FindSession(ctx, repository, sessionID)
	if err != nil {
		return Blob{}, err
	}
	if node == nil {
		return Blob{}, errdefs.Newf(ErrSessionNotFound, "session %s in %s", sessionID, repository)
	}
	if len(finalBytes) > 0 {
		node, err = r.appendChunk(ctx, tx, node, finalBytes, nil, nil)
		if err != nil {
			return Blob{}, err
		}
	}

	chunks, err := collectChunkDigests(ctx, tx, node)
	if err != nil {
		return Blob{}, err
	}
	var full []byte
	for _, d := range chunks {
		data, err := r.store.ReadChunk(d)
		if err != nil {
			return Blob{}, err
		}
		full = append(full, data...)
	}
	got := digest.FromBytes(full)
	if got != want {
		return Blob{}, errdefs.Newf(ErrInvalidDigest, "blob digest is %s, expected %s", got, want)
	}

	if err := tx.SetSessionFinished(ctx, repository, node.ID); err != nil {
		return Blob{}, err
	}
	row, err := tx.InsertBlob(ctx, repository, want.String())
	if err != nil {
		return Blob{}, err
	}
	if err := r.store.PromoteBlob(want, full); err != nil {
		return Blob{}, err
	}
	if err := tx.Commit(); err != nil {
		return Blob{}, err
	}
	xlog.C(ctx).Infof("finalized blob %s in %s from %d chunks", want, repository, len(chunks))
	return Blob{ID: row.ID, Digest: want}, nil
}

// collectChunkDigests walks the chain backwards from the terminal node and
// returns the chunk digests in upload order.
func collectChunkDigests(ctx context.Context, tx *index.Tx, terminal *index.UploadSession) ([]digest.Digest, error) {
	var chunks []digest.Digest
	node := terminal
	for {
		if node.Digest != nil {
			d, err := digest.Parse(*node.Digest)
			if err != nil {
				return nil, errdefs.Newf(errdefs.ErrInvalidState, "session %s holds malformed chunk digest %q", node.ID, *node.Digest)
			}
			chunks = append(chunks, d)
		}
		if node.PreviousSession == nil {
			break
		}
		prev, err := tx.FindSession(ctx, node.Repository, *node.PreviousSession)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			return nil, errdefs.Newf(errdefs.ErrInvalidState, "session %s references missing predecessor %s", node.ID, *node.PreviousSession)
		}
		node = prev
	}
	return lo.Reverse(chunks), nil
}
