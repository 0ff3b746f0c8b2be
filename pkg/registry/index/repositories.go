package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// InsertRepository creates a repository owned by the given owner. The
// namespace carries a unique constraint: concurrent creations surface as a
// unique violation the caller recovers from with IsUniqueViolation.
func (t *Tx) InsertRepository(ctx context.Context, owner uuid.UUID, namespace string) (Repository, error) {
	r := Repository{
		ID:        uuid.New(),
		Owner:     owner,
		Namespace: namespace,
		CreatedAt: t.idx.clock.Now().UTC(),
	}
	_, err := t.exec(ctx, `
INSERT INTO repository(id, owner, namespace_name, created_at)
VALUES                (?,  ?,     ?,              ?)`, r.ID, r.Owner, r.Namespace, r.CreatedAt)
	if err != nil {
		// Unique violations are recoverable, keep them unwrapped.
		if IsUniqueViolation(err) {
			return Repository{}, err
		}
		return Repository{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return r, nil
}

// FindRepositoryByNamespace returns the repository with the namespace, or
// nil when absent.
func (t *Tx) FindRepositoryByNamespace(ctx context.Context, namespace string) (*Repository, error) {
	row := t.queryRow(ctx, `
SELECT id, owner, namespace_name, created_at
FROM repository
WHERE namespace_name = ?`, namespace)

	var r Repository
	if err := row.Scan(&r.ID, &r.Owner, &r.Namespace, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &r, nil
}

// ListRepositories returns all repositories joined with their owner's
// username, ordered by namespace.
func (t *Tx) ListRepositories(ctx context.Context) ([]RepositoryWithOwner, error) {
	rows, err := t.query(ctx, `
SELECT r.namespace_name, o.username, r.created_at
FROM repository r
JOIN owner o ON o.id = r.owner
ORDER BY r.namespace_name ASC`)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer rows.Close()

	var out []RepositoryWithOwner
	for rows.Next() {
		var r RepositoryWithOwner
		if err := rows.Scan(&r.Namespace, &r.Username, &r.CreatedAt); err != nil {
			return nil, errdefs.NewE(errdefs.ErrSystem, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return out, nil
}
