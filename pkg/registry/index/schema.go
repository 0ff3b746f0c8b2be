package index

const schema = `
CREATE TABLE IF NOT EXISTS owner (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS repository (
    id             TEXT PRIMARY KEY,
    owner          TEXT NOT NULL REFERENCES owner(id),
    namespace_name TEXT NOT NULL UNIQUE,
    created_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_session (
    id                  TEXT PRIMARY KEY,
    repository          TEXT NOT NULL REFERENCES repository(namespace_name),
    previous_session    TEXT REFERENCES upload_session(id),
    digest              TEXT,
    starting_byte_index INTEGER NOT NULL DEFAULT 0,
    is_finished         INTEGER NOT NULL DEFAULT 0,
    created_at          TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_upload_session_previous
    ON upload_session(repository, previous_session);

CREATE TABLE IF NOT EXISTS blob (
    id         TEXT PRIMARY KEY,
    repository TEXT NOT NULL REFERENCES repository(namespace_name),
    digest     TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_blob_repository_digest
    ON blob(repository, digest);

CREATE TABLE IF NOT EXISTS manifest (
    id               TEXT PRIMARY KEY,
    repository       TEXT NOT NULL REFERENCES repository(namespace_name),
    tag              TEXT,
    blob_id          TEXT NOT NULL REFERENCES blob(id),
    digest           TEXT NOT NULL,
    content_type_top TEXT NOT NULL,
    content_type_sub TEXT NOT NULL,
    created_at       TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_manifest_repository_tag
    ON manifest(repository, tag) WHERE tag IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_manifest_repository_digest
    ON manifest(repository, digest);

CREATE TABLE IF NOT EXISTS manifest_layer (
    manifest_id TEXT NOT NULL REFERENCES manifest(id),
    blob_id     TEXT NOT NULL REFERENCES blob(id),
    media_type  TEXT NOT NULL,
    size        INTEGER NOT NULL,
    created_at  TIMESTAMP NOT NULL,
    PRIMARY KEY (manifest_id, blob_id)
);
`
