// Package repo implements the Repository (spec C11): the Postgres
// staging/catalog database every run writes to, regardless of which
// engines source and target are. It owns the dc_* tables (project,
// table registration, column maps, staged fingerprints, findings, run
// history) and the set-difference compare SQL (spec §4.7).
package repo

import (
	"context"
	"database/sql"

	"pgcompare/internal/errkind"
)

// Repo wraps the repository connection. It is always Postgres — spec
// §4.11 — so unlike internal/dialect this package talks to *sql.DB
// directly with lib/pq-flavored SQL rather than going through a
// Dialect.
type Repo struct {
	db *sql.DB
}

// Open connects to the repository database and ensures its schema
// exists.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errkind.New(errkind.Connect, "failed to open repository connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errkind.New(errkind.Connect, "failed to reach repository database", err)
	}
	r := &Repo{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// DB exposes the underlying handle. The Loader does not use it: staging
// writes go through InsertBatch.
func (r *Repo) DB() *sql.DB { return r.db }

const ddl = `
CREATE TABLE IF NOT EXISTS dc_project (
    project_id   BIGSERIAL PRIMARY KEY,
    project_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS dc_table (
    tid             BIGSERIAL PRIMARY KEY,
    project_id      BIGINT NOT NULL REFERENCES dc_project(project_id),
    alias           TEXT NOT NULL,
    enabled         BOOLEAN NOT NULL DEFAULT TRUE,
    batch_nbr       INT NOT NULL DEFAULT 1,
    parallel_degree INT NOT NULL DEFAULT 1,
    UNIQUE (project_id, alias)
);

CREATE TABLE IF NOT EXISTS dc_table_map (
    tid                 BIGINT NOT NULL REFERENCES dc_table(tid),
    origin              TEXT NOT NULL CHECK (origin IN ('source', 'target')),
    schema_name         TEXT NOT NULL,
    table_name          TEXT NOT NULL,
    mod_column          TEXT NOT NULL,
    table_filter        TEXT NOT NULL DEFAULT '',
    preserve_case_owner BOOLEAN NOT NULL DEFAULT FALSE,
    preserve_case_table BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (tid, origin)
);

CREATE TABLE IF NOT EXISTS dc_table_column_map (
    tid               BIGINT NOT NULL REFERENCES dc_table(tid),
    column_alias      TEXT NOT NULL,
    source_column     TEXT,
    source_data_type  TEXT,
    source_supported  BOOLEAN NOT NULL DEFAULT FALSE,
    target_column     TEXT,
    target_data_type  TEXT,
    target_supported  BOOLEAN NOT NULL DEFAULT FALSE,
    data_class        TEXT NOT NULL DEFAULT 'char',
    PRIMARY KEY (tid, column_alias)
);

CREATE TABLE IF NOT EXISTS dc_source (
    tid        BIGINT NOT NULL REFERENCES dc_table(tid),
    batch_nbr  INT NOT NULL,
    pk_hash    CHAR(32) NOT NULL,
    column_hash CHAR(32) NOT NULL,
    pk         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS dc_source_tid_batch_idx ON dc_source (tid, batch_nbr);
CREATE INDEX IF NOT EXISTS dc_source_pk_hash_idx ON dc_source (tid, pk_hash);

CREATE TABLE IF NOT EXISTS dc_target (
    tid        BIGINT NOT NULL REFERENCES dc_table(tid),
    batch_nbr  INT NOT NULL,
    pk_hash    CHAR(32) NOT NULL,
    column_hash CHAR(32) NOT NULL,
    pk         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS dc_target_tid_batch_idx ON dc_target (tid, batch_nbr);
CREATE INDEX IF NOT EXISTS dc_target_pk_hash_idx ON dc_target (tid, pk_hash);

CREATE TABLE IF NOT EXISTS dc_source_findings (
    tid              BIGINT NOT NULL REFERENCES dc_table(tid),
    batch_nbr        INT NOT NULL,
    pk               JSONB NOT NULL,
    status           TEXT NOT NULL,
    recheck_outcome  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dc_target_findings (
    tid              BIGINT NOT NULL REFERENCES dc_table(tid),
    batch_nbr        INT NOT NULL,
    pk               JSONB NOT NULL,
    status           TEXT NOT NULL,
    recheck_outcome  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dc_table_history (
    tid       BIGINT NOT NULL REFERENCES dc_table(tid),
    run_id    UUID NOT NULL,
    action    TEXT NOT NULL,
    batch_nbr INT NOT NULL,
    start_ts  TIMESTAMPTZ NOT NULL,
    end_ts    TIMESTAMPTZ,
    status    TEXT NOT NULL,
    equal_count           BIGINT NOT NULL DEFAULT 0,
    not_equal_count       BIGINT NOT NULL DEFAULT 0,
    missing_source_count  BIGINT NOT NULL DEFAULT 0,
    missing_target_count  BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (tid, run_id)
);
`

func (r *Repo) ensureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return errkind.New(errkind.Config, "failed to create repository schema", err)
	}
	return nil
}
