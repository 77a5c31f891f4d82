package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/lang"
)

// SnapshotSchemaVersion is bumped whenever the snapshot tables change.
const SnapshotSchemaVersion = 1

const snapshotSchema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE documents (
	key  TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL
);

CREATE TABLE names (
	term TEXT NOT NULL,
	name TEXT NOT NULL,
	doc  TEXT NOT NULL
);
CREATE INDEX names_term ON names(term);

CREATE TABLE countries (
	lang     TEXT NOT NULL,
	position INTEGER NOT NULL,
	org      TEXT NOT NULL,
	PRIMARY KEY (lang, position)
);

CREATE TABLE country_lines (
	org      TEXT NOT NULL,
	position INTEGER NOT NULL,
	line     TEXT NOT NULL,
	PRIMARY KEY (org, position)
);

CREATE TABLE property_lines (
	org      TEXT NOT NULL,
	position INTEGER NOT NULL,
	line     TEXT NOT NULL,
	owned    INTEGER NOT NULL,
	operated INTEGER NOT NULL,
	PRIMARY KEY (org, position)
);

CREATE TABLE point_lines (
	point    TEXT NOT NULL,
	position INTEGER NOT NULL,
	line     TEXT NOT NULL,
	PRIMARY KEY (point, position)
);

CREATE TABLE point_connections (
	point     TEXT NOT NULL,
	neighbour TEXT NOT NULL,
	PRIMARY KEY (point, neighbour)
);

CREATE TABLE source_creators (
	org          TEXT NOT NULL,
	position     INTEGER NOT NULL,
	source       TEXT NOT NULL,
	date         TEXT NOT NULL,
	author       INTEGER NOT NULL,
	editor       INTEGER NOT NULL,
	organization INTEGER NOT NULL,
	publisher    INTEGER NOT NULL,
	PRIMARY KEY (org, position)
);

CREATE TABLE collection_items (
	collection TEXT NOT NULL,
	position   INTEGER NOT NULL,
	source     TEXT NOT NULL,
	date       TEXT NOT NULL,
	PRIMARY KEY (collection, position)
);

CREATE TABLE source_also (
	source TEXT NOT NULL,
	other  TEXT NOT NULL,
	PRIMARY KEY (source, other)
);

CREATE TABLE source_regards (
	doc      TEXT NOT NULL,
	position INTEGER NOT NULL,
	source   TEXT NOT NULL,
	date     TEXT NOT NULL,
	PRIMARY KEY (doc, position)
);
`

// SnapshotInfo describes a written snapshot.
type SnapshotInfo struct {
	Path          string         `json:"path"`
	SchemaVersion int            `json:"schema_version"`
	BuiltAt       time.Time      `json:"built_at"`
	WrittenAt     time.Time      `json:"written_at"`
	Documents     map[string]int `json:"documents"`
	Total         int            `json:"total"`
}

// WriteSnapshot writes the catalogue to a SQLite file at path, replacing
// any previous snapshot. The file is written next to path and renamed into
// place, so readers never see a partial snapshot. A concurrent writer
// makes it fail with ERR_204_SNAPSHOT_LOCKED.
func WriteSnapshot(ctx context.Context, path string, cat *catalogue.Catalogue, store corpus.Store) (*SnapshotInfo, error) {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, railerr.New(railerr.ErrCodeSnapshotWrite, "create snapshot directory", err).
			WithDetail("path", path)
	}

	lock := NewFileLock(path)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, railerr.New(railerr.ErrCodeSnapshotWrite, "lock snapshot", err).WithDetail("path", path)
	}
	if !acquired {
		return nil, railerr.New(railerr.ErrCodeSnapshotLocked, "snapshot is being written by another process", nil).
			WithDetail("path", path).
			WithSuggestion("wait for the other export to finish and retry")
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	info := &SnapshotInfo{
		Path:          path,
		SchemaVersion: SnapshotSchemaVersion,
		BuiltAt:       cat.BuiltAt,
		WrittenAt:     time.Now().UTC(),
	}
	if err := writeSnapshotFile(ctx, tmp, cat, store, info); err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, railerr.New(railerr.ErrCodeSnapshotWrite, "write snapshot", err).WithDetail("path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, railerr.New(railerr.ErrCodeSnapshotWrite, "replace snapshot", err).WithDetail("path", path)
	}

	slog.Info("snapshot_written",
		slog.String("path", path),
		slog.Int("documents", info.Total),
		slog.Duration("duration", time.Since(start)))
	return info, nil
}

func openSnapshotDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func writeSnapshotFile(ctx context.Context, path string, cat *catalogue.Catalogue, store corpus.Store, info *SnapshotInfo) error {
	db, err := openSnapshotDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	w := &snapshotWriter{ctx: ctx, tx: tx, store: store}
	w.documents(info)
	w.names(cat.Names)
	w.countries(cat.Countries)
	w.countryLines(cat.CountryLines)
	w.propertyLines(cat.PropertyLines)
	w.points(cat.Points)
	w.sources(cat.Sources)
	w.meta(info)
	if w.err != nil {
		return w.err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// snapshotWriter keeps the first error so table writers can run in
// sequence without checking after every row.
type snapshotWriter struct {
	ctx   context.Context
	tx    *sql.Tx
	store corpus.Store
	err   error
}

func (w *snapshotWriter) key(l corpus.Link) string {
	if doc := w.store.Resolve(l); doc != nil {
		return doc.Key
	}
	return ""
}

// rows prepares one insert statement and runs it for every yielded row.
func (w *snapshotWriter) rows(stmt string, each func(insert func(args ...any))) {
	if w.err != nil {
		return
	}
	prepared, err := w.tx.PrepareContext(w.ctx, stmt)
	if err != nil {
		w.err = fmt.Errorf("failed to prepare %q: %w", stmt, err)
		return
	}
	defer prepared.Close()

	each(func(args ...any) {
		if w.err != nil {
			return
		}
		if _, err := prepared.ExecContext(w.ctx, args...); err != nil {
			w.err = fmt.Errorf("failed to insert row: %w", err)
		}
	})
}

func (w *snapshotWriter) documents(info *SnapshotInfo) {
	info.Documents = make(map[string]int)
	w.rows(`INSERT INTO documents (key, kind, name) VALUES (?, ?, ?)`, func(insert func(...any)) {
		for l := range w.store.Links() {
			doc := w.store.Resolve(l)
			if doc == nil {
				continue
			}
			insert(doc.Key, doc.Kind.String(), doc.DisplayName(lang.Default))
			info.Documents[doc.Kind.String()]++
			info.Total++
		}
	})
}

func (w *snapshotWriter) names(idx *catalogue.NameIndex) {
	w.rows(`INSERT INTO names (term, name, doc) VALUES (?, ?, ?)`, func(insert func(...any)) {
		for term, entries := range idx.Buckets() {
			for _, e := range entries {
				insert(term, e.Name, w.key(e.Link))
			}
		}
	})
}

func (w *snapshotWriter) countries(idx *catalogue.CountryIndex) {
	w.rows(`INSERT INTO countries (lang, position, org) VALUES (?, ?, ?)`, func(insert func(...any)) {
		for _, l := range lang.All() {
			for i, org := range idx.List(l) {
				insert(l.Code(), i, w.key(org))
			}
		}
	})
}

func (w *snapshotWriter) countryLines(cl *catalogue.CountryLines) {
	w.rows(`INSERT INTO country_lines (org, position, line) VALUES (?, ?, ?)`, func(insert func(...any)) {
		for _, org := range cl.Orgs() {
			for i, line := range cl.ByLink(org) {
				insert(w.key(org), i, w.key(line))
			}
		}
	})
}

func (w *snapshotWriter) propertyLines(pl *catalogue.PropertyLines) {
	w.rows(`INSERT INTO property_lines (org, position, line, owned, operated) VALUES (?, ?, ?, ?, ?)`, func(insert func(...any)) {
		for _, org := range pl.Orgs() {
			for i, p := range pl.ByLink(org) {
				insert(w.key(org), i, w.key(p.Line), p.Owned, p.Operated)
			}
		}
	})
}

func (w *snapshotWriter) points(pc *catalogue.PointConnections) {
	w.rows(`INSERT INTO point_lines (point, position, line) VALUES (?, ?, ?)`, func(insert func(...any)) {
		for _, p := range pc.ServedPoints() {
			for i, line := range pc.Lines(p) {
				insert(w.key(p), i, w.key(line))
			}
		}
	})
	w.rows(`INSERT INTO point_connections (point, neighbour) VALUES (?, ?)`, func(insert func(...any)) {
		for _, p := range pc.ConnectedPoints() {
			neighbours, _ := pc.Connections(p)
			for _, n := range neighbours {
				insert(w.key(p), w.key(n))
			}
		}
	})
}

func (w *snapshotWriter) sources(sr *catalogue.SourceRefs) {
	w.rows(`INSERT INTO source_creators (org, position, source, date, author, editor, organization, publisher)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, func(insert func(...any)) {
		for _, org := range sr.CreatorOrgs() {
			for i, c := range sr.Creators(org) {
				insert(w.key(org), i, w.key(c.Source), c.Date.String(),
					c.Roles.Author, c.Roles.Editor, c.Roles.Organization, c.Roles.Publisher)
			}
		}
	})
	w.rows(`INSERT INTO collection_items (collection, position, source, date) VALUES (?, ?, ?, ?)`, func(insert func(...any)) {
		for _, coll := range sr.Collections() {
			for i, item := range sr.CollectionItems(coll) {
				insert(w.key(coll), i, w.key(item.Source), item.Date.String())
			}
		}
	})
	w.rows(`INSERT INTO source_also (source, other) VALUES (?, ?)`, func(insert func(...any)) {
		for _, s := range sr.AlsoSources() {
			for _, other := range sr.Also(s) {
				insert(w.key(s), w.key(other))
			}
		}
	})
	w.rows(`INSERT INTO source_regards (doc, position, source, date) VALUES (?, ?, ?, ?)`, func(insert func(...any)) {
		for _, doc := range sr.RegardedDocuments() {
			for i, item := range sr.Regards(doc) {
				insert(w.key(doc), i, w.key(item.Source), item.Date.String())
			}
		}
	})
}

func (w *snapshotWriter) meta(info *SnapshotInfo) {
	w.rows(`INSERT INTO meta (key, value) VALUES (?, ?)`, func(insert func(...any)) {
		insert("schema_version", strconv.Itoa(info.SchemaVersion))
		insert("built_at", info.BuiltAt.UTC().Format(time.RFC3339Nano))
		insert("written_at", info.WrittenAt.Format(time.RFC3339Nano))
		insert("documents", strconv.Itoa(info.Total))
	})
}

// ReadSnapshotInfo reads the metadata and per-kind document counts of a
// snapshot. A file that is not a snapshot fails with
// ERR_205_SNAPSHOT_CORRUPT.
func ReadSnapshotInfo(ctx context.Context, path string) (*SnapshotInfo, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, railerr.New(railerr.ErrCodeFileNotFound, "snapshot not found: "+path, err).
				WithSuggestion("run 'railcat export' first")
		}
		return nil, railerr.New(railerr.ErrCodeFilePermission, "cannot access snapshot: "+path, err)
	}

	db, err := openSnapshotDB(path)
	if err != nil {
		return nil, railerr.New(railerr.ErrCodeSnapshotCorrupt, "open snapshot", err).WithDetail("path", path)
	}
	defer db.Close()

	corrupt := func(msg string, cause error) error {
		return railerr.New(railerr.ErrCodeSnapshotCorrupt, msg, cause).
			WithDetail("path", path).
			WithSuggestion("delete the file and run 'railcat export' again")
	}

	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, corrupt("cannot open snapshot read-only", err)
	}

	var tables int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('meta', 'documents')`).Scan(&tables)
	if err != nil {
		return nil, corrupt("cannot read snapshot schema", err)
	}
	if tables != 2 {
		return nil, corrupt("snapshot tables missing", nil)
	}

	info := &SnapshotInfo{Path: path, Documents: make(map[string]int)}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, corrupt("cannot read snapshot meta", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, corrupt("cannot read snapshot meta", err)
		}
		switch k {
		case "schema_version":
			info.SchemaVersion, _ = strconv.Atoi(v)
		case "built_at":
			info.BuiltAt, _ = time.Parse(time.RFC3339Nano, v)
		case "written_at":
			info.WrittenAt, _ = time.Parse(time.RFC3339Nano, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, corrupt("cannot read snapshot meta", err)
	}
	if info.SchemaVersion == 0 {
		return nil, corrupt("snapshot has no schema version", nil)
	}

	counts, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM documents GROUP BY kind`)
	if err != nil {
		return nil, corrupt("cannot count snapshot documents", err)
	}
	defer counts.Close()
	for counts.Next() {
		var kind string
		var n int
		if err := counts.Scan(&kind, &n); err != nil {
			return nil, corrupt("cannot count snapshot documents", err)
		}
		info.Documents[kind] = n
		info.Total += n
	}
	if err := counts.Err(); err != nil {
		return nil, corrupt("cannot count snapshot documents", err)
	}

	return info, nil
}
