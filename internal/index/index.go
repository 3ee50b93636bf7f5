package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/minniel/slack-history/internal/archive"
)

// Index catalogs what each archive run wrote, in a SQLite file at the output
// root. The archive files stay the source of truth; the index is never read
// back during archiving, it only answers "what does this archive hold".
type Index struct {
	db    *sql.DB
	runID int64
}

// Open opens (creating if needed) the archive.db catalog under outputDir.
func Open(outputDir string) (*Index, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	dbPath := filepath.Join(outputDir, "archive.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	ix := &Index{db: db}
	if err := ix.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return ix, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at    DATETIME NOT NULL,
		finished_at   DATETIME,
		conversations INTEGER NOT NULL DEFAULT 0,
		files         INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS files (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id            INTEGER NOT NULL REFERENCES runs(id),
		conversation_type TEXT NOT NULL,
		conversation      TEXT NOT NULL,
		day               TEXT NOT NULL,
		path              TEXT NOT NULL,
		messages          INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	`
	_, err := ix.db.Exec(schema)
	return err
}

// BeginRun opens a new run row; subsequent RecordFile calls attach to it.
func (ix *Index) BeginRun() error {
	res, err := ix.db.Exec("INSERT INTO runs (started_at) VALUES (?)", time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	ix.runID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	return nil
}

// RecordFile notes one written day file. Satisfies archive.Recorder.
func (ix *Index) RecordFile(conversationType, conversation string, f archive.DayFile) error {
	_, err := ix.db.Exec(
		"INSERT INTO files (run_id, conversation_type, conversation, day, path, messages) VALUES (?, ?, ?, ?, ?, ?)",
		ix.runID, conversationType, conversation, f.Day, f.Path, f.Messages,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// FinishRun stamps the run as done and rolls up its totals.
func (ix *Index) FinishRun() error {
	_, err := ix.db.Exec(`
		UPDATE runs SET
			finished_at = ?,
			conversations = (SELECT COUNT(DISTINCT conversation_type || '/' || conversation) FROM files WHERE run_id = runs.id),
			files = (SELECT COUNT(*) FROM files WHERE run_id = runs.id)
		WHERE id = ?`,
		time.Now().UTC(), ix.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    sql.NullTime
	Conversations int
	Files         int
}

// FileEntry is one cataloged day file.
type FileEntry struct {
	ConversationType string
	Conversation     string
	Day              string
	Path             string
	Messages         int
}

// LatestRun returns the most recent run and its files, or (nil, nil, nil)
// when the catalog is empty.
func (ix *Index) LatestRun() (*RunSummary, []FileEntry, error) {
	row := ix.db.QueryRow(
		"SELECT id, started_at, finished_at, conversations, files FROM runs ORDER BY id DESC LIMIT 1")

	var run RunSummary
	if err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Conversations, &run.Files); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := ix.db.Query(
		"SELECT conversation_type, conversation, day, path, messages FROM files WHERE run_id = ? ORDER BY conversation_type, conversation, day",
		run.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var e FileEntry
		if err := rows.Scan(&e.ConversationType, &e.Conversation, &e.Day, &e.Path, &e.Messages); err != nil {
			return nil, nil, fmt.Errorf("scan file: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate files: %w", err)
	}

	return &run, entries, nil
}
