package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kalambet/mocktalk/internal/interview"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite keeps records in a sessions table, one row per save.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs pending
// migrations. Pass ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection so ":memory:" is a single database and writers never see "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns applied migration versions in ascending order.
func (s *SQLite) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const selectRecord = `SELECT timestamp, role, interview_type, level, total_questions, qa_list, summary FROM sessions`

func (s *SQLite) Load(ctx context.Context) ([]interview.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	records := []interview.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLite) Append(ctx context.Context, rec interview.Record) error {
	turns := rec.Turns
	if turns == nil {
		turns = []interview.Turn{}
	}
	qa, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encoding qa_list: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (timestamp, role, interview_type, level, total_questions, qa_list, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Role, string(rec.InterviewType), string(rec.Level), rec.TotalQuestions, string(qa), rec.Summary,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get returns the n-th saved record. Row numbers follow save order even
// though seq may have gaps.
func (s *SQLite) Get(ctx context.Context, n int) (interview.Record, error) {
	if n < 1 {
		return interview.Record{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, selectRecord+` ORDER BY seq ASC LIMIT 1 OFFSET ?`, n-1)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return interview.Record{}, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (interview.Record, error) {
	var rec interview.Record
	var typ, level, qa string
	if err := sc.Scan(&rec.Timestamp, &rec.Role, &typ, &level, &rec.TotalQuestions, &qa, &rec.Summary); err != nil {
		return interview.Record{}, err
	}
	rec.InterviewType = interview.InterviewType(typ)
	rec.Level = interview.Level(level)
	if err := json.Unmarshal([]byte(qa), &rec.Turns); err != nil {
		return interview.Record{}, fmt.Errorf("decoding qa_list: %w", err)
	}
	return rec, nil
}
