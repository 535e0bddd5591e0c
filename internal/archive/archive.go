// Package archive keeps an optional SQLite record of every region detected in
// a run, alongside the CSV report's per-image counts.
package archive

import (
	"database/sql"
	"sync"

	"github.com/ironsheep/flowercount/internal/detection"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// FileName is the database file created inside the results directory.
const FileName = "detections.db"

// Store wraps the SQLite database connection with serialized writes.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open opens or creates the archive at path and ensures its schema exists.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open archive")
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to migrate archive")
	}
	return s, nil
}

// migrate creates the tables if they don't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_date TEXT NOT NULL,
		filename TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_id INTEGER NOT NULL,
		class_name TEXT NOT NULL DEFAULT '',
		class_id INTEGER NOT NULL,
		score REAL NOT NULL,
		x1 REAL NOT NULL,
		y1 REAL NOT NULL,
		x2 REAL NOT NULL,
		y2 REAL NOT NULL,
		FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_images_run_date ON images(run_date);
	CREATE INDEX IF NOT EXISTS idx_detections_image_id ON detections(image_id);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Record stores one image and all of its regions in a single transaction and
// returns the new image id.
func (s *Store) Record(date, filename string, regions []detection.Region) (id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			multierr.AppendInto(&err, tx.Rollback())
		}
	}()

	res, err := tx.Exec(`INSERT INTO images (run_date, filename, count) VALUES (?, ?, ?)`,
		date, filename, len(regions))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to insert image %s", filename)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read image id")
	}

	stmt, err := tx.Prepare(`INSERT INTO detections
		(image_id, class_name, class_id, score, x1, y1, x2, y2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare detection insert")
	}
	defer stmt.Close()

	for _, r := range regions {
		_, err = stmt.Exec(id, r.Class, r.ClassID, r.Score, r.Box.X1, r.Box.Y1, r.Box.X2, r.Box.Y2)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to insert detection for %s", filename)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit")
	}
	return id, nil
}

// ImageCount is one archived image's count.
type ImageCount struct {
	ID       int64
	Filename string
	Count    int
}

// Counts returns the images archived for date, in insertion order.
func (s *Store) Counts(date string) ([]ImageCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(`SELECT id, filename, count FROM images WHERE run_date = ? ORDER BY id`, date)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query images")
	}
	defer rows.Close()

	var out []ImageCount
	for rows.Next() {
		var c ImageCount
		if err := rows.Scan(&c.ID, &c.Filename, &c.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan image")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Regions returns the regions archived for an image id, highest score first.
func (s *Store) Regions(imageID int64) ([]detection.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(`SELECT class_name, class_id, score, x1, y1, x2, y2
		FROM detections WHERE image_id = ? ORDER BY score DESC, id`, imageID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query detections")
	}
	defer rows.Close()

	var out []detection.Region
	for rows.Next() {
		var r detection.Region
		if err := rows.Scan(&r.Class, &r.ClassID, &r.Score, &r.Box.X1, &r.Box.Y1, &r.Box.X2, &r.Box.Y2); err != nil {
			return nil, errors.Wrap(err, "failed to scan detection")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
