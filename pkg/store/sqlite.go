// Package store persists hardware devices, benchmark runs and raw payload
// documents in SQLite. Raw payloads are append-only history: they are
// written once at upload time and only ever read back for aggregation.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/weird-bench/site/pkg/hardware"
	"github.com/weird-bench/site/pkg/models"
)

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("store: not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS hardware (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	type         TEXT NOT NULL,
	manufacturer TEXT NOT NULL,
	cores        INTEGER,
	threads      INTEGER,
	framework    TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_hardware_type ON hardware(type);
CREATE INDEX IF NOT EXISTS idx_hardware_manufacturer ON hardware(manufacturer);

CREATE TABLE IF NOT EXISTS benchmark_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	hardware_id TEXT NOT NULL REFERENCES hardware(id),
	run_number  INTEGER NOT NULL,
	timestamp   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_benchmark_runs_hardware ON benchmark_runs(hardware_id);
CREATE INDEX IF NOT EXISTS idx_benchmark_runs_run_id ON benchmark_runs(run_id);

CREATE TABLE IF NOT EXISTS benchmark_files (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	benchmark_run_id INTEGER NOT NULL REFERENCES benchmark_runs(id),
	benchmark_type   TEXT NOT NULL,
	data             TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_benchmark_files_run ON benchmark_files(benchmark_run_id);
CREATE INDEX IF NOT EXISTS idx_benchmark_files_type ON benchmark_files(benchmark_type);
`

// Store wraps the SQLite database. The mutex serializes the
// read-check-then-insert-or-update sequence of device upserts so concurrent
// uploads for the same device id cannot create duplicate rows.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The sqlite driver is single-writer; one connection keeps the
	// in-memory database alive across calls as well.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Printf("[Store] Opened database at %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetHardware returns the device with the given id, or ErrNotFound.
func (s *Store) GetHardware(id string) (*models.HardwareDevice, error) {
	row := s.db.QueryRow(
		`SELECT id, name, type, manufacturer, cores, threads, framework, created_at, updated_at
		 FROM hardware WHERE id = ?`, id)
	return scanHardware(row)
}

// ListHardware returns every device, ordered by type, manufacturer, name.
func (s *Store) ListHardware() ([]models.HardwareDevice, error) {
	rows, err := s.db.Query(
		`SELECT id, name, type, manufacturer, cores, threads, framework, created_at, updated_at
		 FROM hardware ORDER BY type, manufacturer, name`)
	if err != nil {
		return nil, fmt.Errorf("listing hardware: %w", err)
	}
	defer rows.Close()

	var devices []models.HardwareDevice
	for rows.Next() {
		dev, err := scanHardware(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *dev)
	}
	return devices, rows.Err()
}

// UpsertHardware inserts the device if its id is new. An existing record is
// kept untouched except for the name, which is upgraded when the candidate
// name is more specific - names are never downgraded. Returns the stored
// record.
func (s *Store) UpsertHardware(dev models.HardwareDevice) (*models.HardwareDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.GetHardware(dev.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing == nil {
		dev.CreatedAt = time.Now().UTC()
		_, err := s.db.Exec(
			`INSERT INTO hardware (id, name, type, manufacturer, cores, threads, framework, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			dev.ID, dev.Name, string(dev.Type), dev.Manufacturer,
			nullableInt(dev.Cores), nullableInt(dev.Threads), nullableString(dev.Framework), dev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("inserting hardware %s: %w", dev.ID, err)
		}
		log.Printf("[Store] Created hardware %s (%s)", dev.ID, dev.Type)
		return &dev, nil
	}

	if hardware.MoreSpecific(dev.Name, existing.Name) {
		now := time.Now().UTC()
		_, err := s.db.Exec(`UPDATE hardware SET name = ?, updated_at = ? WHERE id = ?`, dev.Name, now, dev.ID)
		if err != nil {
			return nil, fmt.Errorf("updating hardware name %s: %w", dev.ID, err)
		}
		existing.Name = dev.Name
		existing.UpdatedAt = &now
		log.Printf("[Store] Upgraded hardware name %s -> %q", dev.ID, dev.Name)
	}
	return existing, nil
}

// CreateRun records one upload for a device, assigning the next sequential
// run number for that device.
func (s *Store) CreateRun(runID, hardwareID string, ts time.Time) (*models.BenchmarkRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxRun sql.NullInt64
	if err := s.db.QueryRow(
		`SELECT MAX(run_number) FROM benchmark_runs WHERE hardware_id = ?`, hardwareID).Scan(&maxRun); err != nil {
		return nil, fmt.Errorf("reading run number: %w", err)
	}
	run := models.BenchmarkRun{
		RunID:      runID,
		HardwareID: hardwareID,
		RunNumber:  int(maxRun.Int64) + 1,
		Timestamp:  ts.UTC(),
	}
	res, err := s.db.Exec(
		`INSERT INTO benchmark_runs (run_id, hardware_id, run_number, timestamp) VALUES (?, ?, ?, ?)`,
		run.RunID, run.HardwareID, run.RunNumber, run.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return &run, nil
}

// AddPayload stores one raw benchmark document under a run. The document is
// serialized as received (after upload-time augmentation) and never
// rewritten afterwards.
func (s *Store) AddPayload(runRowID int64, bt models.BenchmarkType, data map[string]any) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO benchmark_files (benchmark_run_id, benchmark_type, data, created_at) VALUES (?, ?, ?, ?)`,
		runRowID, string(bt), string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting payload: %w", err)
	}
	return nil
}

// ListPayloads returns every stored payload of one benchmark type for a
// device, oldest first.
func (s *Store) ListPayloads(hardwareID string, bt models.BenchmarkType) ([]models.RawBenchmarkPayload, error) {
	rows, err := s.db.Query(
		`SELECT bf.id, bf.benchmark_run_id, bf.benchmark_type, bf.data, bf.created_at
		 FROM benchmark_files bf
		 JOIN benchmark_runs br ON br.id = bf.benchmark_run_id
		 WHERE br.hardware_id = ? AND bf.benchmark_type = ?
		 ORDER BY bf.id`, hardwareID, string(bt))
	if err != nil {
		return nil, fmt.Errorf("listing payloads: %w", err)
	}
	defer rows.Close()

	var payloads []models.RawBenchmarkPayload
	for rows.Next() {
		var (
			p    models.RawBenchmarkPayload
			bts  string
			blob string
		)
		if err := rows.Scan(&p.ID, &p.RunID, &bts, &blob, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		p.BenchmarkType = models.BenchmarkType(bts)
		if err := json.Unmarshal([]byte(blob), &p.Data); err != nil {
			// A corrupt row contributes nothing; aggregation continues.
			log.Printf("[Store] Skipping undecodable payload %d: %v", p.ID, err)
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads, rows.Err()
}

// BenchmarkCounts returns, per device, the number of stored payloads by
// benchmark type and the latest run timestamp.
func (s *Store) BenchmarkCounts(hardwareID string) (map[models.BenchmarkType]int, time.Time, error) {
	rows, err := s.db.Query(
		`SELECT bf.benchmark_type, COUNT(*), MAX(br.timestamp)
		 FROM benchmark_files bf
		 JOIN benchmark_runs br ON br.id = bf.benchmark_run_id
		 WHERE br.hardware_id = ?
		 GROUP BY bf.benchmark_type`, hardwareID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("counting benchmarks: %w", err)
	}
	defer rows.Close()

	counts := map[models.BenchmarkType]int{}
	var latest time.Time
	for rows.Next() {
		var (
			bt    string
			count int
			tsRaw string
		)
		if err := rows.Scan(&bt, &count, &tsRaw); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning counts: %w", err)
		}
		// MAX() strips the column's declared type, so the driver returns the
		// stored text instead of a time.Time; parse it back.
		ts, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", tsRaw)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning counts: %w", err)
		}
		counts[models.BenchmarkType(bt)] = count
		if ts.After(latest) {
			latest = ts
		}
	}
	return counts, latest, rows.Err()
}

// Stats reports database-level totals for the stats endpoint.
type Stats struct {
	CPUs           int                          `json:"cpus"`
	GPUs           int                          `json:"gpus"`
	TotalRuns      int                          `json:"total_runs"`
	BenchmarkFiles map[models.BenchmarkType]int `json:"benchmark_files"`
}

// GetStats computes the totals.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{BenchmarkFiles: map[models.BenchmarkType]int{}}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hardware WHERE type = 'cpu'`).Scan(&st.CPUs); err != nil {
		return nil, fmt.Errorf("counting cpus: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hardware WHERE type = 'gpu'`).Scan(&st.GPUs); err != nil {
		return nil, fmt.Errorf("counting gpus: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM benchmark_runs`).Scan(&st.TotalRuns); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}
	rows, err := s.db.Query(`SELECT benchmark_type, COUNT(*) FROM benchmark_files GROUP BY benchmark_type`)
	if err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bt    string
			count int
		)
		if err := rows.Scan(&bt, &count); err != nil {
			return nil, fmt.Errorf("scanning file counts: %w", err)
		}
		st.BenchmarkFiles[models.BenchmarkType(bt)] = count
	}
	return st, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHardware(row rowScanner) (*models.HardwareDevice, error) {
	var (
		dev       models.HardwareDevice
		devType   string
		cores     sql.NullInt64
		threads   sql.NullInt64
		framework sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&dev.ID, &dev.Name, &devType, &dev.Manufacturer, &cores, &threads, &framework, &dev.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning hardware: %w", err)
	}
	dev.Type = models.HardwareType(devType)
	if cores.Valid {
		n := int(cores.Int64)
		dev.Cores = &n
	}
	if threads.Valid {
		n := int(threads.Int64)
		dev.Threads = &n
	}
	if framework.Valid {
		dev.Framework = framework.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		dev.UpdatedAt = &t
	}
	return &dev, nil
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
