// Package recordstore persists issued coupon records in a DuckDB file so
// large print runs do not have to be held in memory or re-uploaded per
// render request.
package recordstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
)

// DuckStore stores coupon records in a DuckDB file.
type DuckStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	count  int
}

// NewDuckStore creates a record store in the given data directory.
func NewDuckStore(dataDir string) (*DuckStore, error) {
	return NewDuckStoreAtPath(filepath.Join(dataDir, "coupon_records.duckdb"))
}

// NewDuckStoreAtPath creates a record store at a specific path.
func NewDuckStoreAtPath(dbPath string) (*DuckStore, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id          VARCHAR PRIMARY KEY,
			name        VARCHAR NOT NULL,
			emp_id      VARCHAR NOT NULL,
			issue_date  VARCHAR NOT NULL,
			valid_till  VARCHAR,
			amount      BIGINT NOT NULL,
			serial      VARCHAR NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records table: %w", err)
	}

	store := &DuckStore{db: db, dbPath: dbPath}

	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&store.count); err != nil {
		db.Close()
		return nil, fmt.Errorf("counting records: %w", err)
	}

	return store, nil
}

// Insert stores records, assigning ids and serial codes where missing,
// and returns the stored rows.
func (ds *DuckStore) Insert(records []models.CouponRecord) ([]models.CouponRecord, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	tx, err := ds.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO records (id, name, emp_id, issue_date, valid_till, amount, serial, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	out := make([]models.CouponRecord, 0, len(records))
	now := time.Now()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Serial == "" {
			r.Serial = fmt.Sprintf("CPN-%s-%s", now.Format("2006"), r.ID[:8])
		}
		r.CreatedAt = now

		if _, err := stmt.Exec(r.ID, r.Name, r.EmployeeID, r.IssueDate, r.ValidTill, r.Amount, r.Serial, r.CreatedAt); err != nil {
			return nil, fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
		out = append(out, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}

	ds.count += len(out)
	return out, nil
}

// List returns records in insertion order, paginated.
func (ds *DuckStore) List(ctx context.Context, page, pageSize int) ([]models.CouponRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	rows, err := ds.db.QueryContext(ctx, `
		SELECT id, name, emp_id, issue_date, valid_till, amount, serial, created_at
		FROM records
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}

	ds.mu.Lock()
	total := ds.count
	ds.mu.Unlock()
	return records, total, nil
}

// GetByIDs returns the records with the given ids, preserving the
// requested order. Unknown ids are skipped.
func (ds *DuckStore) GetByIDs(ctx context.Context, ids []string) ([]models.CouponRecord, error) {
	if len(ids) == 0 {
		return []models.CouponRecord{}, nil
	}

	byID := make(map[string]models.CouponRecord, len(ids))
	for _, id := range ids {
		row := ds.db.QueryRowContext(ctx, `
			SELECT id, name, emp_id, issue_date, valid_till, amount, serial, created_at
			FROM records WHERE id = ?
		`, id)
		r, err := scanRecord(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("querying record %s: %w", id, err)
		}
		byID[id] = r
	}

	out := make([]models.CouponRecord, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindBySerial looks up one record by its serial code. A missing serial
// returns (nil, nil); the error return is for query failures only.
func (ds *DuckStore) FindBySerial(ctx context.Context, serial string) (*models.CouponRecord, error) {
	row := ds.db.QueryRowContext(ctx, `
		SELECT id, name, emp_id, issue_date, valid_till, amount, serial, created_at
		FROM records WHERE serial = ?
	`, serial)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying serial %s: %w", serial, err)
	}
	return &r, nil
}

// Len returns the number of stored records.
func (ds *DuckStore) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.count
}

// Close releases the database.
func (ds *DuckStore) Close() error {
	return ds.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.CouponRecord, error) {
	var r models.CouponRecord
	var validTill sql.NullString
	err := row.Scan(&r.ID, &r.Name, &r.EmployeeID, &r.IssueDate, &validTill, &r.Amount, &r.Serial, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.ValidTill = validTill.String
	return r, nil
}

func scanRecords(rows *sql.Rows) ([]models.CouponRecord, error) {
	records := make([]models.CouponRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
