package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joseph-bosch/quiz-app/internal/quiz"
)

// Record is one persisted attempt, newest-first in listings. The
// timestamp is assigned here, server-side, never by the client.
type Record struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	EmployeeNo string    `json:"employee_no,omitempty"`
	Department string    `json:"department,omitempty"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Passed     bool      `json:"passed"`
	Timestamp  time.Time `json:"timestamp"`
}

type ListOpts struct {
	Limit  int
	Offset int
}

// Store persists and lists attempts. It doubles as the engine's
// quiz.Recorder.
type Store interface {
	Record(ctx context.Context, r quiz.AttemptResult) error
	List(ctx context.Context, opts ListOpts) ([]Record, int, error)
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Record(ctx context.Context, r quiz.AttemptResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (name,score,total,pass,emp_num,department,timestamp)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.Name, r.Score, r.Total, r.Passed, r.EmployeeNo, r.Department, s.now().Unix())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Record, int, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,score,total,pass,emp_num,department,timestamp
		 FROM scores ORDER BY timestamp DESC, id DESC LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ts int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Score, &r.Total, &r.Passed, &r.EmployeeNo, &r.Department, &ts); err != nil {
			return nil, 0, err
		}
		r.Timestamp = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, total, rows.Err()
}
