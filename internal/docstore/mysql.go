package docstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Schema creates the single table every collection is stored in. The
// composite primary key is what makes Create fail on a taken key.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
    collection VARCHAR(64)  NOT NULL,
    id         VARCHAR(191) NOT NULL,
    body       JSON         NOT NULL,
    created_at DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    updated_at DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
    PRIMARY KEY (collection, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// dbtx is the subset of *sql.DB and *sql.Tx used by the queries below.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore stores documents as JSON rows in MySQL (InnoDB).
type MySQLStore struct {
	db *sql.DB
	mysqlQuerier
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, mysqlQuerier: mysqlQuerier{x: db}}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// maxTxAttempts bounds how often a transaction chosen as a deadlock victim
// is replayed.
const maxTxAttempts = 3

// RunInTx runs fn in a transaction. Reads made through the tx handle take
// row locks (SELECT ... FOR UPDATE) that are held until commit. Locking a
// missing row takes a gap lock, so two transactions creating the same key
// can deadlock; the victim is rolled back and fn runs again, where it sees
// the winner's row. fn must therefore be safe to repeat.
func (s *MySQLStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !isDeadlock(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *MySQLStore) runOnce(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, mysqlQuerier{x: tx, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type mysqlQuerier struct {
	x    dbtx
	lock bool
}

func (q mysqlQuerier) suffix() string {
	if q.lock {
		return " FOR UPDATE"
	}
	return ""
}

func (q mysqlQuerier) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var body []byte
	err := q.x.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?"+q.suffix(),
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (q mysqlQuerier) Create(ctx context.Context, collection, id string, body []byte) error {
	_, err := q.x.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)",
		collection, id, body)
	if isDuplicateKey(err) {
		return ErrExists
	}
	return err
}

func (q mysqlQuerier) Put(ctx context.Context, collection, id string, body []byte) error {
	_, err := q.x.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE body = VALUES(body)",
		collection, id, body)
	return err
}

func (q mysqlQuerier) Delete(ctx context.Context, collection, id string) error {
	res, err := q.x.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q mysqlQuerier) Find(ctx context.Context, collection string, where ...Where) ([]Document, error) {
	if err := validateWhere(where); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT id, body FROM documents WHERE collection = ?")
	args := make([]any, 0, 1+2*len(where))
	args = append(args, collection)
	for _, w := range where {
		sb.WriteString(" AND JSON_UNQUOTE(JSON_EXTRACT(body, ?)) = ?")
		args = append(args, "$."+w.Field, w.Value)
	}
	sb.WriteString(" ORDER BY created_at, id")
	sb.WriteString(q.suffix())

	rows, err := q.x.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Body); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isDeadlock reports InnoDB error 1213 (ER_LOCK_DEADLOCK).
func isDeadlock(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1213
}
