package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/database"
)

// SQLStore keeps documents in the documents table of a relational database.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a store over an initialised, migrated database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, path string) (Document, error) {
	return getDocument(ctx, s.db, path, "")
}

func (s *SQLStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	return setDocument(ctx, s.db, path, data)
}

func (s *SQLStore) Merge(ctx context.Context, path string, data map[string]interface{}) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Txn) error {
		current, err := tx.Get(ctx, path)
		if err != nil && !IsNotFound(err) {
			return err
		}
		return tx.Set(ctx, path, merge(current.Data, data))
	})
}

func (s *SQLStore) Delete(ctx context.Context, path string) error {
	return deleteDocument(ctx, s.db, path)
}

func (s *SQLStore) Query(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filterByField(docs, field, value), nil
}

func (s *SQLStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, data FROM documents WHERE collection = ? ORDER BY path", collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

func (s *SQLStore) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, data FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return scanDocuments(rows)
}

// RunTransaction runs fn inside a database transaction. Reads inside the
// transaction lock the rows they touch where the dialect supports it.
func (s *SQLStore) RunTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, s.db.Dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &sqlTxn{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlTxn struct {
	tx *database.Tx
}

func (t *sqlTxn) Get(ctx context.Context, path string) (Document, error) {
	return getDocument(ctx, t.tx, path, t.tx.GetDialect().LockClause())
}

func (t *sqlTxn) Set(ctx context.Context, path string, data map[string]interface{}) error {
	return setDocument(ctx, t.tx, path, data)
}

func (t *sqlTxn) Delete(ctx context.Context, path string) error {
	return deleteDocument(ctx, t.tx, path)
}

func getDocument(ctx context.Context, q database.DBTX, path, lockClause string) (Document, error) {
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}

	var raw string
	err := q.QueryRowContext(ctx, "SELECT data FROM documents WHERE path = ?"+lockClause, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}

	data, err := decode([]byte(raw))
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return Document{Path: path, Data: data}, nil
}

func setDocument(ctx context.Context, q database.DBTX, path string, data map[string]interface{}) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, q.GetDialect().UpsertDocumentQuery(),
		path, CollectionOf(path), string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func deleteDocument(ctx context.Context, q database.DBTX, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		data, err := decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, Document{Path: path, Data: data})
	}
	return docs, rows.Err()
}
