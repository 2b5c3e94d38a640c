package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ChangeChannel is the NOTIFY channel fed by the documents trigger; the payload is the collection path.
const ChangeChannel = "documents_changed"

// Schema creates the documents table and its change trigger.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops);

CREATE OR REPLACE FUNCTION notify_documents_changed() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('documents_changed', COALESCE(NEW.collection, OLD.collection));
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS documents_changed ON documents;
CREATE TRIGGER documents_changed AFTER INSERT OR UPDATE OR DELETE ON documents
    FOR EACH ROW EXECUTE FUNCTION notify_documents_changed();
`

// Postgres stores documents as JSONB rows keyed by (collection, id).
type Postgres struct {
	db           *sqlx.DB
	dsn          string
	pollInterval time.Duration
	logger       *zap.Logger
}

// PostgresOption customises the Postgres adapter.
type PostgresOption func(*Postgres)

// WithListener enables LISTEN/NOTIFY based watches using a dedicated connection to dsn.
func WithListener(dsn string) PostgresOption {
	return func(p *Postgres) { p.dsn = dsn }
}

// WithPollInterval sets the refresh period used by watches when no listener is configured.
func WithPollInterval(d time.Duration) PostgresOption {
	return func(p *Postgres) { p.pollInterval = d }
}

// WithLogger attaches a logger for watch diagnostics.
func WithLogger(l *zap.Logger) PostgresOption {
	return func(p *Postgres) { p.logger = l }
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, pollInterval: 5 * time.Second, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row documentRow
	const query = `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	if err := p.db.GetContext(ctx, &row, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return decodeRow(collection, row)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, data Data, merge bool) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	update := "EXCLUDED.data"
	if merge {
		update = "documents.data || EXCLUDED.data"
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data = ` + update + `, updated_at = NOW()`
	if _, err := p.db.ExecContext(ctx, query, collection, id, payload); err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Add(ctx context.Context, collection string, data Data) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id := uuid.NewString()
	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	if _, err := p.db.ExecContext(ctx, query, collection, id, payload); err != nil {
		return "", fmt.Errorf("add document to %s: %w", collection, err)
	}
	return id, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	res, err := p.db.ExecContext(ctx, query, collection, id, payload)
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := p.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(q.Collection, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Watch uses LISTEN/NOTIFY when a listener DSN is configured and falls back to polling otherwise.
func (p *Postgres) Watch(ctx context.Context, q Query, fn func([]Document)) (func(), error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	var listener *pq.Listener
	if p.dsn != "" {
		listener = pq.NewListener(p.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				p.logger.Warn("document listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
		if err := listener.Listen(ChangeChannel); err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("listen %s: %w", ChangeChannel, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	refresh := func() {
		docs, err := p.Query(ctx, q)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("watch refresh failed", zap.String("collection", q.Collection), zap.Error(err))
			}
			return
		}
		fn(docs)
	}

	go func() {
		defer close(done)
		if listener != nil {
			defer listener.Close()
		}
		refresh()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		var notify <-chan *pq.Notification
		if listener != nil {
			notify = listener.Notify
		}
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-notify:
				// nil after a reconnect: changes may have been missed.
				if n == nil || n.Extra == q.Collection {
					refresh()
				}
			case <-ticker.C:
				if listener != nil {
					_ = listener.Ping()
					continue
				}
				refresh()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func buildSelect(q Query) (string, []interface{}, error) {
	var sb strings.Builder
	args := []interface{}{q.Collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual:
			payload, err := json.Marshal(map[string]interface{}{f.Field: f.Value})
			if err != nil {
				return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
			}
			sb.WriteString(" AND data @> " + next(string(payload)) + "::jsonb")
		case OpGTE, OpLT:
			value, ok := f.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("docstore: range filter on %s requires a string bound", f.Field)
			}
			field := next(f.Field)
			sb.WriteString(" AND (data->>" + field + `) COLLATE "C" ` + string(f.Op) + " " + next(value))
		}
	}

	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY (data->>" + next(q.OrderBy) + `) COLLATE "C", id`)
	} else {
		sb.WriteString(" ORDER BY id")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + next(q.Limit))
	}
	return sb.String(), args, nil
}

func decodeRow(collection string, row documentRow) (*Document, error) {
	data := Data{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", collection, row.ID, err)
		}
	}
	return &Document{ID: row.ID, Collection: collection, Data: data}, nil
}

var _ Store = (*Postgres)(nil)
