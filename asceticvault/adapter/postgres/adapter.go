package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

const DefaultTable = "secret_documents"

// Querier is satisfied by a pool, a connection and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions, such as *pgxpool.Pool.
type DB interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Adapter keeps documents in one table of (keyspace, id, body). The body is
// a json column, so field order survives the round trip.
type Adapter struct {
	db     DB
	table  string
	log    logger.Logger
	closer func()
}

var _ adapter.KeyValueAdapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithTable(table string) Option {
	return func(a *Adapter) {
		a.table = table
	}
}

func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

func New(db DB, opts ...Option) *Adapter {
	a := &Adapter{
		db:     db,
		table:  DefaultTable,
		log:    logger.NewNop(),
		closer: func() {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Connect opens a pool for dsn. The adapter closes the pool on Close.
func Connect(ctx context.Context, dsn string, maxConns int32, connectTimeout time.Duration, opts ...Option) (*Adapter, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse postgres dsn")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create postgres pool")
	}
	a := New(pool, opts...)
	a.closer = pool.Close
	return a, nil
}

func (a *Adapter) ident() string {
	return pgx.Identifier{a.table}.Sanitize()
}

// EnsureSchema creates the document table when it does not exist.
func (a *Adapter) EnsureSchema(ctx context.Context) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	keyspace text NOT NULL,
	id text NOT NULL,
	body json NOT NULL,
	PRIMARY KEY (keyspace, id)
)`, a.ident())
	if _, err := a.db.Exec(ctx, sql); err != nil {
		return errors.Wrapf(err, "unable to create table %s", a.table)
	}
	return nil
}

// Atomic runs callback in a transaction, rolling back when it fails.
func (a *Adapter) Atomic(ctx context.Context, opts pgx.TxOptions, callback func(Querier) error) error {
	tx, err := a.db.BeginTx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}
	if err := callback(tx); err != nil {
		if txErr := tx.Rollback(ctx); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (a *Adapter) Put(ctx context.Context, keyspace mapping.Keyspace, doc *document.SecretDocument) error {
	id, err := adapter.RequireID(doc)
	if err != nil {
		return err
	}
	body, err := doc.Body().MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "unable to encode %s/%s", keyspace, id)
	}
	sql := fmt.Sprintf(`INSERT INTO %s (keyspace, id, body) VALUES ($1, $2, $3)
ON CONFLICT (keyspace, id) DO UPDATE SET body = EXCLUDED.body`, a.ident())
	if _, err := a.db.Exec(ctx, sql, keyspace.String(), id, string(body)); err != nil {
		return errors.Wrapf(err, "unable to store %s/%s", keyspace, id)
	}
	log := a.log.WithContext(ctx)
	log.Debug().Str("keyspace", keyspace.String()).Str("id", id).Msg("document stored")
	return nil
}

func (a *Adapter) Get(ctx context.Context, keyspace mapping.Keyspace, id string) (*document.SecretDocument, error) {
	return a.loader(a.db).Get(ctx, keyspace, id)
}

func (a *Adapter) Contains(ctx context.Context, keyspace mapping.Keyspace, id string) (bool, error) {
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE keyspace = $1 AND id = $2)`, a.ident())
	var exists bool
	if err := a.db.QueryRow(ctx, sql, keyspace.String(), id).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "unable to check %s/%s", keyspace, id)
	}
	return exists, nil
}

func (a *Adapter) Delete(ctx context.Context, keyspace mapping.Keyspace, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE keyspace = $1 AND id = $2`, a.ident())
	tag, err := a.db.Exec(ctx, sql, keyspace.String(), id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete %s/%s", keyspace, id)
	}
	if tag.RowsAffected() == 0 {
		return adapter.ErrDocumentNotFound
	}
	return nil
}

func (a *Adapter) DeleteAllOf(ctx context.Context, keyspace mapping.Keyspace) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE keyspace = $1`, a.ident())
	tag, err := a.db.Exec(ctx, sql, keyspace.String())
	if err != nil {
		return errors.Wrapf(err, "unable to delete keyspace %s", keyspace)
	}
	log := a.log.WithContext(ctx)
	log.Debug().Str("keyspace", keyspace.String()).Int64("deleted", tag.RowsAffected()).Msg("keyspace cleared")
	return nil
}

func (a *Adapter) Keys(ctx context.Context, keyspace mapping.Keyspace) ([]string, error) {
	return a.loader(a.db).Keys(ctx, keyspace)
}

// Find lists, filters and loads inside one read-only repeatable-read
// transaction, so the result reflects a single snapshot.
func (a *Adapter) Find(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) ([]*document.SecretDocument, error) {
	var docs []*document.SecretDocument
	err := a.Atomic(ctx, snapshot, func(tx Querier) error {
		var err error
		docs, err = adapter.Execute(ctx, a.loader(tx), keyspace, q)
		return err
	})
	return docs, err
}

func (a *Adapter) Count(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) (int, error) {
	return adapter.CountMatching(ctx, a.loader(a.db), keyspace, q)
}

func (a *Adapter) Close() error {
	a.closer()
	return nil
}

var snapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type loader struct {
	q     Querier
	ident string
}

func (a *Adapter) loader(q Querier) loader {
	return loader{q: q, ident: a.ident()}
}

func (l loader) Keys(ctx context.Context, keyspace mapping.Keyspace) ([]string, error) {
	sql := fmt.Sprintf(`SELECT id FROM %s WHERE keyspace = $1 ORDER BY id`, l.ident)
	rows, err := l.q.Query(ctx, sql, keyspace.String())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", keyspace)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", keyspace)
	}
	return keys, nil
}

func (l loader) Get(ctx context.Context, keyspace mapping.Keyspace, id string) (*document.SecretDocument, error) {
	sql := fmt.Sprintf(`SELECT body FROM %s WHERE keyspace = $1 AND id = $2`, l.ident)
	var raw []byte
	err := l.q.QueryRow(ctx, sql, keyspace.String(), id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, adapter.ErrDocumentNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s/%s", keyspace, id)
	}
	body := orderedmap.New[string, any]()
	if err := body.UnmarshalJSON(raw); err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s/%s", keyspace, id)
	}
	return document.NewWithBody(option.Some(id), body)
}
