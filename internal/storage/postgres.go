package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresDB stores finished backtest runs as jsonb, keyed by a uuid run id.
type PostgresDB struct {
	db *sql.DB
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresDB{db: db}, nil
}

func (p *PostgresDB) Close() {
	p.db.Close()
}

func (p *PostgresDB) Init() error {
	return p.CreateResultTable()
}

func (p *PostgresDB) CreateResultTable() error {
	_, err := p.db.Exec("CREATE SCHEMA IF NOT EXISTS quantdash")
	if err != nil {
		return err
	}

	query := `CREATE TABLE IF NOT EXISTS quantdash.backtest_result (
		id UUID PRIMARY KEY,
		symbol VARCHAR(12) NOT NULL,
		strategy TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		metrics JSONB NOT NULL
	);`

	_, err = p.db.Exec(query)
	return err
}

// SaveResult persists one run and returns its generated run id.
func (p *PostgresDB) SaveResult(ctx context.Context, symbol string, res *models.Result) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	query := `
        INSERT INTO quantdash.backtest_result (id, symbol, strategy, metrics)
        VALUES ($1, $2, $3, $4)`

	_, err = p.db.ExecContext(ctx, query,
		id,
		models.NormalizeSymbol(symbol),
		res.Strategy,
		payload,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetResult loads a persisted run by id.
func (p *PostgresDB) GetResult(ctx context.Context, id string) (*models.Result, error) {
	query := `SELECT metrics FROM quantdash.backtest_result WHERE id = $1`

	var payload []byte
	err := p.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &models.Result{}
	if err := json.Unmarshal(payload, res); err != nil {
		return nil, err
	}
	return res, nil
}
