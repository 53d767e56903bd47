package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/AkioHamamura/QuantDash/internal/models"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// TimescaleDB caches daily candles in a hypertable keyed by symbol and day.
type TimescaleDB struct {
	db *sql.DB
}

func NewTimescaleDB(dsn string) (*TimescaleDB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &TimescaleDB{db: db}, nil
}

func (ts *TimescaleDB) Close() {
	ts.db.Close()
}

func (ts *TimescaleDB) Init() error {
	if err := ts.CreateSchema(); err != nil {
		return err
	}
	return ts.CreateCandleTable()
}

func (ts *TimescaleDB) CreateSchema() error {
	_, err := ts.db.Exec("CREATE SCHEMA IF NOT EXISTS quantdash")
	return err
}

func (ts *TimescaleDB) CreateCandleTable() error {
	tableQuery := `CREATE TABLE IF NOT EXISTS quantdash.candle (
        symbol TEXT NOT NULL,
        day TIMESTAMPTZ NOT NULL,
        open FLOAT NOT NULL,
        high FLOAT NOT NULL,
        low FLOAT NOT NULL,
        close FLOAT NOT NULL,
        volume BIGINT NOT NULL,
        UNIQUE (symbol, day)
    );`

	// Convert to a hypertable on first run only.
	hypertableQuery := `
    DO $$
    BEGIN
        IF NOT EXISTS (SELECT * FROM timescaledb_information.hypertables WHERE hypertable_schema = 'quantdash' AND hypertable_name = 'candle') THEN
            PERFORM create_hypertable('quantdash.candle', 'day');
        END IF;
    END $$;`

	if _, err := ts.db.Exec(tableQuery); err != nil {
		return err
	}
	if _, err := ts.db.Exec(hypertableQuery); err != nil {
		return err
	}
	return nil
}

// SaveCandles replaces the symbol's cached rows in the covered date range
// and bulk-loads the new ones over the pgx wire protocol.
func (ts *TimescaleDB) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	symbol = models.NormalizeSymbol(symbol)

	rows := make([][]any, len(candles))
	for i, c := range candles {
		rows[i] = []any{symbol, c.Date, c.Open, c.High, c.Low, c.Close, c.Volume}
	}

	conn, err := ts.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		pgConn := driverConn.(*stdlib.Conn).Conn()

		_, err := pgConn.Exec(ctx,
			`DELETE FROM quantdash.candle WHERE symbol = $1 AND day BETWEEN $2 AND $3`,
			symbol, candles[0].Date, candles[len(candles)-1].Date,
		)
		if err != nil {
			return err
		}

		_, err = pgConn.CopyFrom(ctx,
			pgx.Identifier{"quantdash", "candle"},
			[]string{"symbol", "day", "open", "high", "low", "close", "volume"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
}

// FetchCandles returns the cached rows for a symbol between start and end
// inclusive, oldest first.
func (ts *TimescaleDB) FetchCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	query := `SELECT day, open, high, low, close, volume
        FROM quantdash.candle
        WHERE symbol = $1 AND day BETWEEN $2 AND $3
        ORDER BY day ASC`

	rows, err := ts.db.QueryContext(ctx, query, models.NormalizeSymbol(symbol), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		candles []models.Candle
		day     = pgtype.Timestamptz{}
		open    = pgtype.Float8{}
		high    = pgtype.Float8{}
		low     = pgtype.Float8{}
		cloze   = pgtype.Float8{}
		volume  = pgtype.Int8{}
	)
	for rows.Next() {
		if err := rows.Scan(&day, &open, &high, &low, &cloze, &volume); err != nil {
			return nil, err
		}
		candles = append(candles, models.Candle{
			Date:   day.Time,
			Open:   open.Float,
			High:   high.Float,
			Low:    low.Float,
			Close:  cloze.Float,
			Volume: volume.Int,
		})
	}
	return candles, rows.Err()
}
