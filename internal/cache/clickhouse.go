package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

// ClickHouseConfig holds connection settings for ClickHouse
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore is the append-only farm action history
type ClickHouseStore struct {
	conn     driver.Conn
	database string
	logger   *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Database == "" {
		cfg.Database = "farm"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, database: cfg.Database, logger: logger}, nil
}

// Conn exposes the connection for read-only analytics queries
func (c *ClickHouseStore) Conn() driver.Conn { return c.conn }

// EnsureSchema creates the action history table if it does not exist
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.farm_actions (
			id          String,
			timestamp   DateTime64(3, 'UTC'),
			farm_id     LowCardinality(String),
			farm        String,
			action      LowCardinality(String),
			owner       String,
			status      LowCardinality(String),
			amount_a    Decimal(38, 18),
			amount_b    Decimal(38, 18),
			amount      Decimal(38, 18),
			signatures  Array(String),
			error       String,
			duration_ms Int64
		) ENGINE = MergeTree
		ORDER BY (farm_id, timestamp)
	`, c.database)

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create farm_actions: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertAction(ctx context.Context, ev *models.FarmActionEvent) error {
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO farm_actions")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}

	sigs := ev.Signatures
	if sigs == nil {
		sigs = []string{}
	}

	if err := batch.Append(
		ev.ID,
		ev.Timestamp,
		ev.FarmID,
		ev.Farm,
		ev.Action,
		ev.Owner,
		ev.Status,
		ev.AmountA,
		ev.AmountB,
		ev.Amount,
		sigs,
		ev.Error,
		ev.DurationMS,
	); err != nil {
		return fmt.Errorf("append action: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// FarmHistory returns the latest actions for one farm, newest first
func (c *ClickHouseStore) FarmHistory(ctx context.Context, farmID string, limit int) ([]*models.FarmActionEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := c.conn.Query(ctx, `
		SELECT id, timestamp, farm_id, farm, action, owner, status,
		       amount_a, amount_b, amount, signatures, error, duration_ms
		FROM farm_actions
		WHERE farm_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`, farmID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*models.FarmActionEvent
	for rows.Next() {
		var ev models.FarmActionEvent
		if err := rows.Scan(
			&ev.ID, &ev.Timestamp, &ev.FarmID, &ev.Farm, &ev.Action, &ev.Owner, &ev.Status,
			&ev.AmountA, &ev.AmountB, &ev.Amount, &ev.Signatures, &ev.Error, &ev.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
