package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"LunarPulse/internal/domain/models"
	pkgch "LunarPulse/pkg/clickhouse"
	applogger "LunarPulse/pkg/logger"
)

// SignalSchema holds idempotent DDL for the signals table.
var SignalSchema = []string{
	`CREATE DATABASE IF NOT EXISTS lunarpulse`,
	`CREATE TABLE IF NOT EXISTS lunarpulse.signals (
        produced_at DateTime64(3),
        symbol      LowCardinality(String),
        strategy    LowCardinality(String),
        side        LowCardinality(String),
        signal      String,
        payload     String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(produced_at)
    ORDER BY (symbol, strategy, produced_at)
    TTL toDateTime(produced_at) + INTERVAL 180 DAY`,
}

// CHSignalStore persists emitted signals in ClickHouse and serves reads
// for the HTTP API. It implements both Sink and SignalStore.
type CHSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB(), table: "lunarpulse.signals"}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Publish(ctx context.Context, rec *models.SignalRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (produced_at, symbol, strategy, side, signal, payload) VALUES (?, ?, ?, ?, ?, ?)",
		s.table,
	)
	if _, err := s.db.ExecContext(ctx, q,
		rec.ProducedAt, rec.Symbol, rec.Strategy, string(rec.Side), rec.Signal, string(payload),
	); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse signal insert error",
				applogger.String("symbol", rec.Symbol),
				applogger.String("strategy", rec.Strategy),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Query(ctx context.Context, symbol, strategy string, from, to time.Time, limit int) ([]*models.SignalRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT produced_at, symbol, strategy, side, signal, payload
        FROM %s
        WHERE symbol = ? AND produced_at >= ? AND produced_at <= ?`, s.table)
	args := []interface{}{symbol, from, to}
	if strategy != "" {
		q += " AND strategy = ?"
		args = append(args, strategy)
	}
	q += " ORDER BY produced_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse signal query error",
				applogger.String("symbol", symbol),
				applogger.String("strategy", strategy),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SignalRecord, 0, limit)
	for rows.Next() {
		var rec models.SignalRecord
		var side, payload string
		if err := rows.Scan(&rec.ProducedAt, &rec.Symbol, &rec.Strategy, &side, &rec.Signal, &payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.Side = models.Side(side)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse signal query ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}
