package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AuctionPulse/internal/domain/models"
	domrepo "AuctionPulse/internal/domain/repository"
	pkgch "AuctionPulse/pkg/clickhouse"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

const (
	snapshotsTable = "auctionpulse.snapshots"
	limitPoolTable = "auctionpulse.limit_pool"
	conceptsTable  = "auctionpulse.concept_members"

	insertChunk = 2000
)

// Schema returns the idempotent DDL for the snapshot store. Row versions
// are resolved by ReplacingMergeTree: re-ingesting a (date, phase) batch
// wins over the previous one.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS auctionpulse`,
		`CREATE TABLE IF NOT EXISTS ` + snapshotsTable + ` (
            date Date,
            phase LowCardinality(String),
            code String,
            name String,
            price Float64,
            amount Float64,
            pct_change Float64,
            limit_up Float64,
            limit_down Float64,
            high Float64,
            prev_close Float64,
            st UInt8,
            ingested_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (date, phase, code)`,
		`CREATE TABLE IF NOT EXISTS ` + limitPoolTable + ` (
            date Date,
            code String,
            streak_days Int32,
            status LowCardinality(String),
            reason String,
            ingested_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (date, code)`,
		`CREATE TABLE IF NOT EXISTS ` + conceptsTable + ` (
            code String,
            concepts String,
            industry String,
            ingested_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY code`,
	}
}

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Snapshot(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error) {
	start := time.Now()
	const q = `
        SELECT code, name, price, amount, pct_change, limit_up, limit_down, high, prev_close, st
        FROM ` + snapshotsTable + ` FINAL
        WHERE date = ? AND phase = ?
        ORDER BY code ASC
    `
	rows, err := s.db.QueryContext(ctx, q, date.Format(util.DateLayout), string(phase))
	if err != nil {
		s.logErr("snapshot query error", date, phase, err)
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]models.InstrumentRecord, 0, 1024)
	for rows.Next() {
		var r models.InstrumentRecord
		var st uint8
		if err := rows.Scan(&r.Code, &r.Name, &r.Price, &r.Amount, &r.PctChange,
			&r.LimitUp, &r.LimitDown, &r.High, &r.PrevClose, &st); err != nil {
			s.logErr("snapshot scan error", date, phase, err)
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.ST = st != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.logErr("snapshot rows error", date, phase, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse snapshot ok",
			applogger.String("date", util.FormatDate(date)),
			applogger.String("phase", string(phase)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSnapshotStore) StoreSnapshot(ctx context.Context, date time.Time, phase models.SessionPhase, recs []models.InstrumentRecord) error {
	if len(recs) == 0 {
		return nil
	}
	day := date.Format(util.DateLayout)
	for start := 0; start < len(recs); start += insertChunk {
		end := start + insertChunk
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for i := start; i < end; i++ {
			r := &recs[i]
			if r.Code == "" {
				continue
			}
			st := uint8(0)
			if r.ST {
				st = 1
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				day, string(phase),
				r.Code, r.Name, r.Price, r.Amount, r.PctChange,
				r.LimitUp, r.LimitDown, r.High, r.PrevClose, st,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (date, phase, code, name, price, amount, pct_change, limit_up, limit_down, high, prev_close, st) VALUES %s",
			snapshotsTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}
	return nil
}

func (s *CHSnapshotStore) LimitPool(ctx context.Context, date time.Time) ([]models.LimitPoolEntry, error) {
	const q = `
        SELECT code, streak_days, status, reason
        FROM ` + limitPoolTable + ` FINAL
        WHERE date = ?
        ORDER BY code ASC
    `
	rows, err := s.db.QueryContext(ctx, q, date.Format(util.DateLayout))
	if err != nil {
		s.logErr("limit_pool query error", date, "", err)
		return nil, fmt.Errorf("get limit pool: %w", err)
	}
	defer rows.Close()

	var out []models.LimitPoolEntry
	for rows.Next() {
		var e models.LimitPoolEntry
		if err := rows.Scan(&e.Code, &e.StreakDays, &e.Status, &e.Reason); err != nil {
			s.logErr("limit_pool scan error", date, "", err)
			return nil, fmt.Errorf("scan limit pool row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *CHSnapshotStore) StoreLimitPool(ctx context.Context, date time.Time, entries []models.LimitPoolEntry) error {
	if len(entries) == 0 {
		return nil
	}
	day := date.Format(util.DateLayout)
	values := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*5)
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, day, e.Code, e.StreakDays, e.Status, e.Reason)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (date, code, streak_days, status, reason) VALUES %s",
		limitPoolTable, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store limit pool: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) ConceptMembers(ctx context.Context) (map[string]models.ConceptInfo, error) {
	const q = `SELECT code, concepts, industry FROM ` + conceptsTable + ` FINAL`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get concept members: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.ConceptInfo, 4096)
	for rows.Next() {
		var code, concepts, industry string
		if err := rows.Scan(&code, &concepts, &industry); err != nil {
			return nil, fmt.Errorf("scan concept row: %w", err)
		}
		out[code] = models.ConceptInfo{
			Concepts: models.SplitTags(concepts),
			Industry: industry,
		}
	}
	return out, rows.Err()
}

// StoreConceptMembers replaces the static membership metadata.
func (s *CHSnapshotStore) StoreConceptMembers(ctx context.Context, members map[string]models.ConceptInfo) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]string, 0, len(members))
	args := make([]interface{}, 0, len(members)*3)
	for code, info := range members {
		values = append(values, "(?, ?, ?)")
		args = append(args, code, strings.Join(info.Concepts, ";"), info.Industry)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (code, concepts, industry) VALUES %s",
		conceptsTable, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store concept members: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

func (s *CHSnapshotStore) logErr(msg string, date time.Time, phase models.SessionPhase, err error) {
	if s.l == nil {
		return
	}
	fields := []applogger.Field{
		applogger.String("date", util.FormatDate(date)),
		applogger.Error(err),
	}
	if phase != "" {
		fields = append(fields, applogger.String("phase", string(phase)))
	}
	s.l.Error(msg, fields...)
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
