package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AuctionPulse/internal/domain/models"
	domrepo "AuctionPulse/internal/domain/repository"
	"AuctionPulse/internal/services/snapshot"
	pkgkafka "AuctionPulse/pkg/kafka"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

// KafkaSnapshotsHandler consumes raw snapshot batches, normalizes them
// and writes the result to the snapshot store. One message carries one
// (date, phase) batch.
type KafkaSnapshotsHandler struct {
	topic      string
	normalizer *snapshot.Normalizer
	store      domrepo.SnapshotStore
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

func NewKafkaSnapshotsHandler(
	topic string,
	normalizer *snapshot.Normalizer,
	store domrepo.SnapshotStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *KafkaSnapshotsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaSnapshotsHandler{topic: topic, normalizer: normalizer, store: store, metrics: metrics, l: l}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

// incoming message schema: {date, phase, rows:[{column: value, ...}]}
func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date  string          `json:"date"`
		Phase string          `json:"phase"`
		Rows  []models.RawRow `json:"rows"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("snapshots_unmarshal")
		return fmt.Errorf("unmarshal snapshot batch: %w", err)
	}

	phase := models.SessionPhase(m.Phase)
	if !phase.IsValid() {
		h.metrics.RecordError("snapshots_phase")
		return fmt.Errorf("unknown session phase %q", m.Phase)
	}
	date, ok := util.ParseDate(m.Date)
	if !ok {
		h.metrics.RecordError("snapshots_date")
		return fmt.Errorf("unparseable snapshot date %q", m.Date)
	}

	recs := h.normalizer.Normalize(m.Rows, phase)
	if len(recs) == 0 {
		h.l.Warn("snapshot batch normalized to zero rows",
			applogger.String("date", m.Date),
			applogger.String("phase", m.Phase),
			applogger.Int("raw_rows", len(m.Rows)),
		)
		return nil
	}

	start := time.Now()
	if err := h.store.StoreSnapshot(ctx, date, phase, recs); err != nil {
		h.metrics.RecordError("snapshots_store")
		return fmt.Errorf("store snapshot: %w", err)
	}
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	h.metrics.RecordRowsStored(m.Phase, len(recs))

	h.l.Info("snapshot batch stored",
		applogger.String("date", m.Date),
		applogger.String("phase", m.Phase),
		applogger.Int("rows", len(recs)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)

// KafkaLimitPoolHandler consumes prior-day limit pool batches.
type KafkaLimitPoolHandler struct {
	topic   string
	store   domrepo.SnapshotStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewKafkaLimitPoolHandler(topic string, store domrepo.SnapshotStore, metrics domrepo.Metrics, l *applogger.Logger) *KafkaLimitPoolHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaLimitPoolHandler{topic: topic, store: store, metrics: metrics, l: l}
}

func (h *KafkaLimitPoolHandler) Topic() string { return h.topic }

// incoming message schema: {date, entries:[{code, streak_days, status, reason}]}
func (h *KafkaLimitPoolHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date    string                  `json:"date"`
		Entries []models.LimitPoolEntry `json:"entries"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("limit_pool_unmarshal")
		return fmt.Errorf("unmarshal limit pool batch: %w", err)
	}
	date, ok := util.ParseDate(m.Date)
	if !ok {
		h.metrics.RecordError("limit_pool_date")
		return fmt.Errorf("unparseable limit pool date %q", m.Date)
	}

	// Codes may arrive bare; standardize to the prefixed form.
	entries := make([]models.LimitPoolEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if code, ok := snapshot.StandardizeCode(e.Code); ok {
			e.Code = code
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil
	}

	if err := h.store.StoreLimitPool(ctx, date, entries); err != nil {
		h.metrics.RecordError("limit_pool_store")
		return fmt.Errorf("store limit pool: %w", err)
	}
	h.l.Info("limit pool stored",
		applogger.String("date", m.Date),
		applogger.Int("entries", len(entries)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaLimitPoolHandler)(nil)

// KafkaConceptMembersHandler consumes full replacements of the static
// concept/industry membership metadata.
type KafkaConceptMembersHandler struct {
	topic   string
	store   domrepo.SnapshotStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewKafkaConceptMembersHandler(topic string, store domrepo.SnapshotStore, metrics domrepo.Metrics, l *applogger.Logger) *KafkaConceptMembersHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaConceptMembersHandler{topic: topic, store: store, metrics: metrics, l: l}
}

func (h *KafkaConceptMembersHandler) Topic() string { return h.topic }

// incoming message schema: {members:[{code, concepts, industry}]}
func (h *KafkaConceptMembersHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Members []struct {
			Code     string   `json:"code"`
			Concepts []string `json:"concepts"`
			Industry string   `json:"industry"`
		} `json:"members"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("concept_members_unmarshal")
		return fmt.Errorf("unmarshal concept members: %w", err)
	}

	members := make(map[string]models.ConceptInfo, len(m.Members))
	for _, e := range m.Members {
		code, ok := snapshot.StandardizeCode(e.Code)
		if !ok {
			continue
		}
		members[code] = models.ConceptInfo{Concepts: e.Concepts, Industry: e.Industry}
	}
	if len(members) == 0 {
		return nil
	}

	if err := h.store.StoreConceptMembers(ctx, members); err != nil {
		h.metrics.RecordError("concept_members_store")
		return fmt.Errorf("store concept members: %w", err)
	}
	h.l.Info("concept members stored", applogger.Int("instruments", len(members)))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaConceptMembersHandler)(nil)
