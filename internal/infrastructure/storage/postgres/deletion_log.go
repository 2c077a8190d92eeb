package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/softdelete"
)

// LogAction represents the type of logged lifecycle transition.
type LogAction string

const (
	ActionSoftDelete LogAction = "soft_delete"
	ActionRestore    LogAction = "restore"
)

// Deletion reasons recorded alongside an entry.
const (
	ReasonUserRequest = "user_request"
	ReasonRetention   = "retention_cleanup"
	ReasonCascade     = "cascade"
)

// CompressionAlgo specifies the compression algorithm used for snapshots.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// LogEntry records one soft-delete or restore transition, with a JSON
// snapshot of the entity at that moment.
type LogEntry struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	Action             LogAction       `db:"action"`
	Reason             string          `db:"reason"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	OccurredAt         time.Time       `db:"occurred_at"`
}

// DeletionLog persists the trail of soft-delete/restore transitions.
// Large snapshots are zstd-compressed above a size threshold.
type DeletionLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes, default 10KB
}

// NewDeletionLog creates a deletion log store.
func NewDeletionLog(txManager *TxManager) (*DeletionLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &DeletionLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// prepare fills defaults and compresses the snapshot when it crosses the
// threshold. Split out from Record so the compression path is testable
// without a database.
func (l *DeletionLog) prepare(entry LogEntry) LogEntry {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Snapshot) > l.compressThreshold {
		entry.SnapshotCompressed = l.encoder.EncodeAll(entry.Snapshot, nil)
		entry.Snapshot = nil
		entry.CompressionAlgo = CompressionZstd
	}
	return entry
}

// decode restores the snapshot of a loaded entry.
func (l *DeletionLog) decode(entry LogEntry) (LogEntry, error) {
	if entry.CompressionAlgo == CompressionZstd && len(entry.SnapshotCompressed) > 0 {
		snapshot, err := l.decoder.DecodeAll(entry.SnapshotCompressed, nil)
		if err != nil {
			return entry, fmt.Errorf("decompress snapshot: %w", err)
		}
		entry.Snapshot = snapshot
		entry.SnapshotCompressed = nil
	}
	return entry, nil
}

// Record logs a lifecycle transition of e.
func (l *DeletionLog) Record(ctx context.Context, action LogAction, e entity.SoftDeletable, reason string) error {
	snapshot, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	entry := l.prepare(LogEntry{
		EntityType: e.EntityName(),
		EntityID:   e.EntityID(),
		Action:     action,
		Reason:     reason,
		Snapshot:   snapshot,
	})

	sql := `
		INSERT INTO sys_deletion_log (
			id, entity_type, entity_id, action, reason,
			snapshot, snapshot_compressed, compression_algo, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := l.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.Reason,
		entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo,
		entry.OccurredAt,
	)
	return err
}

// History retrieves the transition trail for an entity, newest first.
func (l *DeletionLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]LogEntry, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, reason,
			   snapshot, snapshot_compressed, compression_algo, occurred_at
		FROM sys_deletion_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at DESC
		LIMIT $3
	`

	rows, err := l.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query deletion log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Reason,
			&e.Snapshot, &e.SnapshotCompressed, &e.CompressionAlgo,
			&e.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if e, err = l.decode(e); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Hook returns an after hook that records the given action with reason.
// Install it on AfterSoftDelete/AfterRestore for the types to be trailed.
func (l *DeletionLog) Hook(action LogAction, reason string) softdelete.Hook {
	return func(ctx context.Context, e entity.SoftDeletable) error {
		return l.Record(ctx, action, e, reason)
	}
}
