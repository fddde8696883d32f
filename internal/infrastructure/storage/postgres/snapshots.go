// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/domain/registers/stock"
)

// CompressionAlgo specifies the compression algorithm used for a snapshot.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// snapshotCompressThreshold is the payload size above which snapshots are
// stored zstd-compressed.
const snapshotCompressThreshold = 10 * 1024

// Snapshot is one archived pre-correction image of a journal entry.
type Snapshot struct {
	ID              id.ID           `db:"id"`
	MovementID      id.ID           `db:"movement_id"`
	Payload         json.RawMessage `db:"payload"`
	PayloadZstd     []byte          `db:"payload_zstd"`
	CompressionAlgo CompressionAlgo `db:"compression_algo"`
	CreatedAt       time.Time       `db:"created_at"`
}

// SnapshotStore archives pre-correction movement images inside the
// correction transaction, so the original figures survive even after the
// journal row is overwritten in place.
type SnapshotStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

var _ stock.SnapshotWriter = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot store with shared zstd codecs.
func NewSnapshotStore(txManager *TxManager) (*SnapshotStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &SnapshotStore{
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// WriteSnapshot stores the full entry as JSON, compressed when large.
func (s *SnapshotStore) WriteSnapshot(ctx context.Context, e entity.MovementEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	snap := Snapshot{
		ID:         id.New(),
		MovementID: e.ID,
		CreatedAt:  time.Now().UTC(),
	}
	s.pack(&snap, payload)

	sql := `
		INSERT INTO reg_movement_snapshots (
			id, movement_id, payload, payload_zstd, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		snap.ID, snap.MovementID,
		snap.Payload, snap.PayloadZstd, snap.CompressionAlgo,
		snap.CreatedAt,
	)
	return err
}

// History returns archived images for a movement, newest first.
func (s *SnapshotStore) History(ctx context.Context, movementID id.ID, limit int) ([]Snapshot, error) {
	sql := `
		SELECT id, movement_id, payload, payload_zstd, compression_algo, created_at
		FROM reg_movement_snapshots
		WHERE movement_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, movementID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		err := rows.Scan(
			&snap.ID, &snap.MovementID,
			&snap.Payload, &snap.PayloadZstd, &snap.CompressionAlgo,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		if err := s.unpack(&snap); err != nil {
			return nil, err
		}

		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// pack stores the payload as readable JSON, switching to zstd above the
// size threshold.
func (s *SnapshotStore) pack(snap *Snapshot, payload []byte) {
	snap.Payload = payload
	snap.CompressionAlgo = CompressionNone
	if len(payload) > snapshotCompressThreshold {
		snap.PayloadZstd = s.encoder.EncodeAll(payload, nil)
		snap.Payload = nil
		snap.CompressionAlgo = CompressionZstd
	}
}

// unpack restores a compressed payload in place.
func (s *SnapshotStore) unpack(snap *Snapshot) error {
	if snap.CompressionAlgo != CompressionZstd || len(snap.PayloadZstd) == 0 {
		return nil
	}
	decompressed, err := s.decoder.DecodeAll(snap.PayloadZstd, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	snap.Payload = decompressed
	snap.PayloadZstd = nil
	return nil
}
