package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// New creates the storage backend named by storageType.
// "none" and the empty string return a nil Storage.
func New(storageType StorageType, basePath string) (Storage, error) {
	switch storageType {
	case StorageTypeLocal:
		return NewLocalStorage(basePath)
	case StorageTypeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", storageType)
	}
}

// ComputeChecksum computes the sha256 checksum of content
func ComputeChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// BuildSampleKey builds the key of an archived raw sample
func BuildSampleKey(checksum string, receivedAt time.Time) string {
	return fmt.Sprintf("samples/%s/%s", receivedAt.UTC().Format("2006-01-02"), checksum)
}

// BuildReportKey builds the key of the inference report stored for a sample
func BuildReportKey(checksum string) string {
	return fmt.Sprintf("reports/%s.json", checksum)
}

// ArchiveSample stores a raw sample and its report.
// Samples already archived under the same checksum are not rewritten.
func ArchiveSample(ctx context.Context, s Storage, raw []byte, report any, metadata Metadata) (string, error) {
	checksum := ComputeChecksum(raw)
	if metadata.ReceivedAt.IsZero() {
		metadata.ReceivedAt = time.Now()
	}

	reportKey := BuildReportKey(checksum)
	exists, err := s.Exists(ctx, reportKey)
	if err != nil {
		return "", err
	}
	if exists {
		log.Debug().Str("checksum", checksum).Msg("Sample already archived")
		return checksum, nil
	}

	if err := s.Put(ctx, BuildSampleKey(checksum, metadata.ReceivedAt), raw, &metadata); err != nil {
		return "", fmt.Errorf("archive sample: %w", err)
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := s.Put(ctx, reportKey, body, &Metadata{ContentType: "application/json", ReceivedAt: metadata.ReceivedAt}); err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}

	log.Debug().Str("checksum", checksum).Int("bytes", len(raw)).Msg("Archived sample")
	return checksum, nil
}
