// Package importer packages generated batches as raw CSV imports: it uploads
// the payload to the object store and announces its availability on the bus.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/etrm-io/backoffice/internal/contracts"
	"github.com/etrm-io/backoffice/internal/generator"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// Importer publishes raw CSV payloads. Each Import call performs exactly one
// object-store write followed by exactly one bus publish. The two are not
// transactional: a crash in between leaves an orphaned object that no
// announcement ever references, which downstream tolerates. The converse
// order would not be safe, so the upload always happens first.
type Importer struct {
	store  contracts.ObjectStore
	pub    contracts.Publisher
	bucket string
	log    *logger.Logger

	newImportID func() string
}

// New creates an Importer writing to the given bucket.
func New(store contracts.ObjectStore, pub contracts.Publisher, bucket string, log *logger.Logger) *Importer {
	return &Importer{
		store:       store,
		pub:         pub,
		bucket:      bucket,
		log:         log,
		newImportID: uuid.NewString,
	}
}

// Import stores csvData under a deterministic date-partitioned key and
// publishes a RawImportedEvent announcing it.
func (im *Importer) Import(ctx context.Context, csvData string, fileType string, timestamp time.Time) (*contracts.RawImportedEvent, error) {
	importID := im.newImportID()
	ts := timestamp.UTC()

	stem := strings.TrimSuffix(fileType, ".csv")
	fileName := fmt.Sprintf("%s-%s.csv", stem, ts.Format("20060102-150405"))
	objectKey := fmt.Sprintf("imports/%s/%s/%s", ts.Format("2006/01/02"), importID, fileName)

	im.log.WithFields(map[string]interface{}{
		"fileType": fileType,
		"importId": importID,
	}).Info("importing generated data")

	payload := []byte(csvData)
	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])

	if err := im.store.Put(ctx, objectKey, payload, "text/csv"); err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectKey, err)
	}

	event := &contracts.RawImportedEvent{
		EventType:  contracts.EventTypeRawImported,
		ImportID:   importID,
		Bucket:     im.bucket,
		ObjectKey:  objectKey,
		FileType:   fileType,
		Format:     "csv",
		Checksum:   checksum,
		SizeBytes:  int64(len(payload)),
		ImportedAt: ts,
		Metadata: map[string]string{
			"sourceSystem":     generator.SourceSystem,
			"originalFileName": fileName,
			"generatedData":    "true",
		},
	}

	if err := im.pub.Publish(ctx, contracts.SubjectRawImported, event); err != nil {
		return nil, fmt.Errorf("publish import event %s: %w", importID, err)
	}

	im.log.WithFields(map[string]interface{}{
		"fileType": fileType,
		"importId": importID,
		"bytes":    event.SizeBytes,
	}).Info("published import event")

	return event, nil
}
