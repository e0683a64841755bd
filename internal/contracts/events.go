package contracts

import "time"

// NATS subjects used by the pipeline.
const (
	SubjectRawImported      = "etrm.raw.imported"
	SubjectTradesPersisted  = "etrm.normalized.trades.persisted"
	SubjectPositionsUpdated = "etrm.positions.updated"
)

// File types carried by import announcements. Anything else is dropped by the
// normalizer with a warning.
const (
	FileTypeTrades    = "trades.csv"
	FileTypeEodPrices = "eod-prices.csv"
)

// RawImportedEvent announces that a raw CSV payload has been stored in the
// object store. It carries metadata only, never the payload itself.
type RawImportedEvent struct {
	EventType  string            `json:"eventType"`
	ImportID   string            `json:"importId"`
	Bucket     string            `json:"bucket"`
	ObjectKey  string            `json:"objectKey"`
	FileType   string            `json:"fileType"`
	Format     string            `json:"format"`
	Checksum   string            `json:"checksum"`
	SizeBytes  int64             `json:"sizeBytes"`
	ImportedAt time.Time         `json:"importedAt"`
	Metadata   map[string]string `json:"metadata"`
}

// EventTypeRawImported is the EventType value of RawImportedEvent.
const EventTypeRawImported = "ETRM.Raw.Imported"

// TradesPersistedEvent is published after a trade batch has been written to
// the relational store. No consumer exists in this repo yet.
type TradesPersistedEvent struct {
	EventType   string    `json:"eventType"`
	ImportID    string    `json:"importId"`
	Count       int       `json:"count"`
	PersistedAt time.Time `json:"persistedAt"`
}

// EventTypeTradesPersisted is the EventType value of TradesPersistedEvent.
const EventTypeTradesPersisted = "ETRM.Normalized.Trades.Persisted"

// PositionsUpdatedEvent is published after an aggregation run has upserted
// positions.
type PositionsUpdatedEvent struct {
	EventType string    `json:"eventType"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EventTypePositionsUpdated is the EventType value of PositionsUpdatedEvent.
const EventTypePositionsUpdated = "ETRM.Positions.Updated"
