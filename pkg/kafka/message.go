package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// TransactionBatchMessage is the payload produced by the statement
// extraction service for one parsed statement file
type TransactionBatchMessage struct {
	OrgID        int64                      `json:"org_id"`
	Filename     string                     `json:"filename"`
	FileFormat   string                     `json:"file_format"`
	Transactions []models.TransactionRecord `json:"transactions"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string

	// Parsed content
	Batch *TransactionBatchMessage
}

// ParseTransactionBatch parses the message value as a transaction batch
func (m *IncomingMessage) ParseTransactionBatch() error {
	var batch TransactionBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	m.Batch = &batch
	return nil
}

// GetOrgID returns the org ID from the parsed batch, falling back to the
// org_id header
func (m *IncomingMessage) GetOrgID() int64 {
	if m.Batch != nil && m.Batch.OrgID != 0 {
		return m.Batch.OrgID
	}
	if v, err := strconv.ParseInt(m.Headers["org_id"], 10, 64); err == nil {
		return v
	}
	return 0
}

// GetFilename returns the statement filename for the batch
func (m *IncomingMessage) GetFilename() string {
	if m.Batch != nil {
		return m.Batch.Filename
	}
	return m.Headers["filename"]
}
