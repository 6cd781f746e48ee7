package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestBatchHandlerRunsPipeline(t *testing.T) {
	f := newPipelineFixture(nil)
	handler := NewBatchHandler(testLogger(), f.pipeline)

	msg := &kafka.IncomingMessage{
		Batch: &kafka.TransactionBatchMessage{
			OrgID:      1,
			Filename:   "jan.csv",
			FileFormat: "CSV",
			Transactions: []models.TransactionRecord{
				record(1, "2024-01-15", 10.00, "Payment"),
			},
		},
	}

	require.NoError(t, handler(context.Background(), msg))
	assert.Len(t, f.transactions.created, 1)
}

func TestBatchHandlerDropsMissingOrg(t *testing.T) {
	f := newPipelineFixture(nil)
	handler := NewBatchHandler(testLogger(), f.pipeline)

	msg := &kafka.IncomingMessage{
		Batch: &kafka.TransactionBatchMessage{Filename: "jan.csv"},
	}

	// dropped, not retried
	require.NoError(t, handler(context.Background(), msg))
	assert.Empty(t, f.transactions.created)
}
