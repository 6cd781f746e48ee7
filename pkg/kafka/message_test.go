package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionBatch(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{
			"org_id": 7,
			"filename": "jan.csv",
			"file_format": "CSV",
			"transactions": [
				{"org_id": 7, "transaction_date": "2024-01-15", "amount": 100.5, "description": "Payment"}
			]
		}`),
	}

	require.NoError(t, msg.ParseTransactionBatch())
	require.NotNil(t, msg.Batch)
	assert.Equal(t, int64(7), msg.Batch.OrgID)
	assert.Equal(t, "jan.csv", msg.Batch.Filename)
	require.Len(t, msg.Batch.Transactions, 1)
	assert.Equal(t, "Payment", msg.Batch.Transactions[0].Description)
}

func TestParseTransactionBatchInvalidJSON(t *testing.T) {
	msg := &IncomingMessage{Value: []byte("not json")}

	assert.Error(t, msg.ParseTransactionBatch())
	assert.Nil(t, msg.Batch)
}

func TestGetOrgID(t *testing.T) {
	msg := &IncomingMessage{Batch: &TransactionBatchMessage{OrgID: 7}}
	assert.Equal(t, int64(7), msg.GetOrgID())

	// header fallback when the batch has no org
	msg = &IncomingMessage{Headers: map[string]string{"org_id": "12"}}
	assert.Equal(t, int64(12), msg.GetOrgID())

	msg = &IncomingMessage{Headers: map[string]string{"org_id": "bogus"}}
	assert.Equal(t, int64(0), msg.GetOrgID())
}

func TestGetFilename(t *testing.T) {
	msg := &IncomingMessage{Batch: &TransactionBatchMessage{Filename: "jan.csv"}}
	assert.Equal(t, "jan.csv", msg.GetFilename())

	msg = &IncomingMessage{Headers: map[string]string{"filename": "feb.csv"}}
	assert.Equal(t, "feb.csv", msg.GetFilename())
}
