package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
)

// NewBatchHandler returns a message handler that runs parsed statement
// batches from the extraction topic through the pipeline. Batches without
// a resolvable org are dropped; pipeline failures are returned so the
// message is retried.
func NewBatchHandler(logger ectologger.Logger, pipeline *Pipeline) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.IncomingMessage) error {
		orgID := msg.GetOrgID()
		if orgID <= 0 {
			logger.WithContext(ctx).WithFields(map[string]any{
				"topic":  msg.Topic,
				"offset": msg.Offset,
			}).Error("Dropping batch without org id")
			return nil
		}

		batch := msg.Batch
		_, err := pipeline.Run(ctx, orgID, batch.Filename, batch.FileFormat, batch.Transactions)
		return err
	}
}
