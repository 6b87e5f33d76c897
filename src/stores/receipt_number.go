package stores

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"pms/src/config"
	"pms/src/lib"
	"pms/src/parking"
)

// receiptNumberer issues receipt numbers from a redis sequence so numbers
// stay unique across instances. Without redis it falls back to a
// timestamp-plus-local-counter scheme.
type receiptNumberer struct {
	seq atomic.Int64
}

func NewReceiptNumberer() parking.ReceiptNumberer {
	return &receiptNumberer{}
}

func (n *receiptNumberer) Next(ctx context.Context) (string, error) {
	if rdb := lib.GetRedisClient(); rdb != nil {
		seq, err := rdb.Incr(ctx, "pms:receipts:seq").Result()
		if err == nil {
			return fmt.Sprintf("%s-%08d", config.RECEIPT_PREFIX, seq), nil
		}
		log.Printf("Error fetching receipt sequence from redis: %s\n", err.Error())
	}
	return fmt.Sprintf("%s-%d-%04d", config.RECEIPT_PREFIX, time.Now().UnixMilli(), n.seq.Add(1)), nil
}
