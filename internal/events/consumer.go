package events

import (
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"io"
	"strconv"
	"strings"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CacheInvalidator drops a cached product.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID int64) error
}

// Consumer listens for catalog events and evicts stale products from the
// product cache used when sub-carts are built.
type Consumer struct {
	reader   MessageReader
	products CacheInvalidator
}

func NewConsumer(reader MessageReader, products CacheInvalidator) *Consumer {
	return &Consumer{reader: reader, products: products}
}

// Run reads messages until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one catalog event.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "product.updated.<id>" or "product.deleted.<id>"
	key := string(msg.Key)
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "product" {
		log.Warn().Msgf("Ignoring message with key %q", key)
		return
	}

	productID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		log.Error().Msgf("Invalid product id in key %q: %v", key, err)
		return
	}

	switch parts[1] {
	case "updated", "deleted":
		if err := c.products.Invalidate(ctx, productID); err != nil {
			log.Error().Msgf("Error invalidating product %d: %v", productID, err)
		}
	default:
		log.Warn().Msgf("Unknown product event: %s", parts[1])
	}
}
