package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"laklak-api/internal/bus"
	"laklak-api/internal/config"
	"laklak-api/internal/model"
	"laklak-api/internal/repository"
)

// Processor consumes the inventory topics and converts events into audit
// records and alerts. Delivery is at-least-once; the store's dedup window
// keeps redelivery and producer retries idempotent, so handlers never need
// to track offsets themselves.
type Processor struct {
	store     repository.Store
	consumers bus.ConsumerFactory
	topics    config.KafkaConfig
	window    time.Duration
	threshold int64

	handlers map[string]func(ctx context.Context, msg bus.Message) error
}

// NewProcessor creates the event processor.
func NewProcessor(store repository.Store, consumers bus.ConsumerFactory, topics config.KafkaConfig, window time.Duration, threshold int64) *Processor {
	p := &Processor{
		store:     store,
		consumers: consumers,
		topics:    topics,
		window:    window,
		threshold: threshold,
	}
	p.handlers = map[string]func(ctx context.Context, msg bus.Message) error{
		topics.TopicInventoryUpdates: p.handleInventoryUpdate,
		topics.TopicPriceChanges:     p.handlePriceChange,
		topics.TopicLowStockAlerts:   p.handleLowStockAlert,
		topics.TopicProductCreated:   p.handleProductCreated,
		topics.TopicProductDeleted:   p.handleProductDeleted,
	}
	return p
}

// Run consumes the given topics (all configured topics when empty) until
// the context is cancelled. A topic whose consumer cannot connect is
// logged and abandoned; the remaining topics keep running.
func (p *Processor) Run(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		topics = p.topics.Topics()
	}
	for _, t := range topics {
		if _, ok := p.handlers[t]; !ok {
			return fmt.Errorf("unknown topic %q", t)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		topic := topic
		g.Go(func() error {
			consumer, err := p.consumers(topic)
			if err != nil {
				log.Printf("[Processor] cannot consume topic %s: %v", topic, err)
				return nil
			}
			defer consumer.Close()
			return p.runTopic(ctx, topic, consumer)
		})
	}
	return g.Wait()
}

// runTopic is the poll loop for one topic. A failing message is logged
// with its topic, key and payload and then skipped; one poison message
// must not stall the partition behind it.
func (p *Processor) runTopic(ctx context.Context, topic string, consumer bus.Consumer) error {
	log.Printf("[Processor] consuming topic %s", topic)
	handle := p.handlers[topic]

	for {
		msg, err := consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Printf("[Processor] stopping topic %s", topic)
				return nil
			}
			if errors.Is(err, bus.ErrBusClosed) {
				return nil
			}
			log.Printf("[Processor] fetch failed on topic %s: %v", topic, err)
			continue
		}

		if err := handle(ctx, msg); err != nil {
			log.Printf("[Processor] topic=%s key=%s payload=%s: %v", msg.Topic, msg.Key, msg.Value, err)
		}
	}
}

// handleInventoryUpdate turns a stock change event into an audit record
// and, when warranted, a low stock alert.
func (p *Processor) handleInventoryUpdate(ctx context.Context, msg bus.Message) error {
	var ev model.InventoryUpdateEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode inventory update: %w", err)
	}

	if _, err := p.store.GetProduct(ctx, ev.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("[Processor] inventory update for unknown product %d, skipping", ev.ProductID)
			return nil
		}
		return fmt.Errorf("load product %d: %w", ev.ProductID, err)
	}

	delta := ev.NewStock - ev.OldStock
	kind := model.ClassifyDelta(delta)
	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}

	rec := model.InventoryTransaction{
		ProductID:     ev.ProductID,
		Quantity:      quantity,
		PreviousStock: ev.OldStock,
		NewStock:      ev.NewStock,
		Type:          kind,
		Notes:         "Created by event processor",
		PerformedBy:   ev.UserID,
		Timestamp:     ev.Timestamp,
	}

	created, alerted, err := p.store.RecordInventoryEvent(ctx, rec, p.window, p.threshold)
	if err != nil {
		return fmt.Errorf("record inventory event for product %d: %w", ev.ProductID, err)
	}
	if !created {
		log.Printf("[Processor] duplicate inventory event for product %d (%d -> %d), skipped",
			ev.ProductID, ev.OldStock, ev.NewStock)
	}
	if alerted {
		log.Printf("[Processor] low stock alert created for product %d at stock %d", ev.ProductID, ev.NewStock)
	}
	return nil
}

// handlePriceChange records a price change event. Prices arrive as strings
// on the wire.
func (p *Processor) handlePriceChange(ctx context.Context, msg bus.Message) error {
	var ev model.PriceChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode price change: %w", err)
	}

	oldPrice, err := strconv.ParseInt(ev.OldPrice, 10, 64)
	if err != nil {
		return fmt.Errorf("parse old price %q: %w", ev.OldPrice, err)
	}
	newPrice, err := strconv.ParseInt(ev.NewPrice, 10, 64)
	if err != nil {
		return fmt.Errorf("parse new price %q: %w", ev.NewPrice, err)
	}

	if _, err := p.store.GetProduct(ctx, ev.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("[Processor] price change for unknown product %d, skipping", ev.ProductID)
			return nil
		}
		return fmt.Errorf("load product %d: %w", ev.ProductID, err)
	}

	rec := model.PriceChangeLog{
		ProductID: ev.ProductID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		ChangedBy: ev.UserID,
		Notes:     "Created by event processor",
		ChangedAt: ev.Timestamp,
	}

	created, err := p.store.RecordPriceChange(ctx, rec, p.window)
	if err != nil {
		return fmt.Errorf("record price change for product %d: %w", ev.ProductID, err)
	}
	if !created {
		log.Printf("[Processor] duplicate price change for product %d (%s -> %s), skipped",
			ev.ProductID, ev.OldPrice, ev.NewPrice)
	}
	return nil
}

// handleLowStockAlert only logs; alerts are created transactionally when
// the triggering inventory event is recorded, not from this topic.
func (p *Processor) handleLowStockAlert(_ context.Context, msg bus.Message) error {
	var ev model.LowStockAlertEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode low stock alert: %w", err)
	}
	log.Printf("[Processor] low stock notice: product %d at %d (threshold %d)",
		ev.ProductID, ev.CurrentStock, ev.Threshold)
	return nil
}

func (p *Processor) handleProductCreated(_ context.Context, msg bus.Message) error {
	var ev model.ProductLifecycleEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode product created: %w", err)
	}
	log.Printf("[Processor] product created: %d (%s, provider %d)",
		ev.ProductID, ev.ProductData.Name, ev.ProductData.ProviderID)
	return nil
}

func (p *Processor) handleProductDeleted(_ context.Context, msg bus.Message) error {
	var ev model.ProductLifecycleEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode product deleted: %w", err)
	}
	log.Printf("[Processor] product deleted: %d (%s, provider %d)",
		ev.ProductID, ev.ProductData.Name, ev.ProductData.ProviderID)
	return nil
}
