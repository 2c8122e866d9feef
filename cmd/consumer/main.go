package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"laklak-api/internal/bus"
	"laklak-api/internal/config"
	"laklak-api/internal/repository"
	"laklak-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var topic string
	flag.StringVar(&topic, "topic", "", "consume a single topic (default: all)")
	flag.Parse()

	log.Println("Starting inventory event processor...")
	cfg := config.MustLoad()

	if topic != "" && !cfg.Kafka.KnownTopic(topic) {
		log.Fatalf("Unknown topic %q (known: %v)", topic, cfg.Kafka.Topics())
	}

	// Initialize store based on config
	var store repository.Store
	switch cfg.Database.Type {
	case "mysql":
		mysqlStore, err := repository.NewMySQLStore(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		store = mysqlStore
		log.Println("MySQL store initialized")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	brokers := cfg.Kafka.BrokerList()
	consumers := bus.ConsumerFactory(func(topic string) (bus.Consumer, error) {
		return bus.NewKafkaConsumer(brokers, topic, cfg.Kafka.GroupID(topic)), nil
	})

	processor := service.NewProcessor(store, consumers, cfg.Kafka,
		cfg.Inventory.DedupWindow, cfg.Inventory.LowStockThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var topics []string
	if topic != "" {
		topics = []string{topic}
	}

	if err := processor.Run(ctx, topics...); err != nil {
		log.Fatalf("Processor error: %v", err)
	}
	log.Println("Processor stopped")
}
