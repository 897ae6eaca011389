package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/lib/deadletter"
	"github.com/artie-labs/sifter/lib/kafkalib"
	"github.com/artie-labs/sifter/lib/logger"
	"github.com/artie-labs/sifter/lib/mtr"
	"github.com/artie-labs/sifter/sources"
	"github.com/artie-labs/sifter/sources/dynamodb"
	"github.com/artie-labs/sifter/sources/mongo"
	"github.com/artie-labs/sifter/sources/mysql"
	"github.com/artie-labs/sifter/sources/postgres"
	"github.com/artie-labs/sifter/writers"
)

func setUpMetrics(cfg *config.Metrics) (mtr.Client, error) {
	if cfg == nil {
		return nil, nil
	}

	slog.Info("Creating metrics client")
	return mtr.New(cfg.Namespace, cfg.Tags, 0.5)
}

func setUpDeadLetter(ctx context.Context, cfg *config.Settings) (deadletter.Sink, func(), error) {
	if cfg.DeadLetter.GetKind() != config.DeadLetterKafka {
		sink, err := deadletter.New(cfg.DeadLetter, nil)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { _ = sink.Close() }, nil
	}

	publisher, err := kafkalib.NewWriter(ctx, *cfg.Kafka)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dead letter kafka writer: %w", err)
	}

	sink, err := deadletter.New(cfg.DeadLetter, publisher)
	if err != nil {
		return nil, nil, err
	}

	return sink, func() {
		_ = sink.Close()
		closeKafkaWriter(publisher)
	}, nil
}

func closeKafkaWriter(writer *kafka.Writer) {
	if err := writer.Close(); err != nil {
		slog.Warn("Failed to close dead letter kafka writer", slog.Any("err", err))
	}
}

func setUpKafka(ctx context.Context, cfg *config.Settings, deadLetter deadletter.Sink, statsD mtr.Client) (*kafkalib.BatchWriter, error) {
	slog.Info("Kafka config",
		slog.Bool("aws", cfg.Kafka.AwsEnabled),
		slog.String("kafkaBootstrapServer", cfg.Kafka.BootstrapServers),
		slog.Any("publishSize", cfg.Kafka.GetPublishSize()),
		slog.Uint64("maxRequestSize", cfg.Kafka.MaxRequestSize),
		slog.Bool("bisect", cfg.Bisect.Enabled()),
		slog.Int("bisectConcurrency", cfg.Bisect.GetConcurrency()),
		slog.String("deadLetter", string(cfg.DeadLetter.GetKind())),
	)
	return kafkalib.NewBatchWriter(ctx, *cfg.Kafka, cfg.Bisect, deadLetter, statsD)
}

func loadSource(ctx context.Context, cfg *config.Settings) (sources.Source, error) {
	switch cfg.Source {
	case config.SourcePostgreSQL:
		return postgres.Load(*cfg.PostgreSQL)
	case config.SourceMySQL:
		return mysql.Load(*cfg.MySQL)
	case config.SourceMongoDB:
		return mongo.Load(ctx, *cfg.MongoDB)
	case config.SourceDynamoDB:
		return dynamodb.Load(*cfg.DynamoDB)
	default:
		return nil, fmt.Errorf("invalid source: '%s'", cfg.Source)
	}
}

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.ReadConfig(configFilePath)
	if err != nil {
		logger.Fatal("Failed to read config file", slog.Any("err", err))
	}

	_logger, cleanUpHandlers := logger.NewLogger(cfg)
	slog.SetDefault(_logger.With(slog.String("runID", uuid.NewString())))
	defer cleanUpHandlers()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statsD, err := setUpMetrics(cfg.Metrics)
	if err != nil {
		logger.Fatal("Failed to set up metrics", slog.Any("err", err))
	}

	deadLetter, closeDeadLetter, err := setUpDeadLetter(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up dead letter sink", slog.Any("err", err))
	}
	defer closeDeadLetter()

	batchWriter, err := setUpKafka(ctx, cfg, deadLetter, statsD)
	if err != nil {
		logger.Fatal("Failed to set up kafka", slog.Any("err", err))
	}

	source, err := loadSource(ctx, cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to load %s", cfg.Source), slog.Any("err", err))
	}
	defer source.Close()

	start := time.Now()
	writer := writers.New(batchWriter, true)
	report, err := source.Run(ctx, writer)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to run %s snapshot", cfg.Source), slog.Any("err", err))
	}

	if err = writer.OnFinish(); err != nil {
		logger.Fatal("Failed to finish writing", slog.Any("err", err))
	}

	slog.Info("Finished",
		slog.Int("published", report.Published),
		slog.Int("deadLettered", report.DeadLettered),
		slog.Duration("totalDuration", time.Since(start)),
	)
}
