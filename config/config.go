package config

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/sifter/constants"
)

type Source string

const (
	SourcePostgreSQL Source = "postgresql"
	SourceMySQL      Source = "mysql"
	SourceMongoDB    Source = "mongodb"
	SourceDynamoDB   Source = "dynamodb"
)

type Kafka struct {
	BootstrapServers string `yaml:"bootstrapServers"`
	TopicPrefix      string `yaml:"topicPrefix"`
	AwsEnabled       bool   `yaml:"awsEnabled"`
	PublishSize      uint   `yaml:"publishSize,omitempty"`
	MaxRequestSize   uint64 `yaml:"maxRequestSize,omitempty"`
	MaxRetries       int    `yaml:"maxRetries,omitempty"`
}

func (k *Kafka) BootstrapAddresses() []string {
	return strings.Split(k.BootstrapServers, ",")
}

func (k *Kafka) GetPublishSize() uint {
	return cmp.Or(k.PublishSize, constants.DefaultPublishSize)
}

func (k *Kafka) GetMaxRetries() int {
	return cmp.Or(k.MaxRetries, constants.DefaultMaxRetries)
}

func (k *Kafka) Validate() error {
	if k == nil {
		return fmt.Errorf("kafka config is nil")
	}

	if k.BootstrapServers == "" {
		return fmt.Errorf("bootstrap servers not passed in")
	}

	if k.TopicPrefix == "" {
		return fmt.Errorf("topic prefix not passed in")
	}

	if k.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	return nil
}

type Bisect struct {
	// Disabled turns off poison message isolation: a chunk that cannot be published fails the run.
	Disabled bool `yaml:"disabled,omitempty"`
	// Concurrency is how many sub-chunks may be published at once while isolating. Defaults to 1.
	Concurrency int `yaml:"concurrency,omitempty"`
}

func (b *Bisect) Enabled() bool {
	return b == nil || !b.Disabled
}

func (b *Bisect) GetConcurrency() int {
	if b == nil {
		return 1
	}
	return max(b.Concurrency, 1)
}

func (b *Bisect) Validate() error {
	if b == nil {
		return nil
	}

	if b.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	return nil
}

type DeadLetterKind string

const (
	DeadLetterLog   DeadLetterKind = "log"
	DeadLetterFile  DeadLetterKind = "file"
	DeadLetterKafka DeadLetterKind = "kafka"
)

type DeadLetter struct {
	Kind DeadLetterKind `yaml:"kind"`
	// Path is the JSON lines file that [DeadLetterFile] appends to.
	Path string `yaml:"path,omitempty"`
	// Topic is the full topic name that [DeadLetterKafka] publishes to.
	Topic         string `yaml:"topic,omitempty"`
	MaxValueBytes int    `yaml:"maxValueBytes,omitempty"`
}

func (d *DeadLetter) GetKind() DeadLetterKind {
	if d == nil {
		return DeadLetterLog
	}
	return cmp.Or(d.Kind, DeadLetterLog)
}

func (d *DeadLetter) GetMaxValueBytes() int {
	return cmp.Or(d.MaxValueBytes, constants.DefaultMaxValueBytes)
}

func (d *DeadLetter) Validate() error {
	switch d.GetKind() {
	case DeadLetterLog:
		return nil
	case DeadLetterFile:
		if d.Path == "" {
			return fmt.Errorf("dead letter path must be passed in for kind %q", d.Kind)
		}
	case DeadLetterKafka:
		if d.Topic == "" {
			return fmt.Errorf("dead letter topic must be passed in for kind %q", d.Kind)
		}
		if d.MaxValueBytes < 0 {
			return fmt.Errorf("max value bytes cannot be negative")
		}
	default:
		return fmt.Errorf("invalid dead letter kind: %q", d.Kind)
	}

	return nil
}

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Metrics struct {
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Settings struct {
	Source     Source      `yaml:"source"`
	PostgreSQL *PostgreSQL `yaml:"postgresql,omitempty"`
	MySQL      *MySQL      `yaml:"mysql,omitempty"`
	MongoDB    *MongoDB    `yaml:"mongodb,omitempty"`
	DynamoDB   *DynamoDB   `yaml:"dynamodb,omitempty"`

	Kafka      *Kafka      `yaml:"kafka"`
	Bisect     *Bisect     `yaml:"bisect,omitempty"`
	DeadLetter *DeadLetter `yaml:"deadLetter,omitempty"`
	Reporting  *Reporting  `yaml:"reporting,omitempty"`
	Metrics    *Metrics    `yaml:"metrics,omitempty"`
}

func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("config is nil")
	}

	switch s.Source {
	case SourcePostgreSQL:
		if err := s.PostgreSQL.Validate(); err != nil {
			return fmt.Errorf("postgres validation failed: %w", err)
		}
	case SourceMySQL:
		if err := s.MySQL.Validate(); err != nil {
			return fmt.Errorf("mysql validation failed: %w", err)
		}
	case SourceMongoDB:
		if err := s.MongoDB.Validate(); err != nil {
			return fmt.Errorf("mongodb validation failed: %w", err)
		}
	case SourceDynamoDB:
		if err := s.DynamoDB.Validate(); err != nil {
			return fmt.Errorf("dynamodb validation failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid source: '%s'", s.Source)
	}

	if err := s.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka validation failed: %w", err)
	}

	if err := s.Bisect.Validate(); err != nil {
		return fmt.Errorf("bisect validation failed: %w", err)
	}

	if err := s.DeadLetter.Validate(); err != nil {
		return fmt.Errorf("dead letter validation failed: %w", err)
	}

	return nil
}

func ReadConfig(fp string) (*Settings, error) {
	bytes, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(bytes)
}

func ParseConfig(bytes []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(bytes, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}

	return &settings, nil
}
