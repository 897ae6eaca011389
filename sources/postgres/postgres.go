package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/iterator"
	"github.com/artie-labs/sifter/lib/rdbms"
	"github.com/artie-labs/sifter/lib/rdbms/scan"
	"github.com/artie-labs/sifter/sources"
	"github.com/artie-labs/sifter/writers"
)

const defaultErrorRetries = 10

type Source struct {
	cfg config.PostgreSQL
	db  *sql.DB
}

func Load(cfg config.PostgreSQL) (*Source, error) {
	db, err := sql.Open("pgx", cfg.ToDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Source{
		cfg: cfg,
		db:  db,
	}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Run(ctx context.Context, writer writers.Writer) (destinations.Report, error) {
	var report destinations.Report
	for _, tableCfg := range s.cfg.Tables {
		scanner, err := scan.NewScanner(ctx, s.db, tableCfg.ToScannerConfig(defaultErrorRetries), rdbms.PostgreSQL{})
		if err != nil {
			return report, fmt.Errorf("failed to create scanner for table %q: %w", tableCfg.Name, err)
		}

		topicSuffix := fmt.Sprintf("%s.%s", tableCfg.Schema, tableCfg.Name)
		primaryKeys := tableCfg.PrimaryKeys
		iter := iterator.Map[[]map[string]any, []lib.RawMessage](scanner, func(rows []map[string]any) ([]lib.RawMessage, error) {
			return rdbms.RowsToMessages(topicSuffix, primaryKeys, rows)
		})

		tableReport, err := sources.Snapshot(ctx, writer, topicSuffix, iter)
		report = report.Add(tableReport)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}
