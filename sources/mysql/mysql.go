package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

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
	cfg config.MySQL
	db  *sql.DB
}

func Load(cfg config.MySQL) (*Source, error) {
	db, err := sql.Open("mysql", cfg.ToDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
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
		scanner, err := scan.NewScanner(ctx, s.db, tableCfg.ToScannerConfig(defaultErrorRetries), rdbms.MySQL{})
		if err != nil {
			return report, fmt.Errorf("failed to create scanner for table %q: %w", tableCfg.Name, err)
		}

		topicSuffix := fmt.Sprintf("%s.%s", s.cfg.Database, tableCfg.Name)
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
