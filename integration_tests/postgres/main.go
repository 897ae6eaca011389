package main

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/integration_tests/utils"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/iterator"
	"github.com/artie-labs/sifter/lib/logger"
	"github.com/artie-labs/sifter/lib/rdbms"
	"github.com/artie-labs/sifter/lib/rdbms/scan"
	"github.com/artie-labs/sifter/sources/postgres"
	"github.com/artie-labs/sifter/writers"
)

func main() {
	if err := os.Setenv("TZ", "UTC"); err != nil {
		logger.Fatal("Unable to set TZ env var", slog.Any("err", err))
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{})))

	pgConfig := config.PostgreSQL{
		Host:       cmp.Or(os.Getenv("PG_HOST"), "localhost"),
		Port:       5432,
		Username:   "postgres",
		Password:   "postgres",
		Database:   "postgres",
		DisableSSL: true,
	}

	db, err := sql.Open("pgx", pgConfig.ToDSN())
	if err != nil {
		logger.Fatal("Could not connect to Postgres", slog.Any("err", err))
	}

	if err = testScan(db); err != nil {
		logger.Fatal("Scan test failed", slog.Any("err", err))
	}

	if err = testIsolation(pgConfig); err != nil {
		logger.Fatal("Isolation test failed", slog.Any("err", err))
	}
}

func readTable(db *sql.DB, tableName string, primaryKeys []string, batchSize uint) ([]lib.RawMessage, error) {
	cfg := scan.ScannerConfig{
		Schema:       "public",
		Table:        tableName,
		PrimaryKeys:  primaryKeys,
		BatchSize:    batchSize,
		ErrorRetries: 1,
	}

	scanner, err := scan.NewScanner(context.Background(), db, cfg, rdbms.PostgreSQL{})
	if err != nil {
		return nil, err
	}

	return iterator.Flatten(iterator.Map[[]map[string]any, []lib.RawMessage](scanner, func(rows []map[string]any) ([]lib.RawMessage, error) {
		return rdbms.RowsToMessages(tableName, primaryKeys, rows)
	}))
}

const testScanCreateTableQuery = `
CREATE TABLE %s (
	c_int_pk integer NOT NULL,
	c_boolean_pk boolean NOT NULL,
	c_text_pk text NOT NULL,
	c_text_value text,
	PRIMARY KEY (c_int_pk, c_boolean_pk, c_text_pk)
)
`

const testScanInsertQuery = `
INSERT INTO %s VALUES
(46, false, 'dj', 'row 0'),
(73, false, 'dr', 'row 1'),
(35, false, 'dr', 'row 2'),
(4, false, 'jn', 'row 3'),
(60, true, 'rj', 'row 4'),
(89, true, 'dn', 'row 5'),
(62, false, 'nn', 'row 6'),
(5, false, 'rn', 'row 7'),
(87, false, 'nr', 'row 8'),
(86, false, 'rn', 'row 9'),
(7, true, 'rr', 'row 10'),
(94, false, 'dn', 'row 11'),
(27, false, 'jr', 'row 12'),
(45, true, 'nr', 'row 13'),
(41, true, 'nr', 'row 14'),
(57, false, 'nj', 'row 15'),
(13, true, 'rd', 'row 16'),
(88, true, 'rj', 'row 17'),
(54, true, 'rd', 'row 18'),
(29, false, 'nr', 'row 19'),
(91, false, 'nj', 'row 20'),
(26, false, 'dr', 'row 21'),
(15, false, 'jr', 'row 22'),
(29, false, 'rj', 'row 23'),
(88, false, 'rr', 'row 24')
`

func testScan(db *sql.DB) error {
	tempTableName, dropTableFunc := utils.CreateTemporaryTable(db, testScanCreateTableQuery)
	defer dropTableFunc()

	slog.Info("Inserting data...")
	if _, err := db.Exec(fmt.Sprintf(testScanInsertQuery, tempTableName)); err != nil {
		return fmt.Errorf("unable to insert data: %w", err)
	}

	expectedPartitionKeys := []map[string]any{
		{"c_int_pk": int64(4), "c_boolean_pk": false, "c_text_pk": "jn"},
		{"c_int_pk": int64(5), "c_boolean_pk": false, "c_text_pk": "rn"},
		{"c_int_pk": int64(7), "c_boolean_pk": true, "c_text_pk": "rr"},
		{"c_int_pk": int64(13), "c_boolean_pk": true, "c_text_pk": "rd"},
		{"c_int_pk": int64(15), "c_boolean_pk": false, "c_text_pk": "jr"},
		{"c_int_pk": int64(26), "c_boolean_pk": false, "c_text_pk": "dr"},
		{"c_int_pk": int64(27), "c_boolean_pk": false, "c_text_pk": "jr"},
		{"c_int_pk": int64(29), "c_boolean_pk": false, "c_text_pk": "nr"},
		{"c_int_pk": int64(29), "c_boolean_pk": false, "c_text_pk": "rj"},
		{"c_int_pk": int64(35), "c_boolean_pk": false, "c_text_pk": "dr"},
		{"c_int_pk": int64(41), "c_boolean_pk": true, "c_text_pk": "nr"},
		{"c_int_pk": int64(45), "c_boolean_pk": true, "c_text_pk": "nr"},
		{"c_int_pk": int64(46), "c_boolean_pk": false, "c_text_pk": "dj"},
		{"c_int_pk": int64(54), "c_boolean_pk": true, "c_text_pk": "rd"},
		{"c_int_pk": int64(57), "c_boolean_pk": false, "c_text_pk": "nj"},
		{"c_int_pk": int64(60), "c_boolean_pk": true, "c_text_pk": "rj"},
		{"c_int_pk": int64(62), "c_boolean_pk": false, "c_text_pk": "nn"},
		{"c_int_pk": int64(73), "c_boolean_pk": false, "c_text_pk": "dr"},
		{"c_int_pk": int64(86), "c_boolean_pk": false, "c_text_pk": "rn"},
		{"c_int_pk": int64(87), "c_boolean_pk": false, "c_text_pk": "nr"},
		{"c_int_pk": int64(88), "c_boolean_pk": false, "c_text_pk": "rr"},
		{"c_int_pk": int64(88), "c_boolean_pk": true, "c_text_pk": "rj"},
		{"c_int_pk": int64(89), "c_boolean_pk": true, "c_text_pk": "dn"},
		{"c_int_pk": int64(91), "c_boolean_pk": false, "c_text_pk": "nj"},
		{"c_int_pk": int64(94), "c_boolean_pk": false, "c_text_pk": "dn"},
	}

	primaryKeys := []string{"c_int_pk", "c_boolean_pk", "c_text_pk"}
	for _, batchSize := range []uint{1, 2, 5, 6, 24, 25, 26} {
		slog.Info(fmt.Sprintf("Testing scan with batch size of %d...", batchSize))
		rows, err := readTable(db, tempTableName, primaryKeys, batchSize)
		if err != nil {
			return err
		}
		if len(rows) != len(expectedPartitionKeys) {
			return fmt.Errorf("expected %d rows, got %d, batch size %d", len(expectedPartitionKeys), len(rows), batchSize)
		}
		for i, row := range rows {
			if !maps.Equal(row.PartitionKey(), expectedPartitionKeys[i]) {
				return fmt.Errorf("partition keys are different for row %d, batch size %d, %v != %v", i, batchSize, row.PartitionKey(), expectedPartitionKeys[i])
			}
		}
	}

	return nil
}

const testIsolationCreateTableQuery = `
CREATE TABLE %s (
	pk bigint PRIMARY KEY,
	c_text_value text
)
`

const testIsolationInsertQuery = `
INSERT INTO %s
SELECT i, CASE WHEN i IN (7, 19) THEN repeat('x', 5000) ELSE 'row ' || i END
FROM generate_series(0, 24) AS i
`

func testIsolation(pgConfig config.PostgreSQL) error {
	db, err := sql.Open("pgx", pgConfig.ToDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	tempTableName, dropTableFunc := utils.CreateTemporaryTable(db, testIsolationCreateTableQuery)
	defer dropTableFunc()

	if _, err = db.Exec(fmt.Sprintf(testIsolationInsertQuery, tempTableName)); err != nil {
		return fmt.Errorf("unable to insert data: %w", err)
	}

	var expectedPublished []int64
	for i := range int64(25) {
		if i != 7 && i != 19 {
			expectedPublished = append(expectedPublished, i)
		}
	}

	for _, batchSize := range []uint{1, 5, 25, 26} {
		slog.Info(fmt.Sprintf("Testing isolation with batch size of %d...", batchSize))
		cfg := pgConfig
		cfg.Tables = []*config.PostgreSQLTable{{
			Name:        tempTableName,
			Schema:      "public",
			PrimaryKeys: []string{"pk"},
			BatchSize:   batchSize,
		}}

		source, err := postgres.Load(cfg)
		if err != nil {
			return err
		}

		destination := utils.NewSizeLimitedDestination(1024)
		report, err := source.Run(context.Background(), writers.New(destination, false))
		_ = source.Close()
		if err != nil {
			return err
		}

		if report.Published != 23 || report.DeadLettered != 2 {
			return fmt.Errorf("unexpected report for batch size %d: %+v", batchSize, report)
		}
		if published := utils.Keys(destination.Published, "pk"); !slices.Equal(published, expectedPublished) {
			return fmt.Errorf("published keys are different for batch size %d: %v", batchSize, published)
		}
		if deadLettered := utils.Keys(destination.DeadLettered, "pk"); !slices.Equal(deadLettered, []int64{7, 19}) {
			return fmt.Errorf("dead lettered keys are different for batch size %d: %v", batchSize, deadLettered)
		}
	}

	return nil
}
