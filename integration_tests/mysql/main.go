package main

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/lmittmann/tint"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/integration_tests/utils"
	"github.com/artie-labs/sifter/lib/logger"
	"github.com/artie-labs/sifter/sources/mysql"
	"github.com/artie-labs/sifter/writers"
)

func main() {
	if err := os.Setenv("TZ", "UTC"); err != nil {
		logger.Fatal("Unable to set TZ env var", slog.Any("err", err))
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo})))

	mysqlCfg := config.MySQL{
		Host:     cmp.Or(os.Getenv("MYSQL_HOST"), "localhost"),
		Port:     3306,
		Username: "root",
		Password: "mysql",
		Database: "mysql",
	}

	db, err := sql.Open("mysql", mysqlCfg.ToDSN())
	if err != nil {
		logger.Fatal("Could not connect to MySQL", slog.Any("err", err))
	}
	defer db.Close()

	if err = testIsolation(db, mysqlCfg); err != nil {
		logger.Fatal("Isolation test failed", slog.Any("err", err))
	}
}

const testIsolationCreateTableQuery = `
CREATE TABLE %s (
	pk BIGINT PRIMARY KEY,
	c_text_value TEXT
)
`

func testIsolation(db *sql.DB, mysqlCfg config.MySQL) error {
	tempTableName, dropTableFunc := utils.CreateTemporaryTable(db, testIsolationCreateTableQuery)
	defer dropTableFunc()

	var expectedPublished []int64
	for i := range int64(25) {
		value := fmt.Sprintf("row %d", i)
		if i == 7 || i == 19 {
			value = strings.Repeat("x", 5000)
		} else {
			expectedPublished = append(expectedPublished, i)
		}

		if _, err := db.Exec(fmt.Sprintf("INSERT INTO %s VALUES (?, ?)", tempTableName), i, value); err != nil {
			return fmt.Errorf("unable to insert data: %w", err)
		}
	}

	for _, batchSize := range []uint{1, 5, 25, 26} {
		slog.Info(fmt.Sprintf("Testing isolation with batch size of %d...", batchSize))
		cfg := mysqlCfg
		cfg.Tables = []*config.MySQLTable{{
			Name:        tempTableName,
			PrimaryKeys: []string{"pk"},
			BatchSize:   batchSize,
		}}

		source, err := mysql.Load(cfg)
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
