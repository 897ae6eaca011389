package config

import (
	"cmp"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/artie-labs/sifter/constants"
	"github.com/artie-labs/sifter/lib/rdbms/scan"
)

type PostgreSQL struct {
	Host       string             `yaml:"host"`
	Port       int                `yaml:"port"`
	Username   string             `yaml:"username"`
	Password   string             `yaml:"password"`
	Database   string             `yaml:"database"`
	Tables     []*PostgreSQLTable `yaml:"tables"`
	DisableSSL bool               `yaml:"disableSSL"`
}

func (p *PostgreSQL) ToDSN() string {
	query := url.Values{}
	if p.DisableSSL {
		query.Set("sslmode", "disable")
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.Username, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     p.Database,
		RawQuery: query.Encode(),
	}
	return dsn.String()
}

type PostgreSQLTable struct {
	Name        string   `yaml:"name"`
	Schema      string   `yaml:"schema"`
	PrimaryKeys []string `yaml:"primaryKeys"`
	BatchSize   uint     `yaml:"batchSize,omitempty"`
}

func (p *PostgreSQLTable) GetBatchSize() uint {
	return cmp.Or(p.BatchSize, constants.DefaultBatchSize)
}

func (p *PostgreSQLTable) ToScannerConfig(errorRetries int) scan.ScannerConfig {
	return scan.ScannerConfig{
		Schema:       p.Schema,
		Table:        p.Name,
		PrimaryKeys:  p.PrimaryKeys,
		BatchSize:    p.GetBatchSize(),
		ErrorRetries: errorRetries,
	}
}

func (p *PostgreSQL) Validate() error {
	if p == nil {
		return fmt.Errorf("the PostgreSQL config is nil")
	}

	if stringutil.Empty(p.Host, p.Username, p.Password, p.Database) {
		return fmt.Errorf("one of the PostgreSQL settings is empty: host, username, password, database")
	}

	if p.Port <= 0 {
		return fmt.Errorf("port is not set or <= 0")
	} else if p.Port > math.MaxUint16 {
		return fmt.Errorf("port is > %d", math.MaxUint16)
	}

	if len(p.Tables) == 0 {
		return fmt.Errorf("no tables passed in")
	}

	for _, table := range p.Tables {
		if table.Name == "" {
			return fmt.Errorf("table name must be passed in")
		}

		if table.Schema == "" {
			return fmt.Errorf("schema must be passed in")
		}

		if len(table.PrimaryKeys) == 0 {
			return fmt.Errorf("primary keys must be passed in for table %q", table.Name)
		}
	}

	return nil
}
