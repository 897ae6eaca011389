package rdbms

import (
	"fmt"
	"strconv"
	"strings"
)

type PostgreSQL struct{}

func (PostgreSQL) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (PostgreSQL) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (PostgreSQL) ParseValue(value any, _ string) any {
	return value
}

type MySQL struct{}

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(_ int) string {
	return "?"
}

// ParseValue converts the []byte values returned by the MySQL driver. Queries without arguments use
// the text protocol, where numbers come back as []byte too.
func (MySQL) ParseValue(value any, databaseTypeName string) any {
	bytes, ok := value.([]byte)
	if !ok {
		return value
	}

	typeName, unsigned := strings.CutPrefix(databaseTypeName, "UNSIGNED ")
	switch typeName {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		if unsigned {
			if number, err := strconv.ParseUint(string(bytes), 10, 64); err == nil {
				return number
			}
		} else if number, err := strconv.ParseInt(string(bytes), 10, 64); err == nil {
			return number
		}
	case "FLOAT", "DOUBLE":
		if number, err := strconv.ParseFloat(string(bytes), 64); err == nil {
			return number
		}
	}

	return string(bytes)
}
