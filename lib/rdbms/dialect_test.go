package rdbms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgreSQL(t *testing.T) {
	d := PostgreSQL{}
	assert.Equal(t, `"orders"`, d.QuoteIdentifier("orders"))
	assert.Equal(t, `"we""ird"`, d.QuoteIdentifier(`we"ird`))
	assert.Equal(t, "$1", d.Placeholder(0))
	assert.Equal(t, "$3", d.Placeholder(2))
	assert.Equal(t, []byte("abc"), d.ParseValue([]byte("abc"), "BYTEA"))
	assert.Equal(t, int64(5), d.ParseValue(int64(5), "INT8"))
}

func TestMySQL(t *testing.T) {
	d := MySQL{}
	assert.Equal(t, "`orders`", d.QuoteIdentifier("orders"))
	assert.Equal(t, "`we``ird`", d.QuoteIdentifier("we`ird"))
	assert.Equal(t, "?", d.Placeholder(0))
	assert.Equal(t, "?", d.Placeholder(5))
	assert.Equal(t, "abc", d.ParseValue([]byte("abc"), "VARCHAR"))
	assert.Equal(t, int64(5), d.ParseValue(int64(5), "BIGINT"))
	assert.Nil(t, d.ParseValue(nil, "INT"))
	{
		// Text protocol numbers
		assert.Equal(t, int64(-12), d.ParseValue([]byte("-12"), "INT"))
		assert.Equal(t, uint64(18446744073709551615), d.ParseValue([]byte("18446744073709551615"), "UNSIGNED BIGINT"))
		assert.Equal(t, int64(2024), d.ParseValue([]byte("2024"), "YEAR"))
		assert.Equal(t, 1.5, d.ParseValue([]byte("1.5"), "DOUBLE"))
		assert.Equal(t, "12.50", d.ParseValue([]byte("12.50"), "DECIMAL"))
	}
	{
		// Unparseable numbers fall back to strings
		assert.Equal(t, "abc", d.ParseValue([]byte("abc"), "INT"))
	}
}
