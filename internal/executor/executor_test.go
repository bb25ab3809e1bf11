package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnsRows(t *testing.T) {
	rowProducing := []string{
		"SELECT * FROM users",
		"  select id from orders",
		"SHOW search_path",
		"WITH recent AS (SELECT 1) SELECT * FROM recent",
		"EXPLAIN SELECT 1",
		"DESCRIBE users",
	}
	for _, stmt := range rowProducing {
		assert.True(t, returnsRows(stmt), stmt)
	}

	execOnly := []string{
		"INSERT INTO users (name) VALUES ('a')",
		"UPDATE users SET name = 'b' WHERE id = 1",
		"DELETE FROM users WHERE id = 1",
		"CREATE TABLE t (id int)",
		"DROP TABLE t",
		"",
	}
	for _, stmt := range execOnly {
		assert.False(t, returnsRows(stmt), stmt)
	}
}
