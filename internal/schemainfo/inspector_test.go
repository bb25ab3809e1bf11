package schemainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForPrompt(t *testing.T) {
	t.Run("renders tables and columns", func(t *testing.T) {
		info := &DatabaseInfo{Tables: []Table{
			{
				Name: "users",
				Columns: []Column{
					{Name: "id", DataType: "integer", IsNull: false},
					{Name: "email", DataType: "text", IsNull: true},
				},
			},
			{
				Name:    "orders",
				Columns: []Column{{Name: "id", DataType: "integer"}},
			},
		}}

		got := FormatForPrompt(info)
		assert.Contains(t, got, "Table users:")
		assert.Contains(t, got, "  - id integer NOT NULL")
		assert.Contains(t, got, "  - email text NULL")
		assert.Contains(t, got, "Table orders:")
	})

	t.Run("empty schema", func(t *testing.T) {
		assert.Equal(t, "No tables found.", FormatForPrompt(&DatabaseInfo{}))
		assert.Equal(t, "No tables found.", FormatForPrompt(nil))
	})
}
