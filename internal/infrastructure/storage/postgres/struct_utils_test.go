package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
)

type sampleDoc struct {
	entity.Document
	ClientName string   `db:"client_name"`
	Lines      []string `db:"-"`
	scratch    int
}

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[sampleDoc]()

	assert.Equal(t, []string{"id", "deletion_mark", "version"}, cols[:3])
	for _, want := range []string{"created_at", "number", "number_auto_assigned", "company_id", "status", "internal_notes", "client_name"} {
		assert.Contains(t, cols, want)
	}
	assert.NotContains(t, cols, "-")
	assert.Equal(t, "client_name", cols[len(cols)-1])

	// cached shape returns the same layout
	assert.Equal(t, cols, ExtractDBColumns[*sampleDoc]())
}

func TestStructToMap(t *testing.T) {
	company := id.New()
	doc := sampleDoc{Document: entity.NewDocument(company), ClientName: "Blue Lagoon", scratch: 7}
	doc.Version = 4
	doc.Number = "INV-2026-00001"

	m := StructToMap(&doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 4, m["version"])
	assert.Equal(t, company, m["company_id"])
	assert.Equal(t, entity.StatusDraft, m["status"])
	assert.Equal(t, "INV-2026-00001", m["number"])
	assert.Equal(t, "Blue Lagoon", m["client_name"])
	assert.NotContains(t, m, "Lines")

	assert.Nil(t, StructToMap((*sampleDoc)(nil)))
	assert.Nil(t, StructToMap(42))
}

func TestPickColumns(t *testing.T) {
	data := map[string]any{"id": 1, "number": "X", "version": 2, "extra": true}

	picked := PickColumns(data, []string{"id", "number", "version", "missing"}, "version")

	assert.Equal(t, map[string]any{"id": 1, "number": "X"}, picked)
}
