package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Get("sql")
	assert.False(t, ok)

	sqlBackend := NewSQLBackend(newTestExecutor())
	registry.Register("sql", sqlBackend)
	registry.Register("kql", UnimplementedBackend{Language: "KQL"})

	got, ok := registry.Get("sql")
	assert.True(t, ok)
	assert.Same(t, sqlBackend, got)

	assert.Equal(t, []string{"kql", "sql"}, registry.Names())

	replacement := NewSQLBackend(newTestExecutor())
	registry.Register("sql", replacement)
	got, _ = registry.Get("sql")
	assert.Same(t, replacement, got)
}
