package backends

import (
	"github.com/cedricziel/vtql/internal/engine"
)

func newTestExecutor() *engine.Executor {
	catalog := engine.NewCatalog()
	catalog.Register(engine.NewStaticTable("test_table",
		engine.TableColumns{
			{Name: "column1", Type: engine.ColumnTypeText},
			{Name: "column2", Type: engine.ColumnTypeText},
		},
		engine.QueryData{{"column1": "value1", "column2": "value2"}},
	))
	catalog.Register(engine.NewStaticTable("processes",
		engine.TableColumns{
			{Name: "pid", Type: engine.ColumnTypeBigInt, Options: engine.ColumnOptionIndex},
			{Name: "name", Type: engine.ColumnTypeText},
			{Name: "rss", Type: engine.ColumnTypeBigInt},
		},
		engine.QueryData{
			{"pid": "1", "name": "init", "rss": "4096"},
			{"pid": "42", "name": "sshd", "rss": "1024"},
			{"pid": "7", "name": "bash", "rss": "2048"},
			{"pid": "100", "name": "Bashful", "rss": "512"},
		},
	))
	return engine.NewExecutor(engine.ExecutorConfig{Catalog: catalog, CacheSize: 10})
}
