package engine

import (
	"context"
	"errors"
)

func newTestCatalog() *Catalog {
	catalog := NewCatalog()
	catalog.Register(NewStaticTable("test_table",
		TableColumns{
			{Name: "column1", Type: ColumnTypeText},
			{Name: "column2", Type: ColumnTypeText},
		},
		QueryData{{"column1": "value1", "column2": "value2"}},
	))
	catalog.Register(NewStaticTable("processes",
		TableColumns{
			{Name: "pid", Type: ColumnTypeBigInt, Options: ColumnOptionIndex},
			{Name: "name", Type: ColumnTypeText},
			{Name: "rss", Type: ColumnTypeBigInt},
		},
		QueryData{
			{"pid": "1", "name": "init", "rss": "4096"},
			{"pid": "42", "name": "sshd", "rss": "1024"},
			{"pid": "7", "name": "bash", "rss": "2048"},
			{"pid": "100", "name": "Bashful", "rss": "512"},
		},
	))
	catalog.Register(&FuncTable{
		TableName: "broken",
		Schema:    TableColumns{{Name: "x", Type: ColumnTypeText}},
		Generator: func(context.Context) (QueryData, error) {
			return nil, errors.New("source unavailable")
		},
	})
	return catalog
}
