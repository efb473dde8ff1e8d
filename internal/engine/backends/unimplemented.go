package backends

import (
	"context"
	"fmt"

	"github.com/cedricziel/vtql/internal/engine"
)

// UnimplementedBackend reports ErrNotImplemented for every query capability
// and treats attach/detach as successful no-ops. Embed it in a backend to
// inherit those defaults for anything the backend does not override.
type UnimplementedBackend struct {
	// Language names the query language in error messages
	Language string
}

func (u UnimplementedBackend) language() string {
	if u.Language == "" {
		return "backend"
	}
	return u.Language
}

func (u UnimplementedBackend) Query(context.Context, string, bool) (engine.QueryData, error) {
	return nil, fmt.Errorf("%s query execution: %w", u.language(), ErrNotImplemented)
}

func (u UnimplementedBackend) Columns(context.Context, string) (engine.TableColumns, error) {
	return nil, fmt.Errorf("%s query column extraction: %w", u.language(), ErrNotImplemented)
}

func (u UnimplementedBackend) Tables(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("%s query table extraction: %w", u.language(), ErrNotImplemented)
}

func (u UnimplementedBackend) Attach(context.Context, string) error {
	return nil
}

func (u UnimplementedBackend) Detach(context.Context, string) error {
	return nil
}

var _ Backend = UnimplementedBackend{}
