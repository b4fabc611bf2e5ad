package store

import (
	"context"
	"log/slog"

	"github.com/roach88/solq/internal/facet"
)

// Mapper returns a facet.Mapper resolving facet values to the payloads
// stored under kind. Values whose key cannot be derived, or that have no
// row, resolve to nil.
//
// Call Mapper once per kind and share the handle between specs: facets are
// grouped for resolution by handle identity.
func (s *Store) Mapper(kind string) *facet.Mapper {
	return facet.NewMapper("store:"+kind, func(ctx context.Context, values []any) (map[any]any, error) {
		keys := make([]string, 0, len(values))
		byKey := make(map[string][]any, len(values))
		for _, v := range values {
			k, err := KeyOf(v)
			if err != nil {
				slog.Debug("skipping unkeyable facet value", "kind", kind, "value", v, "error", err)
				continue
			}
			if _, ok := byKey[k]; !ok {
				keys = append(keys, k)
			}
			byKey[k] = append(byKey[k], v)
		}

		found, err := s.Lookup(ctx, kind, keys)
		if err != nil {
			return nil, err
		}

		out := make(map[any]any, len(found))
		for k, inst := range found {
			for _, v := range byKey[k] {
				out[v] = inst.Payload
			}
		}
		slog.Debug("resolved instances from store", "kind", kind, "requested", len(keys), "found", len(found))
		return out, nil
	})
}
