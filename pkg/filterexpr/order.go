package filterexpr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OrderSchema describes ordering defaults and whitelisted keys.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Keys               []string
}

// OrderBy is a parsed order_by clause with at most two keys.
type OrderBy struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// ParseOrderBy parses "key [asc|desc][, key [asc|desc]]" against the schema.
func ParseOrderBy(raw string, schema OrderSchema) (OrderBy, error) { //nolint:gocognit,gocyclo // parsing DSL entails validation branches for readability
	if schema.DefaultPrimary == "" {
		return OrderBy{}, errors.New("order schema default primary key required")
	}
	if schema.FallbackKey == "" {
		return OrderBy{}, errors.New("order schema fallback key required")
	}
	if !slices.Contains(schema.Keys, schema.DefaultPrimary) {
		return OrderBy{}, fmt.Errorf("order key %q missing from schema keys", schema.DefaultPrimary)
	}
	if !slices.Contains(schema.Keys, schema.FallbackKey) {
		return OrderBy{}, fmt.Errorf("fallback order key %q missing from schema keys", schema.FallbackKey)
	}

	ord := OrderBy{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := parts[0]
		if !slices.Contains(schema.Keys, key) {
			return OrderBy{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return OrderBy{}, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return OrderBy{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}

		if _, dup := seen[key]; dup {
			return OrderBy{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey, ord.PrimaryDesc = key, desc
		case 1:
			ord.SecondaryKey, ord.SecondaryDesc = key, desc
		default:
			return OrderBy{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	if ord.SecondaryKey == ord.PrimaryKey {
		// fallback collides with the chosen primary: take the first other key in schema order
		for _, key := range schema.Keys {
			if key != ord.PrimaryKey {
				ord.SecondaryKey, ord.SecondaryDesc = key, false
				break
			}
		}
		if ord.SecondaryKey == ord.PrimaryKey {
			return OrderBy{}, errors.New("order schema requires at least two distinct keys for stable ordering")
		}
	}

	return ord, nil
}

// IsDefault reports whether ord is exactly the schema's default ordering.
func (o OrderBy) IsDefault(schema OrderSchema) bool {
	return o.PrimaryKey == schema.DefaultPrimary && o.PrimaryDesc == schema.DefaultPrimaryDesc &&
		o.SecondaryKey == schema.FallbackKey && o.SecondaryDesc == schema.FallbackDesc
}

// Sort orders items in place. compare returns the ascending comparison of a and b on key.
func Sort[T any](items []T, ord OrderBy, compare func(a, b T, key string) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := directed(compare(a, b, ord.PrimaryKey), ord.PrimaryDesc); c != 0 {
			return c
		}
		return directed(compare(a, b, ord.SecondaryKey), ord.SecondaryDesc)
	})
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

