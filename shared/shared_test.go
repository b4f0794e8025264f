package shared_test

import (
	"testing"

	"dineease/shared"
	"dineease/shared/dto"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{"zero total", 0, 10, 1},
		{"zero limit", 25, 0, 1},
		{"exact pages", 20, 10, 2},
		{"partial page", 21, 10, 3},
		{"single page", 5, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.CalculateTotalPage(tt.total, tt.limit); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type update struct {
		Notes  string `db:"special_requests"`
		Status string `db:"status"`
		Skip   string
	}

	fields := shared.TransformFields(update{Notes: "window seat"}, "user-1")

	if fields["special_requests"] != "window seat" {
		t.Errorf("expected special_requests to be set, got %v", fields["special_requests"])
	}

	if _, ok := fields["status"]; ok {
		t.Error("zero-valued fields must be skipped")
	}

	if fields["modified_by"] != "user-1" {
		t.Errorf("expected modified_by to be user-1, got %v", fields["modified_by"])
	}

	if _, ok := fields["modified_at"]; !ok {
		t.Error("expected modified_at to be stamped")
	}
}

func TestFilterByID(t *testing.T) {
	group := shared.FilterByID("res-1", "id", "reservations")

	where, args := group.GetWhereClause()
	if where != "(reservations.id = :id)" {
		t.Errorf("unexpected where clause: %q", where)
	}

	if args["id"] != "res-1" {
		t.Errorf("unexpected args: %+v", args)
	}
}

func TestBuildCacheKey(t *testing.T) {
	if key := shared.BuildCacheKey("reservation", "get", "res-1"); key != "reservation:get:res-1" {
		t.Errorf("unexpected cache key: %s", key)
	}
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10, SortBy: "created_at", SortDir: "DESC"}
	filter := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "status", Value: "confirmed", Operator: dto.FilterOperatorEq},
		},
	}

	key1 := shared.BuildCacheKeyWithQuery("reservation:gets", params, filter)
	key2 := shared.BuildCacheKeyWithQuery("reservation:gets", params, filter)

	if key1 != key2 {
		t.Error("cache keys must be deterministic for identical queries")
	}

	other := shared.BuildCacheKeyWithQuery("reservation:gets", dto.QueryParams{Page: 2, Limit: 10}, filter)
	if key1 == other {
		t.Error("different queries must map to different cache keys")
	}
}
