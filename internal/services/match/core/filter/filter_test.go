package filter

import (
	"testing"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
)

func TestParseShotFilterEmpty(t *testing.T) {
	condition, err := ParseShotFilter("   ")
	if err != nil {
		t.Fatalf("parse empty filter: %v", err)
	}
	if condition.Clause != "" || len(condition.Params) != 0 {
		t.Fatalf("condition = %+v, want empty", condition)
	}
}

func TestParseShotFilterEquality(t *testing.T) {
	condition, err := ParseShotFilter(`side = "B"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if condition.Clause != "side = ?" {
		t.Fatalf("clause = %q", condition.Clause)
	}
	if len(condition.Params) != 1 || condition.Params[0] != "B" {
		t.Fatalf("params = %v", condition.Params)
	}
}

func TestParseShotFilterFieldMapping(t *testing.T) {
	condition, err := ParseShotFilter(`player = "Jo"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if condition.Clause != "player_handle = ?" {
		t.Fatalf("clause = %q, want player_handle column", condition.Clause)
	}
}

func TestParseShotFilterConjunction(t *testing.T) {
	condition, err := ParseShotFilter(`kind = "grenade" AND cup_id >= 3`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if condition.Clause != "(kind = ? AND cup_id >= ?)" {
		t.Fatalf("clause = %q", condition.Clause)
	}
	if len(condition.Params) != 2 {
		t.Fatalf("params = %v", condition.Params)
	}
	if condition.Params[0] != "grenade" || condition.Params[1] != int64(3) {
		t.Fatalf("params = %v", condition.Params)
	}
}

func TestParseShotFilterBoolToInt(t *testing.T) {
	condition, err := ParseShotFilter(`undone = true`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if condition.Clause != "undone = ?" || condition.Params[0] != 1 {
		t.Fatalf("condition = %+v, want undone = 1", condition)
	}
}

func TestParseShotFilterTimestampToMillis(t *testing.T) {
	condition, err := ParseShotFilter(`at >= timestamp("2026-03-01T20:00:00Z")`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if condition.Clause != "at >= ?" {
		t.Fatalf("clause = %q", condition.Clause)
	}
	want := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC).UnixMilli()
	if condition.Params[0] != want {
		t.Fatalf("params = %v, want %d", condition.Params, want)
	}
}

func TestParseShotFilterUnknownField(t *testing.T) {
	if _, err := ParseShotFilter(`campaign = "x"`); !apperrors.IsCode(err, apperrors.CodeInvalidFilter) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}

func TestParseShotFilterMalformed(t *testing.T) {
	if _, err := ParseShotFilter(`side = `); !apperrors.IsCode(err, apperrors.CodeInvalidFilter) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}
