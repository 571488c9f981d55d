package repository

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ganttwork/planner/internal/domain"
)

// fakeRow replays column values the way pgx scans a projects row.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func TestEncodeScanProject_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	in := &domain.Project{
		ID:            "p-1",
		Name:          "Roadmap",
		CalendarStart: "2024-03-01",
		Tasks: []domain.Task{
			{ID: "group-1", Name: "Phase", Order: 0, IsGroup: true, Dependencies: []string{}},
			{ID: "T1", Name: "Design", Start: "2024-03-01", End: "2024-03-03", DurationDays: 2, Order: 1, ParentID: "group-1", Dependencies: []string{}},
			{ID: "M1", Name: "Ship", Start: "2024-03-10", End: "2024-03-10", Order: 2, IsMilestone: true, Dependencies: []string{"T1"}},
		},
		CreatedAt: &created,
		UpdatedAt: &updated,
	}

	calStart, tasks, err := encodeProject(in)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if !calStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected calendar start %s", calStart)
	}

	out, err := scanProject(fakeRow{values: []any{in.ID, in.Name, calStart, tasks, created, updated}})
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip changed the project:\nbefore: %+v\nafter:  %+v", in, out)
	}
}

func TestEncodeProject_RejectsBadCalendarStart(t *testing.T) {
	if _, _, err := encodeProject(&domain.Project{CalendarStart: "2024-02-30"}); err == nil {
		t.Fatal("expected an error for an impossible calendar start")
	}
}

func TestScanProject_Errors(t *testing.T) {
	if _, err := scanProject(fakeRow{err: pgx.ErrNoRows}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows to pass through, got %v", err)
	}

	now := time.Now()
	row := fakeRow{values: []any{"p-1", "x", now, []byte("{not json"), now, now}}
	if _, err := scanProject(row); err == nil {
		t.Fatal("expected an error for corrupt task JSON")
	}
}
