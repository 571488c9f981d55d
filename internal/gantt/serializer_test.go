package gantt_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/gantt"
)

func TestSerialize_Layout(t *testing.T) {
	project := &domain.Project{
		CalendarStart: "2024-03-01",
		Tasks: []domain.Task{
			{ID: "M1", Name: "Launch", Start: "2024-03-10", End: "2024-03-10", Order: 3, IsMilestone: true, Dependencies: []string{"T2"}},
			{ID: "group-1", Name: "Phase 1", Order: 0, IsGroup: true},
			{ID: "T2", Name: "Dev", Start: "2024-03-03", End: "2024-03-07", DurationDays: 4, Order: 2, ParentID: "group-1", Dependencies: []string{"T1"}},
			{ID: "T1", Name: "Design", DurationDays: 2, Order: 1, ParentID: "group-1"},
		},
	}

	want := `@startgantt
Project starts 2024-03-01
-- Phase 1 --
task "Design" as [T1] lasts 2 days
task "Dev" as [T2] starts 2024-03-03 ends 2024-03-07
-- end --
milestone "Launch" as [M1] happens at 2024-03-10
[T2] --> [M1]
[T1] --> [T2]
@endgantt`

	if got := gantt.Serialize(project); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestSerialize_PartialDates(t *testing.T) {
	cases := []struct {
		task domain.Task
		want string
	}{
		{domain.Task{ID: "A", Name: "a", Start: "2024-01-02", DurationDays: 3}, `task "a" as [A] starts 2024-01-02 lasts 3 days`},
		{domain.Task{ID: "B", Name: "b", Start: "2024-01-02"}, `task "b" as [B] starts 2024-01-02`},
		{domain.Task{ID: "C", Name: "c", End: "2024-01-09", DurationDays: 8}, `task "c" as [C] ends 2024-01-09`},
		{domain.Task{ID: "D", Name: "d", End: "2024-01-09", IsMilestone: true}, `milestone "d" as [D] happens at 2024-01-09`},
	}

	for _, tc := range cases {
		out := gantt.Serialize(&domain.Project{CalendarStart: "2024-01-01", Tasks: []domain.Task{tc.task}})
		want := "@startgantt\nProject starts 2024-01-01\n" + tc.want + "\n@endgantt"
		if out != want {
			t.Errorf("task %s: got\n%s\nwant\n%s", tc.task.ID, out, want)
		}
		if _, err := gantt.Parse(out); err != nil {
			t.Errorf("task %s: serialized output does not parse: %v", tc.task.ID, err)
		}
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	text := document(
		"Project starts 2024-06-01",
		`task "Alpha" as [A1] lasts 3 days`,
		"-- Build --",
		`task "Beta" as [B1] starts 2024-06-05 ends 2024-06-06`,
		"-- Nested --",
		`milestone "Gate" as [G1] happens at 2024-06-07`,
		"-- end --",
		"-- end --",
		"[A1] --> [B1]",
		"[B1] --> [G1]",
		"[A1] --> [G1]",
	)

	parsed := mustParse(t, text)
	reparsed := mustParse(t, gantt.Serialize(parsed))

	if !reflect.DeepEqual(parsed, reparsed) {
		t.Fatalf("round trip changed the project:\nbefore: %+v\nafter:  %+v", parsed, reparsed)
	}
	if reparsed.Tasks[0].Name != "Alpha" {
		t.Fatalf("expected first task Alpha, got %s", reparsed.Tasks[0].Name)
	}
	if deps := reparsed.TaskByID("B1").Dependencies; !reflect.DeepEqual(deps, []string{"A1"}) {
		t.Fatalf("expected [A1], got %v", deps)
	}
}

func TestSerialize_GroupDependenciesSurviveReparse(t *testing.T) {
	project := &domain.Project{
		Name:          "Groups",
		CalendarStart: "2024-03-01",
		Tasks: []domain.Task{
			{ID: "group-1", Name: "Phase", Order: 0, IsGroup: true},
			{ID: "a", Name: "A", DurationDays: 2, Order: 1, ParentID: "group-1"},
			{ID: "b", Name: "B", DurationDays: 1, Order: 2, Dependencies: []string{"group-1"}},
		},
	}
	if err := project.Validate(); err != nil {
		t.Fatalf("expected a valid project, got %v", err)
	}

	reparsed := mustParse(t, gantt.Serialize(project))
	b := reparsed.TaskByID("b")
	if b == nil || !reflect.DeepEqual(b.Dependencies, []string{"group-1"}) {
		t.Fatalf("expected b to depend on group-1, got %+v", b)
	}
	if a := reparsed.TaskByID("a"); a == nil || a.ParentID != "group-1" {
		t.Fatalf("expected a inside group-1, got %+v", a)
	}
}

func TestSerialize_GroupsThatCannotRoundTripAreRejected(t *testing.T) {
	cases := map[string]domain.Task{
		"custom id":       {ID: "phase", Name: "Phase", Order: 0, IsGroup: true},
		"padded name":     {ID: "group-1", Name: " Phase ", Order: 0, IsGroup: true},
		"id of a sibling": {ID: "group-2", Name: "Phase", Order: 0, IsGroup: true},
	}

	for name, group := range cases {
		project := &domain.Project{
			Name:          "Groups",
			CalendarStart: "2024-03-01",
			Tasks: []domain.Task{
				group,
				{ID: "b", Name: "B", DurationDays: 1, Order: 1, Dependencies: []string{group.ID}},
			},
		}
		if err := project.Validate(); !errors.Is(err, domain.ErrInvalidProject) {
			t.Errorf("%s: expected ErrInvalidProject, got %v", name, err)
		}
	}
}
