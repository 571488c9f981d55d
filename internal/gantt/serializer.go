package gantt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ganttwork/planner/internal/domain"
)

// Serialize renders p as a PlantUML Gantt document that Parse accepts.
// Callers should Validate p first; Serialize does not check names or dates.
func Serialize(p *domain.Project) string {
	lines := []string{startToken, "Project starts " + p.CalendarStart}
	lines = appendBlock(lines, p.Tasks, "")

	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			lines = append(lines, fmt.Sprintf("[%s] --> [%s]", dep, t.ID))
		}
	}

	lines = append(lines, endToken)
	return strings.Join(lines, "\n")
}

func appendBlock(lines []string, tasks []domain.Task, parentID string) []string {
	var children []domain.Task
	for _, t := range tasks {
		if t.ParentID == parentID {
			children = append(children, t)
		}
	}
	sort.SliceStable(children, func(i, j int) bool { return children[i].Order < children[j].Order })

	for _, t := range children {
		if t.IsGroup {
			lines = append(lines, fmt.Sprintf("-- %s --", t.Name))
			lines = appendBlock(lines, tasks, t.ID)
			lines = append(lines, "-- end --")
			continue
		}
		lines = append(lines, formatTask(t))
	}
	return lines
}

func formatTask(t domain.Task) string {
	if t.IsMilestone {
		date := t.Start
		if date == "" {
			date = t.End
		}
		return fmt.Sprintf(`milestone "%s" as [%s] happens at %s`, t.Name, t.ID, date)
	}

	line := fmt.Sprintf(`task "%s" as [%s]`, t.Name, t.ID)
	switch {
	case t.Start != "" && t.End != "":
		return fmt.Sprintf("%s starts %s ends %s", line, t.Start, t.End)
	case t.Start != "":
		line += " starts " + t.Start
	case t.End != "":
		return line + " ends " + t.End
	}
	if t.DurationDays > 0 || t.Start == "" {
		line += fmt.Sprintf(" lasts %d days", t.DurationDays)
	}
	return line
}
