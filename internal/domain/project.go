package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by tasks and projects.
const DateLayout = "2006-01-02"

// maxSpanDays is the number of days from 0001-01-01 to 9999-12-31.
const maxSpanDays = 3652058

var taskIDPattern = regexp.MustCompile(`^[-\w]+$`)

// Task is a single row of a Gantt chart: a plain task, a milestone or a group.
// JSON keys follow the frontend's project model.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
	DurationDays int      `json:"durationDays"`
	Order        int      `json:"order"`
	ParentID     string   `json:"parentId,omitempty"`
	Dependencies []string `json:"dependencies"`
	IsGroup      bool     `json:"isGroup,omitempty"`
	IsMilestone  bool     `json:"isMilestone,omitempty"`
}

// Project is the root aggregate: a calendar start date and an ordered task list.
type Project struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CalendarStart string     `json:"calendarStart"`
	Tasks         []Task     `json:"tasks"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// ProjectInput is the inbound payload for creating or replacing a stored project.
type ProjectInput struct {
	Name     string `json:"name"`
	PlantUML string `json:"plantuml"`
}

// ListFilter holds pagination parameters for project listing.
type ListFilter struct {
	Page  int
	Limit int
}

// IsValidTaskID reports whether id can be written inside PlantUML brackets.
func IsValidTaskID(id string) bool {
	return taskIDPattern.MatchString(id)
}

// IsValidDate reports whether s is a real calendar date in DateLayout.
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Clone returns a deep copy so callers can never alias stored state.
func (p *Project) Clone() *Project {
	c := *p
	c.Tasks = make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		t.Dependencies = append([]string{}, t.Dependencies...)
		c.Tasks[i] = t
	}
	if p.CreatedAt != nil {
		ts := *p.CreatedAt
		c.CreatedAt = &ts
	}
	if p.UpdatedAt != nil {
		ts := *p.UpdatedAt
		c.UpdatedAt = &ts
	}
	return &c
}

// TaskByID returns a pointer into p.Tasks, or nil.
func (p *Project) TaskByID(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// GroupID is the id a group receives when it sits at position pos (0-based)
// in the document outline. PlantUML group headers carry no id of their own.
func GroupID(pos int) string {
	return fmt.Sprintf("group-%d", pos+1)
}

// AddDays returns date shifted by days, and false when the result no longer
// fits DateLayout. date must already be valid.
func AddDays(date string, days int) (string, bool) {
	// Larger shifts cannot land inside DateLayout and would overflow time.Date.
	if days < -maxSpanDays || days > maxSpanDays {
		return "", false
	}
	t, _ := time.Parse(DateLayout, date)
	out := t.AddDate(0, 0, days).Format(DateLayout)
	return out, IsValidDate(out)
}

// Validate checks that the project can be serialized to PlantUML and parsed
// back with the same ids, names, start dates, parents and dependencies.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name must not be empty")
	}
	if !IsValidDate(p.CalendarStart) {
		return invalid("calendarStart %q is not a valid date", p.CalendarStart)
	}

	byID := make(map[string]*Task, len(p.Tasks))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if !IsValidTaskID(t.ID) {
			return invalid("task %d: invalid id %q", i, t.ID)
		}
		if _, dup := byID[t.ID]; dup {
			return invalid("duplicate task id %q", t.ID)
		}
		byID[t.ID] = t

		if strings.TrimSpace(t.Name) == "" || strings.ContainsAny(t.Name, "\"\r\n") {
			return invalid("task %q: name must be non-empty and free of quotes and line breaks", t.ID)
		}
		if t.IsGroup && strings.TrimSpace(t.Name) != t.Name {
			return invalid("group %q: name %q has surrounding whitespace", t.ID, t.Name)
		}
		if t.IsGroup && strings.EqualFold(t.Name, "end") {
			return invalid("group %q: name %q is reserved", t.ID, t.Name)
		}
		if t.IsGroup && t.IsMilestone {
			return invalid("task %q: cannot be both a group and a milestone", t.ID)
		}
		if t.Start != "" && !IsValidDate(t.Start) {
			return invalid("task %q: invalid start %q", t.ID, t.Start)
		}
		if t.End != "" && !IsValidDate(t.End) {
			return invalid("task %q: invalid end %q", t.ID, t.End)
		}
		if t.IsMilestone && t.Start == "" && t.End == "" {
			return invalid("milestone %q: needs a date", t.ID)
		}
		if t.DurationDays < 0 {
			return invalid("task %q: negative duration", t.ID)
		}
		if !t.IsGroup && !t.IsMilestone && t.Start == "" && t.End == "" && t.DurationDays == 0 {
			return invalid("task %q: needs a start, an end or a positive duration", t.ID)
		}
		if !t.IsGroup && !t.IsMilestone && t.End == "" {
			start := t.Start
			if start == "" {
				start = p.CalendarStart
			}
			if _, ok := AddDays(start, t.DurationDays); !ok {
				return invalid("task %q: duration of %d days ends past year 9999", t.ID, t.DurationDays)
			}
		}
	}

	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.ParentID != "" {
			parent, ok := byID[t.ParentID]
			if !ok || !parent.IsGroup {
				return invalid("task %q: parent %q is not a group", t.ID, t.ParentID)
			}
			// Walking more than len(tasks) parents means the chain loops.
			hops := 0
			for cur := parent; cur != nil && cur.ParentID != ""; cur = byID[cur.ParentID] {
				hops++
				if hops > len(p.Tasks) {
					return invalid("task %q: parent chain forms a cycle", t.ID)
				}
			}
		}
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				return invalid("task %q: dependency %q does not exist", t.ID, dep)
			}
		}
	}

	for pos, t := range p.Outline() {
		if t.IsGroup && t.ID != GroupID(pos) {
			return invalid("group %q: id must be %q to match its position", t.ID, GroupID(pos))
		}
	}
	return nil
}

// Outline returns the tasks in document order: children follow their group,
// siblings are sorted by Order. Tasks unreachable from the root are omitted.
func (p *Project) Outline() []*Task {
	children := make(map[string][]*Task)
	for i := range p.Tasks {
		t := &p.Tasks[i]
		children[t.ParentID] = append(children[t.ParentID], t)
	}

	out := make([]*Task, 0, len(p.Tasks))
	var walk func(parentID string)
	walk = func(parentID string) {
		kids := children[parentID]
		sort.SliceStable(kids, func(i, j int) bool { return kids[i].Order < kids[j].Order })
		for _, t := range kids {
			out = append(out, t)
			if t.IsGroup {
				walk(t.ID)
			}
		}
	}
	walk("")
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProject, fmt.Sprintf(format, args...))
}
