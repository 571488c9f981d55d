// Package gantt converts between PlantUML Gantt documents and domain.Project.
package gantt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ganttwork/planner/internal/domain"
)

const (
	startToken = "@startgantt"
	endToken   = "@endgantt"

	defaultProjectID   = "project-1"
	defaultProjectName = "Project"
)

var (
	projectStartsRe   = regexp.MustCompile(`(?i)^project\s+starts\s+`)
	projectStartsDate = regexp.MustCompile(`(?i)^project\s+starts\s+(\d{4}-\d{2}-\d{2})`)
	groupRe           = regexp.MustCompile(`^--\s*(.+?)\s*--$`)
	milestoneRe       = regexp.MustCompile(`(?i)^milestone\s+"([^"]+)"\s+as\s+\[([^\]]+)\]\s+happens\s+at\s+(\d{4}-\d{2}-\d{2})$`)
	taskRe            = regexp.MustCompile(`(?i)^task\s+"([^"]+)"\s+as\s+\[([^\]]+)\](?:\s+(.*))?$`)
	dependencyRe      = regexp.MustCompile(`^\[([^\]]+)\]\s*-->\s*\[([^\]]+)\]$`)

	startsRe = regexp.MustCompile(`(?i)starts\s+(\d{4}-\d{2}-\d{2})`)
	endsRe   = regexp.MustCompile(`(?i)ends\s+(\d{4}-\d{2}-\d{2})`)
	lastsRe  = regexp.MustCompile(`(?i)lasts\s+(\d+)\s+days?`)
)

// Parser turns PlantUML Gantt text into a Project.
// Now supplies the calendar start used when the document has no
// "Project starts" line; it defaults to time.Now.
type Parser struct {
	Now func() time.Time
}

// NewParser returns a Parser using the wall clock.
func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Parse is shorthand for NewParser().Parse(text).
func Parse(text string) (*domain.Project, error) {
	return NewParser().Parse(text)
}

type pendingDependency struct {
	from, to string
	line     int
}

type parseState struct {
	project *domain.Project
	groups  []string
	order   int
	deps    []pendingDependency
	seen    map[string]bool
}

// Parse reads the first @startgantt ... @endgantt block of text. Lines outside
// the block are ignored. Any failure is returned as a *ParseError.
func (p *Parser) Parse(text string) (*domain.Project, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	startIdx := indexOfToken(lines, startToken)
	if startIdx == -1 {
		return nil, newError(1, KindSyntax, "Missing %s", startToken)
	}
	endIdx := indexOfToken(lines, endToken)
	if endIdx == -1 || endIdx < startIdx {
		return nil, newError(len(lines), KindSyntax, "Missing %s", endToken)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	st := &parseState{
		project: &domain.Project{
			ID:            defaultProjectID,
			Name:          defaultProjectName,
			CalendarStart: now().UTC().Format(domain.DateLayout),
			Tasks:         []domain.Task{},
		},
		seen: make(map[string]bool),
	}

	for i, raw := range lines[startIdx+1 : endIdx] {
		lineNo := startIdx + 2 + i
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := st.parseLine(line, lineNo); err != nil {
			return nil, err
		}
	}

	if err := st.resolveDependencies(); err != nil {
		return nil, err
	}
	return st.project, nil
}

func (st *parseState) parseLine(line string, lineNo int) error {
	if projectStartsRe.MatchString(line) {
		m := projectStartsDate.FindStringSubmatch(line)
		if m == nil {
			return newError(lineNo, KindSyntax, "Project start date is missing")
		}
		if !domain.IsValidDate(m[1]) {
			return newError(lineNo, KindValidation, "Invalid date format: %s", m[1])
		}
		st.project.CalendarStart = m[1]
		return nil
	}

	if m := groupRe.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[1])
		if strings.EqualFold(name, "end") {
			if len(st.groups) > 0 {
				st.groups = st.groups[:len(st.groups)-1]
			}
			return nil
		}
		if name == "" {
			return newError(lineNo, KindSyntax, "Group name is empty")
		}
		id := domain.GroupID(st.order)
		if err := st.claimID(id, lineNo); err != nil {
			return err
		}
		st.appendTask(domain.Task{ID: id, Name: name, IsGroup: true})
		st.groups = append(st.groups, id)
		return nil
	}

	if m := milestoneRe.FindStringSubmatch(line); m != nil {
		name, id, date := m[1], m[2], m[3]
		if err := st.checkID(id, lineNo); err != nil {
			return err
		}
		if !domain.IsValidDate(date) {
			return newError(lineNo, KindValidation, "Invalid date format: %s", date)
		}
		st.appendTask(domain.Task{ID: id, Name: name, Start: date, End: date, IsMilestone: true})
		return nil
	}

	if m := taskRe.FindStringSubmatch(line); m != nil {
		return st.parseTask(m[1], m[2], m[3], lineNo)
	}

	if m := dependencyRe.FindStringSubmatch(line); m != nil {
		st.deps = append(st.deps, pendingDependency{from: m[1], to: m[2], line: lineNo})
		return nil
	}

	return newError(lineNo, KindSyntax, "Unrecognized line: %s", line)
}

func (st *parseState) parseTask(name, id, rest string, lineNo int) error {
	if err := st.checkID(id, lineNo); err != nil {
		return err
	}

	var start, end string
	duration := 0
	if m := startsRe.FindStringSubmatch(rest); m != nil {
		start = m[1]
	}
	if m := endsRe.FindStringSubmatch(rest); m != nil {
		end = m[1]
	}
	for _, d := range []string{start, end} {
		if d != "" && !domain.IsValidDate(d) {
			return newError(lineNo, KindValidation, "Invalid date format: %s", d)
		}
	}
	if m := lastsRe.FindStringSubmatch(rest); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return newError(lineNo, KindValidation, "Invalid duration: %s", m[1])
		}
		duration = n
	}

	if duration == 0 && start == "" && end == "" {
		return newError(lineNo, KindValidation, "Task must include start/end dates or duration")
	}

	if start == "" {
		start = st.project.CalendarStart
	}
	if end != "" {
		duration = diffDays(start, end)
	} else {
		var ok bool
		if end, ok = domain.AddDays(start, duration); !ok {
			return newError(lineNo, KindValidation, "Invalid duration: %d days from %s ends past year 9999", duration, start)
		}
	}

	st.appendTask(domain.Task{ID: id, Name: name, Start: start, End: end, DurationDays: duration})
	return nil
}

func (st *parseState) resolveDependencies() error {
	for _, d := range st.deps {
		target := st.project.TaskByID(d.to)
		if target == nil || st.project.TaskByID(d.from) == nil {
			return newError(d.line, KindSemantic, "Dependency references unknown task")
		}
		target.Dependencies = append(target.Dependencies, d.from)
	}
	return nil
}

func (st *parseState) checkID(id string, lineNo int) error {
	if !domain.IsValidTaskID(id) {
		return newError(lineNo, KindValidation, "Invalid ID: [%s]", id)
	}
	return st.claimID(id, lineNo)
}

func (st *parseState) claimID(id string, lineNo int) error {
	if st.seen[id] {
		return newError(lineNo, KindValidation, "Duplicate ID: [%s]", id)
	}
	st.seen[id] = true
	return nil
}

// appendTask fills in order, parent and an empty dependency list.
func (st *parseState) appendTask(t domain.Task) {
	t.Order = st.order
	if len(st.groups) > 0 {
		t.ParentID = st.groups[len(st.groups)-1]
	}
	t.Dependencies = []string{}
	st.project.Tasks = append(st.project.Tasks, t)
	st.order++
}

func indexOfToken(lines []string, token string) int {
	for i, l := range lines {
		if strings.ToLower(strings.TrimSpace(l)) == token {
			return i
		}
	}
	return -1
}

// diffDays counts whole calendar days from start to end, or 0 when end is
// earlier. Both dates must already be valid.
func diffDays(start, end string) int {
	s, _ := time.Parse(domain.DateLayout, start)
	e, _ := time.Parse(domain.DateLayout, end)
	const secondsPerDay = 24 * 60 * 60
	return int(max(0, (e.Unix()-s.Unix())/secondsPerDay))
}
