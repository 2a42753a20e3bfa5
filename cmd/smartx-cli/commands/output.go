package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/student"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printJson(value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

var statusColors = map[string]text.Colors{
	"green":  {text.FgGreen},
	"orange": {text.FgYellow},
	"red":    {text.FgRed},
}

func printProfile(p samvidha.Profile) {
	t := newTable()
	t.AppendRows([]table.Row{
		{"Name", p.FullName},
		{"Roll No", p.RollNo},
		{"Branch", p.BranchAcronym},
		{"Year / Sem", p.YearSem},
		{"Section", p.Section},
		{"Gender", p.Gender},
		{"Email", p.Email},
		{"Batch", p.Batch},
	})
	t.Render()
}

func printAttendance(a samvidha.AttendanceSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"Course", "Conducted", "Attended", "%", "Status"})
	for _, c := range a.Courses {
		percentage := fmt.Sprintf("%.2f", c.Percentage)
		if colors, ok := statusColors[c.ColorCode]; ok {
			percentage = colors.Sprint(percentage)
		}
		t.AppendRow(table.Row{c.Name, c.Conducted, c.Attended, percentage, c.Status})
	}
	t.AppendFooter(table.Row{"Overall", "", "", fmt.Sprintf("%.2f", a.OverallPercentage), a.LastSemDate})
	t.Render()
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func printTimetable(tt samvidha.Timetable) {
	t := newTable()
	t.AppendHeader(table.Row{"Day", "Period", "Subject", "Room"})
	for _, day := range weekdays {
		for _, p := range tt.Days[day] {
			t.AppendRow(table.Row{day, p.Label, p.SubjectFull, p.Room})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	t.Render()

	today := newTable()
	today.SetTitle("Today (%s)", chrono.NewStandardTime().Now().Weekday())
	today.AppendHeader(table.Row{"Period", "Subject", "Room"})
	for _, p := range tt.TodaySchedule {
		today.AppendRow(table.Row{p.Label, p.SubjectShort, p.Room})
	}
	today.Render()
}

func printBio(log samvidha.BioLog, summary samvidha.BioSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Date", "Status"})
	for _, e := range log.Entries {
		t.AppendRow(table.Row{e.SNo, e.Date, e.Status})
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d / %d", summary.PresentDays, summary.TotalDays),
		fmt.Sprintf("%.2f%%", summary.Percentage),
	})
	t.Render()
}

func printLabs(record samvidha.LabRecord) {
	for _, course := range record.Courses {
		t := newTable()
		t.SetTitle("%s - %s", course.Code, course.SubjectName)
		t.AppendHeader(table.Row{"Week", "Title", "Due", "Submitted"})
		for _, d := range course.Deadlines {
			submitted := text.FgRed.Sprint("no")
			if d.Submitted {
				submitted = text.FgGreen.Sprint("yes")
			}
			t.AppendRow(table.Row{d.Week, d.Title, d.DueDateStr, submitted})
		}
		t.Render()
	}
}

func printResults(r samvidha.ResultsSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"Semester", "SGPA"})
	for _, s := range r.Semesters {
		t.AppendRow(table.Row{s.Semester, s.Sgpa})
	}
	t.AppendFooter(table.Row{"CGPA", r.Cgpa})
	t.Render()
}

func printRegister(r samvidha.AttendanceRegister) {
	t := newTable()
	header := table.Row{"Date"}
	for _, subject := range r.Subjects {
		header = append(header, subject)
	}
	t.AppendHeader(header)
	for i, date := range r.Dates {
		row := table.Row{date}
		for _, subject := range r.Subjects {
			row = append(row, r.Register[subject][i])
		}
		t.AppendRow(row)
	}
	t.Render()
}

func printAcademic(info student.AcademicInfo) {
	t := newTable()
	t.AppendRows([]table.Row{
		{"Class attendance", fmt.Sprintf("%.2f", info.ClassAttendance)},
		{"Biometric attendance", fmt.Sprintf("%.2f", info.BioAttendance)},
		{"SGPA", fmt.Sprintf("%.2f", info.Sgpa)},
		{"CGPA", fmt.Sprintf("%.2f", info.Cgpa)},
	})
	t.Render()
}

func printDashboard(d student.Dashboard) {
	if d.Timetable.Err != nil {
		fmt.Fprintln(os.Stderr, "timetable:", d.Timetable.Err)
	} else {
		printTimetable(d.Timetable.Data)
	}
	if d.BioSummary.Err != nil {
		fmt.Fprintln(os.Stderr, "biometric:", d.BioSummary.Err)
	} else {
		s := d.BioSummary.Data
		fmt.Printf("Biometric: %d / %d (%.2f%%)\n", s.PresentDays, s.TotalDays, s.Percentage)
	}

	if d.Deadlines.Error != "" {
		fmt.Fprintln(os.Stderr, "labs:", d.Deadlines.Error)
		return
	}
	t := newTable()
	t.SetTitle("Upcoming lab deadlines")
	t.AppendHeader(table.Row{"Due", "Course", "Week", "Title"})
	for _, lab := range d.Deadlines.UnsubmittedLabs {
		t.AppendRow(table.Row{lab.DueDateObj, lab.CourseName, lab.Week, lab.Title})
	}
	t.Render()
}
