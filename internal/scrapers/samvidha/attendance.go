package samvidha

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// AttendanceColor classifies an attendance percentage: >= 75 is green, >= 65 is
// orange, anything lower is red.
func AttendanceColor(percentage float64) string {
	switch {
	case percentage >= 75:
		return "green"
	case percentage >= 65:
		return "orange"
	default:
		return "red"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// ParseFloat parses a finite decimal number surrounded by optional whitespace.
func ParseFloat(text string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("'%s' is not a finite number", text)
	}
	return value, nil
}

func parseInt(text string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(text))
}

func findLastSemDate(doc *goquery.Document) string {
	value := ""
	doc.Find("th, td").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.Contains(htmlutil.StrippedText(label), "Last Date of Semester") {
			return true
		}
		next := label.NextAllFiltered("td").First()
		if next.Length() > 0 {
			value = htmlutil.StrippedText(next)
		}
		return false
	})
	if value == "" {
		return Sentinel
	}
	return value
}

func parseCourseRow(cells []string) (Course, bool) {
	if len(cells) <= 8 {
		return Course{}, false
	}
	percentage, err := ParseFloat(cells[7])
	if err != nil {
		return Course{}, false
	}
	conducted, err := parseInt(cells[5])
	if err != nil {
		return Course{}, false
	}
	attended, err := parseInt(cells[6])
	if err != nil {
		return Course{}, false
	}
	return Course{
		Name:       cells[2],
		Conducted:  conducted,
		Attended:   attended,
		Percentage: percentage,
		Status:     cells[8],
		ColorCode:  AttendanceColor(percentage),
	}, true
}

// ParseAttendance parses the attendance page (AttendancePath). Rows that do not have
// numeric conducted/attended/percentage cells are skipped.
func ParseAttendance(doc *goquery.Document) (AttendanceSummary, error) {
	tables := doc.Find("table.table-head-fixed")
	if tables.Length() < 2 {
		return AttendanceSummary{}, parseErrorf("Attendance table not found")
	}

	courses := []Course{}
	totalConducted := 0
	totalAttended := 0
	tables.Eq(1).Find("tbody").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		course, ok := parseCourseRow(htmlutil.CellTexts(row))
		if !ok {
			return
		}
		courses = append(courses, course)
		totalConducted += course.Conducted
		totalAttended += course.Attended
	})

	overall := 0.0
	if totalConducted > 0 {
		overall = float64(totalAttended) / float64(totalConducted) * 100
	}

	return AttendanceSummary{
		Courses:           courses,
		OverallPercentage: round2(overall),
		LastSemDate:       findLastSemDate(doc),
	}, nil
}
