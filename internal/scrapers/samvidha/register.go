package samvidha

import (
	"sort"
	"strings"
	"time"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	registerDateLayout = "2 Jan, 2006"
	isoDateLayout      = "2006-01-02"
)

// ParseRegister parses the course content page (CourseContentPath) into a subject by
// date matrix. Rows with a date that is not formatted like "5 Jan, 2024" are skipped.
func ParseRegister(doc *goquery.Document) (AttendanceRegister, error) {
	body := doc.Find("table.table-sm").First().Find("tbody").First()
	if body.Length() == 0 {
		return AttendanceRegister{}, parseErrorf("Could not find attendance register table.")
	}

	// subject -> date -> status
	statuses := map[string]map[string]string{}
	dates := map[string]struct{}{}
	current := ""

	body.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header := row.Find("th.bg-pink").First()
		if header.Length() > 0 {
			text := htmlutil.StrippedText(header)
			segments := strings.SplitN(text, "-", 2)
			current = strings.TrimSpace(segments[len(segments)-1])
			if _, ok := statuses[current]; !ok {
				statuses[current] = map[string]string{}
			}
			return
		}

		cells := row.Find("td")
		if cells.Length() < 5 || current == "" {
			return
		}
		dateText := htmlutil.StrippedText(cells.Eq(1))
		status := htmlutil.StrippedText(cells.Eq(4))
		if dateText == "" || (status != "PRESENT" && status != "ABSENT") {
			return
		}
		date, err := time.Parse(registerDateLayout, dateText)
		if err != nil {
			return
		}
		formatted := date.Format(isoDateLayout)
		dates[formatted] = struct{}{}
		statuses[current][formatted] = status
	})

	out := AttendanceRegister{
		Subjects: make([]string, 0, len(statuses)),
		Dates:    make([]string, 0, len(dates)),
		Register: make(map[string][]string, len(statuses)),
	}
	for subject := range statuses {
		out.Subjects = append(out.Subjects, subject)
	}
	sort.Strings(out.Subjects)
	for date := range dates {
		out.Dates = append(out.Dates, date)
	}
	// iso dates sort lexicographically
	sort.Sort(sort.Reverse(sort.StringSlice(out.Dates)))

	for _, subject := range out.Subjects {
		row := make([]string, len(out.Dates))
		for i, date := range out.Dates {
			status, ok := statuses[subject][date]
			if !ok {
				status = Sentinel
			}
			row[i] = status
		}
		out.Register[subject] = row
	}
	return out, nil
}
