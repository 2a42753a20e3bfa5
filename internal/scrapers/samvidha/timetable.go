package samvidha

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// TimetableForm holds the values of the selects on the timetable page that must be
// submitted back to obtain the actual timetable.
type TimetableForm struct {
	AcademicYear string
	SectionData  string
}

// Values returns the form payload for PostForm.
func (f TimetableForm) Values() map[string]string {
	return map[string]string{
		"ay":             f.AcademicYear,
		"sec_data":       f.SectionData,
		"btn_faculty_tt": "show",
	}
}

// ParseTimetableForm reads the academic year (first option) and the section (second
// option) off the initial timetable page.
func ParseTimetableForm(doc *goquery.Document) (TimetableForm, error) {
	ay := doc.Find(`select[name="ay"]`).First().Find("option").First().AttrOr("value", "")
	sectionOptions := doc.Find(`select[name="sec_data"]`).First().Find("option")
	sec := ""
	if sectionOptions.Length() > 1 {
		sec = sectionOptions.Eq(1).AttrOr("value", "")
	}
	if ay == "" || sec == "" {
		return TimetableForm{}, parseErrorf("Could not determine AY or Section for timetable.")
	}
	return TimetableForm{AcademicYear: ay, SectionData: sec}, nil
}

var shortNameIgnored = map[string]struct{}{
	"of":  {},
	"and": {},
	"the": {},
}

// ShortName abbreviates a subject name: the part before a "/" if there is one, the
// upper-cased name if it is at most 7 characters, otherwise the initials of every word
// except "of", "and" and "the".
func ShortName(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "/") {
		return strings.TrimSpace(strings.SplitN(name, "/", 2)[0])
	}
	if utf8.RuneCountInString(name) <= 7 {
		return strings.ToUpper(name)
	}

	var out strings.Builder
	for _, word := range strings.Fields(name) {
		if _, ignored := shortNameIgnored[strings.ToLower(word)]; ignored {
			continue
		}
		first, _ := utf8.DecodeRuneInString(word)
		out.WriteString(strings.ToUpper(string(first)))
	}
	return out.String()
}

func parseSubjectLegend(table *goquery.Selection) map[string]string {
	subjects := map[string]string{}
	rowsAfter(table.Find("tr"), 1).Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.CellTexts(row)
		if len(cells) < 4 {
			return
		}
		subjects[cells[3]] = cells[2]
	})
	return subjects
}

func parseDayRow(row *goquery.Selection, subjects map[string]string) []Period {
	periods := []Period{}
	// the last laboratory period, consecutive cells without a known subject code
	// continue it.
	var lab *Period

	row.Find("td").Each(func(i int, cell *goquery.Selection) {
		label := fmt.Sprintf("Period - %d", i+1)
		parts := htmlutil.TextParts(cell)
		if len(parts) == 0 {
			lab = nil
			return
		}

		code := strings.SplitN(parts[0], " ", 2)[0]
		room := ""
		for _, p := range parts {
			if strings.Contains(p, "Room") {
				room = strings.TrimSpace(strings.ReplaceAll(p, "Room : ", ""))
			}
		}

		full := subjects[code]
		switch {
		case full != "":
			period := Period{
				Label:        label,
				SubjectFull:  full,
				SubjectShort: ShortName(full),
				Room:         room,
			}
			periods = append(periods, period)
			lab = nil
			if strings.Contains(full, "Laboratory") {
				lab = &period
			}
		case lab != nil:
			continued := *lab
			continued.Label = label
			if room != "" {
				continued.Room = room
			}
			periods = append(periods, continued)
		default:
			periods = append(periods, Period{
				Label:        label,
				SubjectFull:  code,
				SubjectShort: ShortName(code),
				Room:         room,
			})
		}
	})

	return periods
}

// ParseTimetable parses the timetable page returned after submitting TimetableForm.
// The first bordered table is the weekly grid, the second is the legend that maps
// subject codes to full names.
func ParseTimetable(doc *goquery.Document, now time.Time) (Timetable, error) {
	tables := doc.Find("table.table-bordered")
	if tables.Length() < 2 {
		return Timetable{}, parseErrorf("Timetable structure not found.")
	}
	subjects := parseSubjectLegend(tables.Eq(1))

	days := map[string][]Period{}
	rowsAfter(tables.Eq(0).Find("tr"), 2).Each(func(_ int, row *goquery.Selection) {
		dayCell := row.Find("th").First()
		if dayCell.Length() == 0 {
			return
		}
		day := htmlutil.At(htmlutil.TextParts(dayCell), 0)
		periods := parseDayRow(row, subjects)
		if day == "" || len(periods) == 0 {
			return
		}
		days[day] = periods
	})

	today, ok := days[now.In(chrono.IST()).Weekday().String()]
	if !ok {
		today = []Period{}
	}
	return Timetable{Days: days, TodaySchedule: today}, nil
}
