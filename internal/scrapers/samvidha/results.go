package samvidha

import (
	"strings"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseResults parses the results page (ResultsPath). A page without a results table
// yields no semesters rather than an error.
func ParseResults(doc *goquery.Document) (ResultsSummary, error) {
	semesters := []SemesterResult{}
	table := doc.Find("table.table-bordered").First()
	rowsAfter(table.Find("tr"), 1).Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.CellTexts(row)
		if len(cells) < 10 {
			return
		}
		semesters = append(semesters, SemesterResult{
			Semester: cells[1],
			Sgpa:     cells[9],
		})
	})

	cgpa := Sentinel
	heading := doc.Find("h3.text-center").First()
	if heading.Length() > 0 {
		text := htmlutil.GetText(heading.Get(0))
		if strings.Contains(text, "CGPA") {
			segments := strings.Split(text, ":")
			cgpa = strings.TrimSpace(segments[len(segments)-1])
		}
	}

	return ResultsSummary{Semesters: semesters, Cgpa: cgpa}, nil
}
