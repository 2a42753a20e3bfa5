package samvidha

import (
	"strings"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

func isBioStatus(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "present") || strings.Contains(lower, "absent")
}

func isBioPresent(status string) bool {
	return strings.EqualFold(status, "P") ||
		strings.Contains(strings.ToLower(status), "present")
}

// ParseBioLog parses the biometric log page (BioLogPath). The status column is the
// first cell mentioning present or absent in the first row that has one, rows without
// a status in that column are skipped.
func ParseBioLog(doc *goquery.Document) (BioLog, error) {
	body := doc.Find("table.table-striped").First().Find("tbody").First()
	if body.Length() == 0 {
		return BioLog{}, parseErrorf("Could not find biometric data table.")
	}

	var rows [][]string
	body.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, htmlutil.CellTexts(row))
	})
	if len(rows) == 0 {
		return BioLog{}, parseErrorf("No data rows found.")
	}

	statusCol := -1
	for _, row := range rows {
		for i, text := range row {
			if isBioStatus(text) {
				statusCol = i
				break
			}
		}
		if statusCol >= 0 {
			break
		}
	}
	if statusCol < 0 {
		return BioLog{}, parseErrorf("Could not find any 'Present' or 'Absent' column.")
	}

	entries := []BioEntry{}
	for _, row := range rows {
		status := htmlutil.At(row, statusCol)
		if !isBioStatus(status) {
			continue
		}
		entries = append(entries, BioEntry{
			SNo:    htmlutil.At(row, 0),
			Date:   htmlutil.At(row, 3),
			Status: status,
		})
	}
	return BioLog{Entries: entries}, nil
}

// SummarizeBio counts the present days of a biometric log.
func SummarizeBio(log BioLog) BioSummary {
	present := 0
	for _, entry := range log.Entries {
		if isBioPresent(entry.Status) {
			present++
		}
	}
	total := len(log.Entries)

	percentage := 0.0
	if total > 0 {
		percentage = float64(present) / float64(total) * 100
	}
	return BioSummary{
		PresentDays: present,
		TotalDays:   total,
		Percentage:  round2(percentage),
	}
}
