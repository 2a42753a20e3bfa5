package samvidha

import (
	"encoding/json"
	"strings"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type LabSubject struct {
	Code string
	Name string
}

// LabPage holds the hidden form values and the subjects listed on the lab record page.
type LabPage struct {
	AcademicYear string
	RollNo       string
	Subjects     []LabSubject
}

// SubmittedForm is the payload that lists the weeks already submitted for a subject.
func (p LabPage) SubmittedForm(code string) map[string]string {
	return map[string]string{
		"rollno":   p.RollNo,
		"ay":       p.AcademicYear,
		"sub_code": code,
		"action":   "day2day_lab",
	}
}

// ExperimentsForm is the payload that lists every experiment of a subject.
func (p LabPage) ExperimentsForm(code string) map[string]string {
	return map[string]string{
		"ay":       p.AcademicYear,
		"sub_code": code,
		"action":   "get_exp_list",
	}
}

// ParseLabPage parses the lab record page (LabRecordPath).
func ParseLabPage(doc *goquery.Document) (LabPage, error) {
	ay := doc.Find(`input[name="ay"]`).First()
	rollNo := doc.Find(`input[name="rollno"]`).First()
	if ay.Length() == 0 || rollNo.Length() == 0 {
		return LabPage{}, parseErrorf("Failed to fetch lab data: lab record form not found")
	}

	page := LabPage{
		AcademicYear: ay.AttrOr("value", ""),
		RollNo:       rollNo.AttrOr("value", ""),
	}
	doc.Find(`select[name="ddlsub_code"] option`).Each(func(_ int, option *goquery.Selection) {
		code := option.AttrOr("value", "")
		if code == "" {
			return
		}
		name := strings.TrimSpace(htmlutil.GetText(option.Get(0)))
		if idx := strings.LastIndex(name, " - "); idx >= 0 {
			name = strings.TrimSpace(name[idx+len(" - "):])
		}
		page.Subjects = append(page.Subjects, LabSubject{Code: code, Name: name})
	})
	return page, nil
}

// ParseSubmittedWeeks parses the json returned for SubmittedForm, week numbers are
// returned as text regardless of whether the portal encoded them as strings or numbers.
func ParseSubmittedWeeks(body []byte) (map[string]struct{}, error) {
	var res struct {
		Data []struct {
			WeekNo json.RawMessage `json:"week_no"`
		} `json:"data"`
	}
	err := json.Unmarshal(body, &res)
	if err != nil {
		return nil, parseErrorf("Failed to fetch lab data: %s", err.Error())
	}

	weeks := map[string]struct{}{}
	for _, item := range res.Data {
		if len(item.WeekNo) == 0 || string(item.WeekNo) == "null" {
			continue
		}
		var text string
		if json.Unmarshal(item.WeekNo, &text) != nil {
			text = string(item.WeekNo)
		}
		weeks[text] = struct{}{}
	}
	return weeks, nil
}

// ParseLabExperiments parses the experiment list returned for ExperimentsForm, a
// missing table yields no deadlines.
func ParseLabExperiments(doc *goquery.Document, submitted map[string]struct{}) []LabDeadline {
	deadlines := []LabDeadline{}
	table := doc.Find("table").First()
	rowsAfter(table.Find("tr"), 1).Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.CellTexts(row)
		if len(cells) < 5 {
			return
		}
		week := strings.TrimSpace(strings.ReplaceAll(cells[0], "Week-", ""))
		_, done := submitted[week]
		deadlines = append(deadlines, LabDeadline{
			Week:       cells[0],
			Title:      cells[2],
			DueDateStr: cells[4],
			Submitted:  done,
		})
	})
	return deadlines
}
