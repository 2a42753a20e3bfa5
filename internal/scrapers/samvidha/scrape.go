package samvidha

import (
	"context"
	"time"
)

// Fetcher is the part of Client the scrapes depend on.
type Fetcher interface {
	Fetch(ctx context.Context, cookies CookieSet, path string) (Page, error)
	PostForm(ctx context.Context, cookies CookieSet, path string, form map[string]string) (Page, error)
}

// Scrape fetches the page of a single-page parser and parses it.
func Scrape[T any](ctx context.Context, f Fetcher, cookies CookieSet, parser Parser[T]) (T, error) {
	var zero T
	page, err := f.Fetch(ctx, cookies, parser.Path())
	if err != nil {
		return zero, err
	}
	doc, err := Document(page)
	if err != nil {
		return zero, err
	}
	return parser.Parse(doc)
}

// ScrapeTimetable fetches the timetable page, submits its form back and parses the
// result.
func ScrapeTimetable(ctx context.Context, f Fetcher, cookies CookieSet, now func() time.Time) (Timetable, error) {
	page, err := f.Fetch(ctx, cookies, TimetablePath)
	if err != nil {
		return Timetable{}, err
	}
	doc, err := Document(page)
	if err != nil {
		return Timetable{}, err
	}
	form, err := ParseTimetableForm(doc)
	if err != nil {
		return Timetable{}, err
	}

	parser := TimetableParser(now)
	page, err = f.PostForm(ctx, cookies, parser.Path(), form.Values())
	if err != nil {
		return Timetable{}, err
	}
	doc, err = Document(page)
	if err != nil {
		return Timetable{}, err
	}
	return parser.Parse(doc)
}

// ScrapeLabRecord fetches the lab record page and then, for every subject, the weeks
// already submitted and the list of experiments. Any failed request fails the whole
// record.
func ScrapeLabRecord(ctx context.Context, f Fetcher, cookies CookieSet) (LabRecord, error) {
	page, err := f.Fetch(ctx, cookies, LabRecordPath)
	if err != nil {
		return LabRecord{}, err
	}
	doc, err := Document(page)
	if err != nil {
		return LabRecord{}, err
	}
	labPage, err := ParseLabPage(doc)
	if err != nil {
		return LabRecord{}, err
	}

	record := LabRecord{Courses: []LabCourse{}}
	index := map[string]int{}
	for _, subject := range labPage.Subjects {
		submittedPage, err := f.PostForm(ctx, cookies, LabAjaxPath, labPage.SubmittedForm(subject.Code))
		if err != nil {
			return LabRecord{}, err
		}
		submitted, err := ParseSubmittedWeeks(submittedPage.Body)
		if err != nil {
			return LabRecord{}, err
		}

		experimentsPage, err := f.PostForm(ctx, cookies, LabAjaxPath, labPage.ExperimentsForm(subject.Code))
		if err != nil {
			return LabRecord{}, err
		}
		experimentsDoc, err := Document(experimentsPage)
		if err != nil {
			return LabRecord{}, err
		}

		course := LabCourse{
			Code:        subject.Code,
			SubjectName: subject.Name,
			Deadlines:   ParseLabExperiments(experimentsDoc, submitted),
		}
		// a subject listed twice keeps its first position and its last contents
		if i, seen := index[subject.Code]; seen {
			record.Courses[i] = course
			continue
		}
		index[subject.Code] = len(record.Courses)
		record.Courses = append(record.Courses, course)
	}
	return record, nil
}
