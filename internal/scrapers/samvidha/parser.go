package samvidha

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Kind identifies one category of scraped data, it is also the cache key of that data.
type Kind string

const (
	KindProfile            Kind = "profile"
	KindAttendance         Kind = "attendance"
	KindTimetable          Kind = "timetable"
	KindBioLog             Kind = "bio_log"
	KindLab                Kind = "lab"
	KindResults            Kind = "results"
	KindAttendanceRegister Kind = "attendance_register"
)

// Parser turns a fetched page into one kind of entity.
type Parser[T any] interface {
	Kind() Kind
	// Path is the page the parser expects.
	Path() string
	Parse(doc *goquery.Document) (T, error)
}

type parserFunc[T any] struct {
	kind  Kind
	path  string
	parse func(doc *goquery.Document) (T, error)
}

func (p parserFunc[T]) Kind() Kind {
	return p.kind
}

func (p parserFunc[T]) Path() string {
	return p.path
}

func (p parserFunc[T]) Parse(doc *goquery.Document) (T, error) {
	return p.parse(doc)
}

var (
	ProfileParser    Parser[Profile]            = parserFunc[Profile]{KindProfile, ProfilePath, ParseProfile}
	AttendanceParser Parser[AttendanceSummary]  = parserFunc[AttendanceSummary]{KindAttendance, AttendancePath, ParseAttendance}
	BioLogParser     Parser[BioLog]             = parserFunc[BioLog]{KindBioLog, BioLogPath, ParseBioLog}
	ResultsParser    Parser[ResultsSummary]     = parserFunc[ResultsSummary]{KindResults, ResultsPath, ParseResults}
	RegisterParser   Parser[AttendanceRegister] = parserFunc[AttendanceRegister]{KindAttendanceRegister, CourseContentPath, ParseRegister}
)

// TimetableParser parses the resubmitted timetable page, today's schedule is picked
// with the time returned by now.
func TimetableParser(now func() time.Time) Parser[Timetable] {
	return parserFunc[Timetable]{
		kind: KindTimetable,
		path: TimetablePath,
		parse: func(doc *goquery.Document) (Timetable, error) {
			return ParseTimetable(doc, now())
		},
	}
}

// Document parses a fetched page.
func Document(page Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, parseErrorf("parse html: %s", err.Error())
	}
	return doc, nil
}

// rowsAfter drops the first n elements of sel, it returns an empty selection if sel
// has n elements or less.
func rowsAfter(sel *goquery.Selection, n int) *goquery.Selection {
	if sel.Length() <= n {
		return sel.Slice(0, 0)
	}
	return sel.Slice(n, goquery.ToEnd)
}
