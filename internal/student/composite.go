package student

import (
	"context"
	"sort"
	"time"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/taskgroup"
	"smartx-backend/internal/scrapers/samvidha"
)

const (
	report_service_academic_info = "service.academic-info"
	report_service_dashboard     = "service.dashboard"
)

// compositeLimit is how many data kinds a composite view loads at once.
const compositeLimit = 3

const labDueDateLayout = "2-1-2006"

type AcademicInfo struct {
	ClassAttendance float64 `json:"class_attendance"`
	BioAttendance   float64 `json:"bio_attendance"`
	Sgpa            float64 `json:"sgpa"`
	Cgpa            float64 `json:"cgpa"`
}

// AcademicInfo summarizes attendance and grades, a part that fails to load is 0.
func (s Service) AcademicInfo(ctx context.Context, userId string) (AcademicInfo, error) {
	if !s.LoggedIn(userId) {
		return AcademicInfo{}, ErrNotLoggedIn
	}

	g := taskgroup.New(compositeLimit)
	attendance := taskgroup.Go(g, func() Result[samvidha.AttendanceSummary] {
		return resultOf[samvidha.AttendanceSummary](s.Attendance(ctx, userId))
	})
	bio := taskgroup.Go(g, func() Result[samvidha.BioSummary] {
		return resultOf[samvidha.BioSummary](s.BioSummary(ctx, userId))
	})
	results := taskgroup.Go(g, func() Result[samvidha.ResultsSummary] {
		return resultOf[samvidha.ResultsSummary](s.Results(ctx, userId))
	})
	g.Wait()

	info := AcademicInfo{}
	if res := attendance.Get(); res.Err == nil {
		info.ClassAttendance = res.Data.OverallPercentage
	} else {
		s.tel.ReportWarning(report_service_academic_info, res.Err, samvidha.KindAttendance)
	}
	if res := bio.Get(); res.Err == nil {
		info.BioAttendance = res.Data.Percentage
	} else {
		s.tel.ReportWarning(report_service_academic_info, res.Err, samvidha.KindBioLog)
	}
	if res := results.Get(); res.Err == nil {
		info.Sgpa, info.Cgpa = gradePoints(res.Data)
	} else {
		s.tel.ReportWarning(report_service_academic_info, res.Err, samvidha.KindResults)
	}
	return info, nil
}

// gradePoints returns the latest positive SGPA and the CGPA, anything that is not a
// number counts as 0.
func gradePoints(results samvidha.ResultsSummary) (sgpa float64, cgpa float64) {
	if len(results.Semesters) == 0 {
		return 0, 0
	}
	if parsed, err := samvidha.ParseFloat(results.Cgpa); err == nil {
		cgpa = parsed
	}
	for i := len(results.Semesters) - 1; i >= 0; i-- {
		parsed, err := samvidha.ParseFloat(results.Semesters[i].Sgpa)
		if err == nil && parsed > 0 {
			sgpa = parsed
			break
		}
	}
	return sgpa, cgpa
}

// UnsubmittedLab is a lab deadline that is still to be met.
type UnsubmittedLab struct {
	samvidha.LabDeadline
	// DueDateObj is the due date formatted as YYYY-MM-DD.
	DueDateObj string `json:"due_date_obj"`
	CourseName string `json:"course_name"`
}

type DeadlineSummary struct {
	UnsubmittedLabs []UnsubmittedLab `json:"unsubmitted_labs"`
	Error           string           `json:"error,omitempty"`
	Err             error            `json:"-"`
}

type Dashboard struct {
	Timetable  Result[samvidha.Timetable]  `json:"timetable_data"`
	BioSummary Result[samvidha.BioSummary] `json:"bio_summary_data"`
	Deadlines  DeadlineSummary             `json:"deadline_summary_data"`
}

// SessionExpired returns true if any part failed because the portal session lapsed.
func (d Dashboard) SessionExpired() bool {
	for _, err := range []error{d.Timetable.Err, d.BioSummary.Err, d.Deadlines.Err} {
		if samvidha.KindOf(err) == samvidha.SessionExpired {
			return true
		}
	}
	return false
}

// UpcomingLabs returns the unsubmitted deadlines due today or later ordered by due
// date, deadlines with a due date that is not formatted like "22-07-2024" are skipped.
func UpcomingLabs(record samvidha.LabRecord, today time.Time) []UnsubmittedLab {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	upcoming := []UnsubmittedLab{}
	for _, course := range record.Courses {
		for _, deadline := range course.Deadlines {
			if deadline.Submitted {
				continue
			}
			due, err := time.Parse(labDueDateLayout, deadline.DueDateStr)
			if err != nil || due.Before(start) {
				continue
			}
			upcoming = append(upcoming, UnsubmittedLab{
				LabDeadline: deadline,
				DueDateObj:  due.Format(time.DateOnly),
				CourseName:  course.SubjectName,
			})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDateObj < upcoming[j].DueDateObj
	})
	return upcoming
}

// Dashboard combines today's timetable, the biometric summary and the upcoming lab
// deadlines, each part fails independently.
func (s Service) Dashboard(ctx context.Context, userId string) (Dashboard, error) {
	if !s.LoggedIn(userId) {
		return Dashboard{}, ErrNotLoggedIn
	}

	g := taskgroup.New(compositeLimit)
	timetable := taskgroup.Go(g, func() Result[samvidha.Timetable] {
		return resultOf[samvidha.Timetable](s.Timetable(ctx, userId))
	})
	bio := taskgroup.Go(g, func() Result[samvidha.BioSummary] {
		return resultOf[samvidha.BioSummary](s.BioSummary(ctx, userId))
	})
	labs := taskgroup.Go(g, func() Result[samvidha.LabRecord] {
		return resultOf[samvidha.LabRecord](s.LabDeadlines(ctx, userId))
	})
	g.Wait()

	dashboard := Dashboard{
		Timetable:  timetable.Get(),
		BioSummary: bio.Get(),
	}
	if res := labs.Get(); res.Err == nil {
		dashboard.Deadlines.UnsubmittedLabs = UpcomingLabs(res.Data, s.time.Now().In(chrono.IST()))
	} else {
		s.tel.ReportWarning(report_service_dashboard, res.Err, samvidha.KindLab)
		dashboard.Deadlines = DeadlineSummary{
			UnsubmittedLabs: []UnsubmittedLab{},
			Error:           res.Err.Error(),
			Err:             res.Err,
		}
	}
	return dashboard, nil
}
