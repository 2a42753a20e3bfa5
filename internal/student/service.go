// Package student serves the scraped data of a logged in student, it owns the
// session -> cache -> fetch -> parse pipeline of every data kind.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"smartx-backend/internal/components/assert"
	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/telemetry"
	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/store"

	"golang.org/x/sync/singleflight"
)

const (
	report_service_login        = "service.login"
	report_service_cache_encode = "service.cache-encode"
	report_service_cache_decode = "service.cache-decode"
)

var (
	ErrNotLoggedIn       = errors.New("User not logged in")
	ErrInvalidCourseCode = errors.New("Invalid course code")
)

// Portal is what the service needs from the portal client.
//
// note: fault injection point
type Portal interface {
	samvidha.Fetcher
	Login(ctx context.Context, username, password string) (samvidha.CookieSet, error)
}

type Service struct {
	portal   Portal
	sessions store.SessionStore
	cache    store.Cache
	time     chrono.TimeAPI
	tel      telemetry.API
	flight   *singleflight.Group
}

func NewService(
	portal Portal,
	sessions store.SessionStore,
	cache store.Cache,
	clock chrono.TimeAPI,
	tel telemetry.API,
) Service {
	assert.NotNil(portal)
	assert.NotNil(sessions)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Service{
		portal:   portal,
		sessions: sessions,
		cache:    cache,
		time:     clock,
		tel:      telemetry.NewScopedAPI("student", tel),
		flight:   &singleflight.Group{},
	}
}

// Login authenticates a user against the portal. On success the new session replaces
// any previous one and the cached data of the user is dropped, on failure nothing is
// stored.
func (s Service) Login(ctx context.Context, username, password string) error {
	cookies, err := s.portal.Login(ctx, username, password)
	if err != nil {
		if !errors.Is(err, samvidha.ErrInvalidCredentials) {
			s.tel.ReportWarning(report_service_login, err, username)
		}
		return err
	}

	s.sessions.Put(store.Session{
		UserId:    username,
		Cookies:   cookies,
		CreatedAt: s.time.Now(),
	})
	s.cache.Invalidate(ctx, username)
	return nil
}

// Logout forgets the session and the cached data of a user.
func (s Service) Logout(ctx context.Context, userId string) {
	s.sessions.Delete(userId)
	s.cache.Invalidate(ctx, userId)
}

// LoggedIn returns true if the user has a session.
func (s Service) LoggedIn(userId string) bool {
	_, ok := s.sessions.Get(userId)
	return ok
}

type scrapeFunc[T any] func(ctx context.Context, cookies samvidha.CookieSet) (T, error)

// load serves a data kind from the cache if it is fresh, otherwise it scrapes it and
// caches the result. Concurrent loads of the same (user, kind) share one scrape.
func load[T any](ctx context.Context, s Service, userId string, kind samvidha.Kind, scrape scrapeFunc[T]) (T, error) {
	var zero T
	session, ok := s.sessions.Get(userId)
	if !ok {
		return zero, ErrNotLoggedIn
	}

	if payload, hit := s.cache.Get(ctx, userId, string(kind)); hit {
		var cached T
		err := json.Unmarshal(payload, &cached)
		if err == nil {
			return cached, nil
		}
		s.tel.ReportBroken(report_service_cache_decode, err, userId, kind)
	}

	key := fmt.Sprintf("%s\x00%s\x00%d", userId, kind, session.CreatedAt.UnixNano())
	value, err, _ := s.flight.Do(key, func() (any, error) {
		data, err := scrape(ctx, session.Cookies)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(data)
		if err != nil {
			s.tel.ReportBroken(report_service_cache_encode, err, userId, kind)
			return data, nil
		}
		s.cache.SetFor(ctx, session, string(kind), payload)
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

func scrapeWith[T any](s Service, parser samvidha.Parser[T]) scrapeFunc[T] {
	return func(ctx context.Context, cookies samvidha.CookieSet) (T, error) {
		return samvidha.Scrape(ctx, s.portal, cookies, parser)
	}
}

func (s Service) Profile(ctx context.Context, userId string) (samvidha.Profile, error) {
	return load(ctx, s, userId, samvidha.KindProfile, scrapeWith(s, samvidha.ProfileParser))
}

func (s Service) Attendance(ctx context.Context, userId string) (samvidha.AttendanceSummary, error) {
	return load(ctx, s, userId, samvidha.KindAttendance, scrapeWith(s, samvidha.AttendanceParser))
}

func (s Service) BioLog(ctx context.Context, userId string) (samvidha.BioLog, error) {
	return load(ctx, s, userId, samvidha.KindBioLog, scrapeWith(s, samvidha.BioLogParser))
}

func (s Service) Results(ctx context.Context, userId string) (samvidha.ResultsSummary, error) {
	return load(ctx, s, userId, samvidha.KindResults, scrapeWith(s, samvidha.ResultsParser))
}

func (s Service) AttendanceRegister(ctx context.Context, userId string) (samvidha.AttendanceRegister, error) {
	return load(ctx, s, userId, samvidha.KindAttendanceRegister, scrapeWith(s, samvidha.RegisterParser))
}

func (s Service) Timetable(ctx context.Context, userId string) (samvidha.Timetable, error) {
	return load(ctx, s, userId, samvidha.KindTimetable, func(ctx context.Context, cookies samvidha.CookieSet) (samvidha.Timetable, error) {
		return samvidha.ScrapeTimetable(ctx, s.portal, cookies, s.time.Now)
	})
}

func (s Service) LabDeadlines(ctx context.Context, userId string) (samvidha.LabRecord, error) {
	return load(ctx, s, userId, samvidha.KindLab, func(ctx context.Context, cookies samvidha.CookieSet) (samvidha.LabRecord, error) {
		return samvidha.ScrapeLabRecord(ctx, s.portal, cookies)
	})
}

// BioSummary is derived from the biometric log every time, it is not cached on its own.
func (s Service) BioSummary(ctx context.Context, userId string) (samvidha.BioSummary, error) {
	log, err := s.BioLog(ctx, userId)
	if err != nil {
		return samvidha.BioSummary{}, err
	}
	return samvidha.SummarizeBio(log), nil
}

type LabCourseSummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LabCourses lists the lab courses of a user in the order the portal lists them.
func (s Service) LabCourses(ctx context.Context, userId string) ([]LabCourseSummary, error) {
	record, err := s.LabDeadlines(ctx, userId)
	if err != nil {
		return nil, err
	}
	out := make([]LabCourseSummary, len(record.Courses))
	for i, course := range record.Courses {
		out[i] = LabCourseSummary{Code: course.Code, Name: course.SubjectName}
	}
	return out, nil
}

// LabDetails returns the deadlines of a single lab course.
func (s Service) LabDetails(ctx context.Context, userId, code string) (samvidha.LabCourse, error) {
	record, err := s.LabDeadlines(ctx, userId)
	if err != nil {
		return samvidha.LabCourse{}, err
	}
	course, ok := record.Course(code)
	if !ok {
		return samvidha.LabCourse{}, ErrInvalidCourseCode
	}
	return course, nil
}
