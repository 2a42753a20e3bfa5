package student

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/telemetry"
	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/store"
	"smartx-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "21951A0501"
	testPassword = "hunter2"
)

// a monday
var testNow = time.Date(2024, time.July, 8, 10, 0, 0, 0, chrono.IST())

type testEnv struct {
	service Service
	portal  *testutil.Portal
	clock   *chrono.FakeTime
	rec     *telemetry.RecorderAPI
}

func setupService(t testing.TB) testEnv {
	t.Helper()

	portal := testutil.SetupPortal(t, testutil.PortalParams{
		Username: testUsername,
		Password: testPassword,
	})
	rec := telemetry.NewRecorderAPI()
	client, err := samvidha.NewClient(samvidha.Options{
		BaseUrl:           portal.Url(),
		RequestsPerSecond: 1000,
	}, rec)
	require.NoError(t, err)

	clock := chrono.NewFakeTime(testNow)
	sessions := store.NewMemorySessions()
	cache := store.NewCache(sessions, store.NewMemoryBackend(0, 0), clock, rec)

	return testEnv{
		service: NewService(client, sessions, cache, clock, rec),
		portal:  portal,
		clock:   clock,
		rec:     rec,
	}
}

func (e testEnv) login(t testing.TB) {
	t.Helper()
	require.NoError(t, e.service.Login(context.Background(), testUsername, testPassword))
}

func TestInvalidLoginCreatesNoSession(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	err := env.service.Login(ctx, testUsername, "wrong")
	require.ErrorIs(t, err, samvidha.ErrInvalidCredentials)
	require.False(t, env.service.LoggedIn(testUsername))

	_, err = env.service.Profile(ctx, testUsername)
	require.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = env.service.AcademicInfo(ctx, testUsername)
	require.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = env.service.Dashboard(ctx, testUsername)
	require.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = env.service.LabCourses(ctx, testUsername)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	require.Equal(t, 0, env.portal.Hits(samvidha.ProfilePath))
	require.Equal(t, 0, env.portal.Hits(samvidha.LabRecordPath))
}

func TestLoadersUseCache(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	profile, err := env.service.Profile(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, "RAVI KUMAR REDDY", profile.FullName)

	cached, err := env.service.Profile(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, profile, cached)
	require.Equal(t, 1, env.portal.Hits(samvidha.ProfilePath))

	env.clock.Advance(store.Window)
	_, err = env.service.Profile(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, 2, env.portal.Hits(samvidha.ProfilePath))
}

func TestReloginDropsCache(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	_, err := env.service.Results(ctx, testUsername)
	require.NoError(t, err)
	env.login(t)
	_, err = env.service.Results(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, 2, env.portal.Hits(samvidha.ResultsPath))

	env.service.Logout(ctx, testUsername)
	_, err = env.service.Results(ctx, testUsername)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSessionExpired(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	env.portal.ExpireSessions()
	_, err := env.service.Attendance(ctx, testUsername)
	require.Equal(t, samvidha.SessionExpired, samvidha.KindOf(err))

	encoded, err := json.Marshal(resultOf[samvidha.AttendanceSummary](env.service.Attendance(ctx, testUsername)))
	require.NoError(t, err)
	require.JSONEq(t, `{"error": "SESSION_EXPIRED"}`, string(encoded))

	// expiry is reported, not acted upon
	require.True(t, env.service.LoggedIn(testUsername))
}

func TestConcurrentLoadsShareOneScrape(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	release := make(chan struct{})
	profile := testutil.Fixture(t, "profile.html")
	env.portal.Override(samvidha.ProfilePath, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write(profile)
	})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.Profile(ctx, testUsername)
		}(i)
	}
	require.Eventually(t, func() bool {
		return env.portal.Hits(samvidha.ProfilePath) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, env.portal.Hits(samvidha.ProfilePath))
}

func TestScrapeFromReplacedSessionIsNotCached(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	release := make(chan struct{})
	profile := testutil.Fixture(t, "profile.html")
	env.portal.Override(samvidha.ProfilePath, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write(profile)
	})

	done := make(chan error)
	go func() {
		_, err := env.service.Profile(ctx, testUsername)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return env.portal.Hits(samvidha.ProfilePath) == 1
	}, time.Second, 5*time.Millisecond)

	env.service.Logout(ctx, testUsername)
	env.clock.Advance(time.Minute)
	env.login(t)
	close(release)
	require.NoError(t, <-done)

	_, err := env.service.Profile(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, 2, env.portal.Hits(samvidha.ProfilePath))
}

func TestLabCoursesAndDetails(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	courses, err := env.service.LabCourses(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, []LabCourseSummary{
		{Code: "ACSD11", Name: "Data Structures Laboratory"},
		{Code: "ACSD12", Name: "Operating Systems Laboratory"},
	}, courses)

	details, err := env.service.LabDetails(ctx, testUsername, "ACSD11")
	require.NoError(t, err)
	require.Len(t, details.Deadlines, 3)

	_, err = env.service.LabDetails(ctx, testUsername, "XXXX")
	require.ErrorIs(t, err, ErrInvalidCourseCode)

	// both lookups were served from the cached lab record
	require.Equal(t, 1, env.portal.Hits(samvidha.LabRecordPath))
}

func TestRegisterAndBio(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	register, err := env.service.AttendanceRegister(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, []string{"Data Structures", "Operating Systems"}, register.Subjects)

	summary, err := env.service.BioSummary(ctx, testUsername)
	require.NoError(t, err)
	require.Equal(t, samvidha.BioSummary{PresentDays: 3, TotalDays: 4, Percentage: 75}, summary)
}

func TestAcademicInfo(t *testing.T) {
	env := setupService(t)
	env.login(t)

	info, err := env.service.AcademicInfo(context.Background(), testUsername)
	require.NoError(t, err)
	require.Equal(t, AcademicInfo{
		ClassAttendance: 74,
		BioAttendance:   75,
		Sgpa:            8.9,
		Cgpa:            8.62,
	}, info)
}

func TestAcademicInfoPartialFailure(t *testing.T) {
	env := setupService(t)
	env.login(t)

	env.portal.Override(samvidha.BioLogPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	})
	info, err := env.service.AcademicInfo(context.Background(), testUsername)
	require.NoError(t, err)
	require.Equal(t, 0.0, info.BioAttendance)
	require.Equal(t, 74.0, info.ClassAttendance)
	require.Equal(t, 8.62, info.Cgpa)
	require.Contains(t, env.rec.Ids("warning"), "student: service.academic-info")
}

func TestGradePoints(t *testing.T) {
	cases := []struct {
		name    string
		results samvidha.ResultsSummary
		sgpa    float64
		cgpa    float64
	}{
		{
			name:    "no semesters",
			results: samvidha.ResultsSummary{Cgpa: "8.0"},
		},
		{
			name: "latest positive sgpa",
			results: samvidha.ResultsSummary{
				Semesters: []samvidha.SemesterResult{{Sgpa: "7.5"}, {Sgpa: "8.1"}, {Sgpa: "--"}, {Sgpa: "0"}},
				Cgpa:      "N/A",
			},
			sgpa: 8.1,
		},
	}
	for _, test := range cases {
		sgpa, cgpa := gradePoints(test.results)
		require.Equal(t, test.sgpa, sgpa, test.name)
		require.Equal(t, test.cgpa, cgpa, test.name)
	}
}

func TestDashboard(t *testing.T) {
	env := setupService(t)
	env.login(t)

	dashboard, err := env.service.Dashboard(context.Background(), testUsername)
	require.NoError(t, err)

	require.NoError(t, dashboard.Timetable.Err)
	require.Len(t, dashboard.Timetable.Data.TodaySchedule, 4)
	require.Equal(t, samvidha.BioSummary{PresentDays: 3, TotalDays: 4, Percentage: 75}, dashboard.BioSummary.Data)

	expected := []UnsubmittedLab{{
		LabDeadline: samvidha.LabDeadline{
			Week:       "Week-3",
			Title:      "Linked Lists",
			DueDateStr: "22-07-2024",
		},
		DueDateObj: "2024-07-22",
		CourseName: "Data Structures Laboratory",
	}}
	if diff := cmp.Diff(expected, dashboard.Deadlines.UnsubmittedLabs); diff != "" {
		t.Fatal(diff)
	}

	encoded, err := json.Marshal(dashboard)
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Contains(t, decoded["timetable_data"], "today_schedule")
	require.Equal(t, 75.0, decoded["bio_summary_data"]["percentage"])
	require.NotContains(t, decoded["deadline_summary_data"], "error")
}

func TestDashboardPartialFailure(t *testing.T) {
	env := setupService(t)
	env.login(t)

	env.portal.Override(samvidha.LabAjaxPath+"#get_exp_list", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/index", http.StatusFound)
	})
	env.portal.Override(samvidha.TimetablePath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>no form</body></html>"))
	})

	dashboard, err := env.service.Dashboard(context.Background(), testUsername)
	require.NoError(t, err)
	require.NoError(t, dashboard.BioSummary.Err)
	require.Equal(t, samvidha.ParseError, samvidha.KindOf(dashboard.Timetable.Err))
	require.Empty(t, dashboard.Deadlines.UnsubmittedLabs)
	require.Equal(t, "SESSION_EXPIRED", dashboard.Deadlines.Error)
	require.True(t, dashboard.SessionExpired())

	encoded, err := json.Marshal(dashboard)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"timetable_data": {"error": "Could not determine AY or Section for timetable."},
		"bio_summary_data": {"present_days": 3, "total_days": 4, "percentage": 75},
		"deadline_summary_data": {"unsubmitted_labs": [], "error": "SESSION_EXPIRED"}
	}`, string(encoded))
}

func TestDashboardSessionExpired(t *testing.T) {
	env := setupService(t)
	env.login(t)
	ctx := context.Background()

	dashboard, err := env.service.Dashboard(ctx, testUsername)
	require.NoError(t, err)
	require.False(t, dashboard.SessionExpired())

	env.portal.ExpireSessions()
	env.clock.Advance(store.Window)
	dashboard, err = env.service.Dashboard(ctx, testUsername)
	require.NoError(t, err)
	require.True(t, dashboard.SessionExpired())
	require.ErrorIs(t, dashboard.Deadlines.Err, &samvidha.Error{Kind: samvidha.SessionExpired})

	env.login(t)
	dashboard, err = env.service.Dashboard(ctx, testUsername)
	require.NoError(t, err)
	require.False(t, dashboard.SessionExpired())
}

func TestUpcomingLabs(t *testing.T) {
	record := samvidha.LabRecord{Courses: []samvidha.LabCourse{
		{
			Code:        "A",
			SubjectName: "Networks Laboratory",
			Deadlines: []samvidha.LabDeadline{
				{Week: "Week-1", DueDateStr: "01-07-2024"},
				{Week: "Week-2", DueDateStr: "20-7-2024"},
				{Week: "Week-3", DueDateStr: "TBA"},
				{Week: "Week-4", DueDateStr: "25-07-2024", Submitted: true},
			},
		},
		{
			Code:        "B",
			SubjectName: "Compilers Laboratory",
			Deadlines: []samvidha.LabDeadline{
				{Week: "Week-1", DueDateStr: "08-07-2024"},
				{Week: "Week-2", DueDateStr: "15-07-2024"},
			},
		},
	}}

	upcoming := UpcomingLabs(record, testNow)
	got := make([]string, len(upcoming))
	for i, lab := range upcoming {
		got[i] = lab.CourseName + " " + lab.Week + " " + lab.DueDateObj
	}
	require.Equal(t, []string{
		"Compilers Laboratory Week-1 2024-07-08",
		"Compilers Laboratory Week-2 2024-07-15",
		"Networks Laboratory Week-2 2024-07-20",
	}, got)
}

func TestResultJSON(t *testing.T) {
	encoded, err := json.Marshal(Result[samvidha.BioSummary]{Err: errors.New("NETWORK_ERROR")})
	require.NoError(t, err)
	require.JSONEq(t, `{"error": "NETWORK_ERROR"}`, string(encoded))

	encoded, err = json.Marshal(Result[LabCourseSummary]{Data: LabCourseSummary{Code: "A", Name: "B"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"code": "A", "name": "B"}`, string(encoded))
}
