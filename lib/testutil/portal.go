package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const (
	DashboardTitle = "<title>IARE - Dashboard - Student</title>"
	LoginTitle     = "<title>IARE - Login</title>"

	sessionCookie = "PHPSESSID"
)

type PortalParams struct {
	Username string
	Password string
}

// Portal is an in-process imitation of the student portal. Pages are keyed by
// "<path>?action=<action>" for /home and "<path>#<action>" for the lab ajax endpoint.
type Portal struct {
	Server *httptest.Server

	params    PortalParams
	mutex     sync.Mutex
	sessions  map[string]bool
	hits      map[string]int
	overrides map[string]http.HandlerFunc
}

// SetupPortal starts a fake portal that accepts the given credentials, it is closed
// when the test ends.
func SetupPortal(t testing.TB, params PortalParams) *Portal {
	p := &Portal{
		params:    params,
		sessions:  map[string]bool{},
		hits:      map[string]int{},
		overrides: map[string]http.HandlerFunc{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Portal) Url() string {
	return p.Server.URL
}

// Hits returns how many times a page was requested.
func (p *Portal) Hits(key string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.hits[key]
}

// Override replaces the handler of a page.
func (p *Portal) Override(key string, handler http.HandlerFunc) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.overrides[key] = handler
}

// ExpireSessions logs out every client, subsequent requests are redirected to the
// landing page.
func (p *Portal) ExpireSessions() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.sessions = map[string]bool{}
}

func pageKey(r *http.Request) string {
	switch r.URL.Path {
	case "/home":
		action := r.URL.Query().Get("action")
		if action == "" {
			return "/home"
		}
		return fmt.Sprintf("/home?action=%s", action)
	case "/pages/student/lab_records/ajax/day2day.php":
		return fmt.Sprintf("%s#%s", r.URL.Path, r.FormValue("action"))
	default:
		return r.URL.Path
	}
}

func (p *Portal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.sessions[cookie.Value]
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	key := pageKey(r)

	p.mutex.Lock()
	p.hits[key]++
	override := p.overrides[key]
	p.mutex.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	switch key {
	case "/index":
		p.serveLanding(w, r)
		return
	case "/pages/login/checkUser.php":
		p.serveLoginCheck(w, r)
		return
	}

	if !p.authenticated(r) {
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}

	switch key {
	case "/home":
		writeHtml(w, []byte(fmt.Sprintf("<html><head>%s</head><body>Welcome</body></html>", DashboardTitle)))
	case "/home?action=profile":
		writeHtml(w, mustFixture("profile.html"))
	case "/home?action=stud_att_STD":
		writeHtml(w, mustFixture("attendance.html"))
	case "/home?action=TT_std":
		if r.Method != http.MethodPost {
			writeHtml(w, mustFixture("timetable_form.html"))
			return
		}
		if r.FormValue("ay") != "2024-25" || r.FormValue("sec_data") != "CSE-A-IV" || r.FormValue("btn_faculty_tt") != "show" {
			http.Error(w, "bad timetable form", http.StatusBadRequest)
			return
		}
		writeHtml(w, mustFixture("timetable.html"))
	case "/home?action=std_bio":
		writeHtml(w, mustFixture("bio.html"))
	case "/home?action=labrecord_std":
		writeHtml(w, mustFixture("lab.html"))
	case "/home?action=g_stud_results":
		writeHtml(w, mustFixture("results.html"))
	case "/home?action=course_content":
		writeHtml(w, mustFixture("register.html"))
	case "/pages/student/lab_records/ajax/day2day.php#day2day_lab":
		w.Header().Set("content-type", "application/json")
		if r.FormValue("sub_code") == "ACSD11" && r.FormValue("rollno") == "21951A0501" {
			w.Write(mustFixture("lab_submitted.json"))
			return
		}
		w.Write([]byte(`{"data": []}`))
	case "/pages/student/lab_records/ajax/day2day.php#get_exp_list":
		if r.FormValue("sub_code") == "ACSD11" {
			writeHtml(w, mustFixture("lab_experiments.html"))
			return
		}
		writeHtml(w, []byte("<p>No experiments</p>"))
	default:
		http.NotFound(w, r)
	}
}

func (p *Portal) serveLanding(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(sessionCookie); err != nil {
		id := make([]byte, 8)
		_, _ = rand.Read(id)
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: hex.EncodeToString(id), Path: "/"})
	}
	writeHtml(w, []byte(fmt.Sprintf("<html><head>%s</head><body><form></form></body></html>", LoginTitle)))
}

func (p *Portal) serveLoginCheck(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || r.Method != http.MethodPost {
		http.Error(w, "no session", http.StatusBadRequest)
		return
	}
	if r.FormValue("username") == p.params.Username && r.FormValue("password") == p.params.Password {
		p.mutex.Lock()
		p.sessions[cookie.Value] = true
		p.mutex.Unlock()
	}
	w.Write([]byte("1"))
}

func writeHtml(w http.ResponseWriter, body []byte) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write(body)
}
