// client.go contains the logic for talking to the portal: authenticating and fetching
// authenticated pages. It does not know anything about the contents of the pages.

package samvidha

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"smartx-backend/internal/components/assert"
	"smartx-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("smartx-backend/internal/scrapers/samvidha")

const (
	report_client_login     = "client.login"
	report_client_fetch     = "client.fetch"
	report_client_post_form = "client.post-form"
)

const (
	LandingPath         = "/index"
	LoginCheckPath      = "/pages/login/checkUser.php"
	HomePath            = "/home"
	ProfilePath         = "/home?action=profile"
	AttendancePath      = "/home?action=stud_att_STD"
	TimetablePath       = "/home?action=TT_std"
	BioLogPath          = "/home?action=std_bio"
	LabRecordPath       = "/home?action=labrecord_std"
	LabAjaxPath         = "/pages/student/lab_records/ajax/day2day.php"
	ResultsPath         = "/home?action=g_stud_results"
	CourseContentPath   = "/home?action=course_content"
	DefaultBaseUrl      = "https://samvidha.iare.ac.in"
	browserUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultRatePerSec   = 5
	defaultLoginTimeout = 10 * time.Second
	defaultFetchTimeout = 15 * time.Second
	defaultAjaxTimeout  = 10 * time.Second
)

// CookieSet is the authentication artifact produced by Login, it maps cookie names to
// their values.
type CookieSet map[string]string

func (c CookieSet) httpCookies() []*http.Cookie {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*http.Cookie, len(names))
	for i, name := range names {
		out[i] = &http.Cookie{Name: name, Value: c[name]}
	}
	return out
}

// Markers are the literal strings used to decide if a page is authenticated.
type Markers struct {
	// DashboardTitle must be present in the home page after a successful login.
	DashboardTitle string `json:"dashboard_title"`
	// LoginTitle is present in any page served to an unauthenticated client.
	LoginTitle string `json:"login_title"`
	// LandingPath is contained in the final url of a request that was redirected to
	// the login page.
	LandingPath string `json:"landing_path"`
}

func DefaultMarkers() Markers {
	return Markers{
		DashboardTitle: "<title>IARE - Dashboard - Student</title>",
		LoginTitle:     "<title>IARE - Login</title>",
		LandingPath:    LandingPath,
	}
}

type Options struct {
	BaseUrl           string
	Markers           Markers
	LoginTimeout      time.Duration
	FetchTimeout      time.Duration
	AjaxTimeout       time.Duration
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Dump, when set, receives the full text of every request and response.
	Dump telemetry.DumpOutput
}

func DefaultOptions() Options {
	return Options{
		BaseUrl:           DefaultBaseUrl,
		Markers:           DefaultMarkers(),
		LoginTimeout:      defaultLoginTimeout,
		FetchTimeout:      defaultFetchTimeout,
		AjaxTimeout:       defaultAjaxTimeout,
		RequestsPerSecond: defaultRatePerSec,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.BaseUrl == "" {
		o.BaseUrl = defaults.BaseUrl
	}
	if o.Markers.DashboardTitle == "" {
		o.Markers.DashboardTitle = defaults.Markers.DashboardTitle
	}
	if o.Markers.LoginTitle == "" {
		o.Markers.LoginTitle = defaults.Markers.LoginTitle
	}
	if o.Markers.LandingPath == "" {
		o.Markers.LandingPath = defaults.Markers.LandingPath
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = defaults.LoginTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaults.FetchTimeout
	}
	if o.AjaxTimeout <= 0 {
		o.AjaxTimeout = defaults.AjaxTimeout
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = defaults.RequestsPerSecond
	}
	return o
}

// Page is the raw result of a successful fetch.
type Page struct {
	Body []byte
	// Url is the final url of the page after redirects.
	Url *url.URL
}

// Client authenticates against the portal and fetches pages with a previously obtained
// CookieSet. It holds no per-user state and is safe for concurrent use.
type Client struct {
	baseUrl *url.URL
	opts    Options
	limiter *rate.Limiter
	http    *resty.Client

	tel telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("samvidha", tel)

	opts = opts.withDefaults()
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url '%s' must be absolute", opts.BaseUrl)
	}

	// max burst >= rps just means that no requests will be dropped
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseUrl: baseUrl,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		tel:     tel,
	}
	// the shared client must never remember cookies, every request carries the
	// cookies of the user it is made for.
	c.http = c.newHttp(nil)
	return c, nil
}

type limiterError struct {
	err error
}

func (e limiterError) Error() string {
	return fmt.Sprintf("rate limit: %s", e.err.Error())
}

func (e limiterError) Unwrap() error {
	return e.err
}

func (c *Client) newHttp(jar http.CookieJar) *resty.Client {
	client := resty.New()
	client.SetBaseURL(c.opts.BaseUrl)
	client.SetCookieJar(jar)
	if c.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", browserUserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))

	telemetry.InstrumentResty(client, c.tel, c.opts.Dump)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		err := c.limiter.Wait(req.Context())
		if err != nil {
			return limiterError{err: err}
		}
		return nil
	})
	return client
}

// transportError converts a resty failure into a tagged error.
func (c *Client) transportError(id string, err error) *Error {
	var limitErr limiterError
	if errors.As(err, &limitErr) || errors.Is(err, context.Canceled) {
		c.tel.ReportWarning(id, fmt.Errorf("request not sent: %w", err))
		return genericError(err)
	}
	c.tel.ReportWarning(id, fmt.Errorf("transport: %w", err))
	return &Error{Kind: NetworkError, Err: err}
}

// Login authenticates with the given credentials and returns the cookies of the
// resulting session. It returns ErrInvalidCredentials if the portal does not show the
// dashboard afterwards.
func (c *Client) Login(ctx context.Context, username, password string) (CookieSet, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, genericError(err)
	}
	client := c.newHttp(jar)

	send := func(build func(req *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.opts.LoginTimeout)
		defer cancel()
		res, err := build(client.R().SetContext(reqCtx))
		if err != nil {
			return nil, c.transportError(report_client_login, err)
		}
		return res, nil
	}

	_, err = send(func(req *resty.Request) (*resty.Response, error) {
		return req.Get(LandingPath)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	_, err = send(func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Referer", c.baseUrl.JoinPath(LandingPath).String()).
			SetFormData(map[string]string{
				"username": username,
				"password": password,
			}).
			Post(LoginCheckPath)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res, err := send(func(req *resty.Request) (*resty.Response, error) {
		return req.Get(HomePath)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !bytes.Contains(res.Body(), []byte(c.opts.Markers.DashboardTitle)) {
		c.tel.ReportDebug("login rejected", username)
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return nil, ErrInvalidCredentials
	}

	cookies := CookieSet{}
	for _, cookie := range jar.Cookies(c.baseUrl) {
		cookies[cookie.Name] = cookie.Value
	}
	c.tel.ReportDebug("login succeeded", username, len(cookies))
	return cookies, nil
}

// Fetch retrieves an authenticated page with a GET request.
func (c *Client) Fetch(ctx context.Context, cookies CookieSet, path string) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	page, err := c.do(ctx, report_client_fetch, c.opts.FetchTimeout, cookies, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(path)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return page, err
}

// PostForm submits a form to an authenticated page, it is used for pages that require
// a second round-trip (ex. the timetable and the lab records).
func (c *Client) PostForm(ctx context.Context, cookies CookieSet, path string, form map[string]string) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:PostForm")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	page, err := c.do(ctx, report_client_post_form, c.opts.AjaxTimeout, cookies, func(req *resty.Request) (*resty.Response, error) {
		return req.SetFormData(form).Post(path)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return page, err
}

func (c *Client) do(
	ctx context.Context,
	id string,
	timeout time.Duration,
	cookies CookieSet,
	send func(req *resty.Request) (*resty.Response, error),
) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := send(c.http.R().
		SetContext(ctx).
		SetCookies(cookies.httpCookies()))
	if err != nil {
		return Page{}, c.transportError(id, err)
	}

	page := Page{Body: res.Body(), Url: finalUrl(res)}
	if c.expired(page) {
		c.tel.ReportDebug("session expired", id, page.Url.String())
		return Page{}, &Error{Kind: SessionExpired}
	}
	return page, nil
}

func (c *Client) expired(page Page) bool {
	if c.opts.Markers.LoginTitle != "" &&
		bytes.Contains(page.Body, []byte(c.opts.Markers.LoginTitle)) {
		return true
	}
	if c.opts.Markers.LandingPath != "" && page.Url != nil &&
		strings.Contains(page.Url.String(), c.opts.Markers.LandingPath) {
		return true
	}
	return false
}

func finalUrl(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	parsed, err := url.Parse(res.Request.URL)
	if err != nil {
		return &url.URL{}
	}
	return parsed
}
