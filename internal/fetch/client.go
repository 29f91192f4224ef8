package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
	report_client_login = "client.login"
)

var tracer = otel.Tracer("milpacs.fetch")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// RequestsPerSecond bounds the request rate of the client and every fork of it,
	// it defaults to 2.
	RequestsPerSecond float64
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// Dump receives every response when set.
	Dump *Dump
}

// Client is a Fetcher over a cookie-backed forum session.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	jar     http.CookieJar
	limiter *rate.Limiter
	timeout time.Duration
	dump    *Dump
	tel     telemetry.API
}

func NewClient(baseUrl string, opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(baseUrl)

	tel = telemetry.NewScopedAPI("fetch", tel)

	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		BaseUrl: parsed,
		jar:     jar,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
		dump:    opts.Dump,
		tel:     tel,
	}
	c.Http = c.newHttp()
	return c, nil
}

func (c *Client) newHttp() *resty.Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(c.BaseUrl.String())
	httpClient.SetCookieJar(c.jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname()))
	httpClient.SetTimeout(c.timeout)

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.limiter.Wait(req.Context())
	})

	if c.dump != nil {
		c.dump.attach(httpClient)
	}
	telemetry.InstrumentResty(httpClient, c.tel)
	return httpClient
}

// Fork returns a client with its own connection pool that shares the session cookies and
// the rate limit of c, so concurrent workers each own a fetcher without multiplying the
// load on the remote host.
func (c *Client) Fork() *Client {
	fork := &Client{
		BaseUrl: c.BaseUrl,
		jar:     c.jar,
		limiter: c.limiter,
		timeout: c.timeout,
		dump:    c.dump,
		tel:     c.tel,
	}
	fork.Http = fork.newHttp()
	return fork
}

func (c *Client) Fetch(ctx context.Context, endpoint string) (Page, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", endpoint))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_fetch, err, endpoint)
		return Page{}, &FetchFailure{Url: endpoint, Err: err}
	}

	page := Page{
		Url:        res.Request.URL,
		Markup:     string(res.Body()),
		StatusCode: res.StatusCode(),
	}
	span.SetAttributes(attribute.Int("status_code", page.StatusCode))
	if !Success(page.StatusCode) {
		span.SetStatus(codes.Error, res.Status())
		return Page{}, &FetchFailure{Url: page.Url, StatusCode: page.StatusCode}
	}
	return page, nil
}

var ErrNotLoggedIn = errors.New("session is not logged in")

// Login runs the forum's username/password form. The session cookies it sets are shared
// with every fork of the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("login: %w", err)
	}

	page, err := c.Fetch(ctx, "login")
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login page: %w", err))
		return loginError(err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(page.Markup))
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login page: %w", err))
		return loginError(err)
	}
	token := doc.Find("input[name=_xfToken]").AttrOr("value", "")

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"login":        username,
			"password":     password,
			"remember":     "1",
			"cookie_check": "1",
			"_xfToken":     token,
			"redirect":     c.BaseUrl.String(),
		}).
		Post("login/login")
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login request: %w", err))
		return loginError(err)
	}
	if res.IsError() {
		return loginError(&FetchFailure{Url: res.Request.URL, StatusCode: res.StatusCode()})
	}

	doc, err = goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login response: %w", err))
		return loginError(err)
	}
	if doc.Find("a.LogOut").Length() == 0 {
		c.tel.ReportWarning(report_client_login, "could not find a.LogOut after login")
		return loginError(ErrNotLoggedIn)
	}

	return nil
}
