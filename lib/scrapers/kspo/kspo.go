package kspo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"courtsched/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/kspo")

var (
	LoginFailed    = fmt.Errorf("failed to login to the reservation portal")
	SessionExpired = fmt.Errorf("the portal session has expired")
)

// Client scrapes the KSPO online tennis reservation portal. It holds
// a single logged-in session, the portal ties everything (the WebGate
// queue pass included) to the session cookies.
type Client struct {
	Http *resty.Client

	// .../online/tennis with no trailing slash
	base     *url.URL
	loginUrl *url.URL
}

type ClientOptions struct {
	// any url on the portal, the /online/tennis api root is derived
	// from it
	BaseUrl  string
	LoginUrl string
}

const tennisRoot = "/online/tennis"

// derive the /online/tennis api root the same way no matter whether
// the configured url is the portal landing page or the tennis page
// itself
func normalizeBase(raw string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, err
	}
	if idx := strings.Index(base.Path, tennisRoot); idx >= 0 {
		base.Path = base.Path[:idx] + tennisRoot
	} else {
		base.Path = base.Path + tennisRoot
	}
	return base, nil
}

func NewClient(opts ClientOptions) (*Client, error) {
	base, err := normalizeBase(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	loginUrl, err := url.Parse(opts.LoginUrl)
	if err != nil {
		return nil, fmt.Errorf("parse login url: %w", err)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", browser.Chrome())
	client.SetHeader("accept-language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	// the login flow bounces through an SSO host on a different
	// subdomain, so a single-domain redirect policy would break it
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(time.Second * 30)

	// stay well under whatever the portal's WAF considers abusive
	limiter := rate.NewLimiter(5, 5)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/kspo/http")

	return &Client{
		Http:     client,
		base:     base,
		loginUrl: loginUrl,
	}, nil
}

func (c *Client) BaseUrl() string {
	return c.base.String()
}

func (c *Client) endpoint(name string) string {
	return c.base.String() + "/" + name
}

// captcha.do lives one level above the tennis root
func (c *Client) siblingEndpoint(name string) string {
	sibling := *c.base
	sibling.Path = strings.TrimSuffix(sibling.Path, "/tennis")
	return sibling.String() + "/" + name
}

// every json api on the portal wraps its payload with an ss_check
// session flag: positive means ok, -1 means the session is gone
type sessionCheck struct {
	SessionCheck int `json:"ss_check"`
}

func decodeApiResponse(body []byte, out any) error {
	var check sessionCheck
	err := json.Unmarshal(body, &check)
	if err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	if check.SessionCheck < 0 {
		return SessionExpired
	}
	if check.SessionCheck == 0 {
		return fmt.Errorf("the portal rejected the request (ss_check=0)")
	}
	return json.Unmarshal(body, out)
}

func (c *Client) apiRequest(ctx context.Context) *resty.Request {
	return c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetHeader("referer", c.base.String())
}
