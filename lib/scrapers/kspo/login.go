package kspo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"courtsched/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Login authenticates against the portal's SSO form and leaves the
// session cookies on the client. The portal redirects back to the
// member page on success and re-renders the login form on failure.
func (c *Client) Login(ctx context.Context, id, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.loginUrl.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get login page")
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page")
		return err
	}
	form := htmlutil.FindForm(doc, "login_id")
	if form == nil {
		span.SetStatus(codes.Error, "could not find login form")
		return fmt.Errorf("could not find login form")
	}
	form.Fields["login_id"] = id
	form.Fields["login_pwd"] = password

	actionUrl, err := url.Parse(form.Action)
	if err != nil {
		return fmt.Errorf("parse form action: %w", err)
	}
	action := res.RawResponse.Request.URL.ResolveReference(actionUrl)
	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(form.Fields).
		Post(action.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}

	// on bad credentials the SSO host keeps us on one of its login
	// pages instead of bouncing back to the portal
	final := res.RawResponse.Request.URL
	if final.Host == c.loginUrl.Host && strings.Contains(final.Path, "login") {
		span.SetStatus(codes.Error, "portal rejected credentials")
		return LoginFailed
	}
	if strings.Contains(res.String(), "login_pwd") {
		span.SetStatus(codes.Error, "portal rejected credentials")
		return LoginFailed
	}

	return nil
}
