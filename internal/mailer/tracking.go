package mailer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// TrackingConfig holds the public base URL used to build pixel and
// click-redirect links. Passed explicitly so tests can supply their own.
type TrackingConfig struct {
	BaseURL string
}

// PixelURL returns the open-tracking pixel URL for a tracking token
func (c TrackingConfig) PixelURL(token string) string {
	return fmt.Sprintf("%s/pixel/%s", strings.TrimRight(c.BaseURL, "/"), token)
}

// ClickURL returns the click-redirect URL wrapping a destination
func (c TrackingConfig) ClickURL(token, destination string) string {
	return fmt.Sprintf("%s/click/%s?url=%s",
		strings.TrimRight(c.BaseURL, "/"), token, url.QueryEscape(destination))
}

var hrefPattern = regexp.MustCompile(`href="([^"]*)"`)

// RewriteLinks routes every href in the HTML body through the
// click-tracking redirect for the given token.
func RewriteLinks(html string, cfg TrackingConfig, token string) string {
	return hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		original := hrefPattern.FindStringSubmatch(match)[1]
		return fmt.Sprintf(`href="%s"`, cfg.ClickURL(token, original))
	})
}

// BuildTrackedHTML converts a plain-text body to HTML, appends the
// tracking pixel and rewrites outbound links through the click redirect.
func BuildTrackedHTML(body string, cfg TrackingConfig, token string) string {
	html := strings.ReplaceAll(body, "\n", "<br>")
	html += fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none;">`, cfg.PixelURL(token))
	return RewriteLinks(html, cfg, token)
}

// Personalize swaps the generic greeting for one addressed to the
// recipient, when a first name is known.
func Personalize(body, firstName string) string {
	if firstName == "" {
		return body
	}
	body = strings.ReplaceAll(body, "Hi there", "Hi "+firstName)
	body = strings.ReplaceAll(body, "Hello!", "Hello "+firstName+"!")
	return body
}
