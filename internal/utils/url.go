package utils

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var errNotHTTP = errors.New("not an http(s) url")

// EscapeSpaces makes a catalog URL usable as an embed link.
func EscapeSpaces(raw string) string {
	return strings.ReplaceAll(raw, " ", "%20")
}

// NormalizeImageURL checks that raw is an absolute http(s) URL and returns it
// with an ASCII host, no fragment or credentials, and spaces escaped.
func NormalizeImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(EscapeSpaces(raw))
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errNotHTTP
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errNotHTTP
	}
	if asciiHost, err := idna.ToASCII(host); err == nil {
		host = asciiHost
	}
	if port := parsed.Port(); port != "" {
		host += ":" + port
	}

	parsed.Host = host
	parsed.Fragment = ""
	parsed.User = nil
	return parsed.String(), nil
}
