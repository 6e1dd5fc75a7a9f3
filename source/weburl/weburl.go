package weburl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return Validate(s) == nil
}

// Validate checks that raw is an absolute http or https URL.
func Validate(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}
	return nil
}

// FileName returns a cache file name for raw. ext is used when the URL path
// carries no extension; it includes the leading dot.
func FileName(raw, ext string) string {
	sum := sha256.Sum256([]byte(raw))
	hash := hex.EncodeToString(sum[:])[:8]

	parsed, err := url.Parse(raw)
	if err != nil {
		return "doc-" + hash + ext
	}

	p := strings.Trim(parsed.Path, "/")
	if e := path.Ext(p); e != "" && !strings.Contains(e, "/") {
		ext = strings.ToLower(e)
		p = strings.TrimSuffix(p, e)
	}

	// Replace dots and slashes with hyphens
	slug := strings.ReplaceAll(parsed.Hostname(), ".", "-")
	if p != "" {
		slug = slug + "-" + strings.ReplaceAll(p, "/", "-")
	}

	slug = strings.ToLower(slug)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, slug)

	// Remove consecutive hyphens and trim
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > 80 {
		slug = slug[:80]
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		slug = "doc"
	}
	return slug + "-" + hash + ext
}

// Dir returns the URL of the directory containing the document at raw,
// with a trailing slash. Query and fragment are dropped.
func Dir(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	if i := strings.LastIndex(parsed.Path, "/"); i >= 0 {
		parsed.Path = parsed.Path[:i+1]
	} else {
		parsed.Path = "/"
	}
	parsed.RawPath = ""
	return parsed.String(), nil
}

// Join resolves name against the directory URL dir.
func Join(dir, name string) (string, error) {
	base, err := url.Parse(dir)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
