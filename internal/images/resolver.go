// Package images turns stored image paths into loadable URLs and checks that remote images exist.
package images

import (
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/kmetijamarosa/storefront/internal/logging"
)

const (
	DefaultPlaceholder  = "/images/placeholder.jpg"
	DefaultRelativeBase = "/images"
)

// DefaultAllowedDomains are the external hosts product images may be served from.
var DefaultAllowedDomains = []string{
	"supabase.co",
	"kmetija-marosa.si",
	"images.unsplash.com",
	"res.cloudinary.com",
}

// DefaultFolderCase maps lowercase folder names to the casing used on disk.
var DefaultFolderCase = map[string]string{
	"melisa":   "Melisa",
	"aronija":  "Aronija",
	"kamilice": "Kamilice",
}

type ResolverConfig struct {
	// BaseURL, when set, is prefixed to root-relative results and its host is always allowed.
	BaseURL          string
	Placeholder      string
	RelativeBase     string
	AllowedDomains   []string
	FolderCase       map[string]string
	EnforceAllowlist bool
}

type Resolver struct {
	baseURL          string
	placeholder      string
	relativeBase     string
	allowedDomains   []string
	folderCase       map[string]string
	enforceAllowlist bool
	logger           *slog.Logger
}

func NewResolver(cfg ResolverConfig, logger *slog.Logger) *Resolver {
	r := &Resolver{
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		placeholder:      cfg.Placeholder,
		relativeBase:     cfg.RelativeBase,
		folderCase:       cfg.FolderCase,
		enforceAllowlist: cfg.EnforceAllowlist,
		logger:           logging.OrDiscard(logger),
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholder
	}
	if r.relativeBase == "" {
		r.relativeBase = DefaultRelativeBase
	}
	if r.folderCase == nil {
		r.folderCase = DefaultFolderCase
	}

	domains := cfg.AllowedDomains
	if len(domains) == 0 {
		domains = DefaultAllowedDomains
	}
	for _, domain := range domains {
		if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
			r.allowedDomains = append(r.allowedDomains, domain)
		}
	}
	if host := hostOf(r.baseURL); host != "" {
		r.allowedDomains = append(r.allowedDomains, host)
	}
	return r
}

func (r *Resolver) Placeholder() string {
	return r.placeholder
}

// IsPlaceholder reports whether u points at a placeholder image.
func (r *Resolver) IsPlaceholder(u string) bool {
	if u == "" {
		return false
	}
	return u == r.placeholder || strings.Contains(strings.ToLower(u), "placeholder")
}

// Resolve maps any stored path to a URL. It never fails: bad input yields fallback,
// and an empty fallback means the configured placeholder.
func (r *Resolver) Resolve(raw string, fallback string) (resolved string) {
	if fallback == "" {
		fallback = r.placeholder
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("image path resolution panicked", "path", raw, "panic", rec)
			resolved = fallback
		}
	}()

	p := strings.TrimSpace(raw)
	switch {
	case p == "":
		return fallback
	case strings.HasPrefix(p, "./"):
		return r.rootRelative(path.Join(r.relativeBase, strings.TrimPrefix(p, "./")))
	case strings.HasPrefix(p, "../"):
		for strings.HasPrefix(p, "../") {
			p = strings.TrimPrefix(p, "../")
		}
		return r.rootRelative("/" + p)
	case strings.HasPrefix(p, "//"):
		return r.external("https:"+p, fallback)
	case strings.HasPrefix(p, "/"):
		return r.rootRelative(p)
	case hasScheme(p, "http://"), hasScheme(p, "https://"):
		return r.external(p, fallback)
	default:
		return r.rootRelative("/" + p)
	}
}

func (r *Resolver) external(raw string, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		r.logger.Warn("invalid image URL", "url", raw, "error", err)
		return fallback
	}
	u.Scheme = "https"

	host := strings.ToLower(u.Hostname())
	if !r.domainAllowed(host) {
		if r.enforceAllowlist {
			r.logger.Warn("image host not in allowlist, using fallback", "host", host)
			return fallback
		}
		r.logger.Warn("image host not in allowlist", "host", host)
	}
	return u.String()
}

func (r *Resolver) domainAllowed(host string) bool {
	for _, domain := range r.allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) || strings.HasSuffix(domain, "."+host) {
			return true
		}
	}
	return false
}

// rootRelative rebuilds a root-relative path: existing escapes are decoded first so a
// second pass produces the same output, folder names get their on-disk casing, and each
// segment is escaped except package folders whose names keep literal spaces.
func (r *Resolver) rootRelative(p string) string {
	suffix := ""
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p, suffix = p[:i], p[i:]
	}

	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, 0, len(segments))
	for i, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		segment = unescapeSegment(segment)
		if i < len(segments)-1 {
			if fixed, ok := r.folderCase[strings.ToLower(segment)]; ok {
				segment = fixed
			}
		}
		if strings.Contains(strings.ToLower(segment), "paket") {
			out = append(out, segment)
			continue
		}
		out = append(out, url.PathEscape(segment))
	}

	return r.baseURL + "/" + strings.Join(out, "/") + suffix
}

func unescapeSegment(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		return decoded
	}
	return strings.ReplaceAll(segment, "%20", " ")
}

func hasScheme(p, scheme string) bool {
	return len(p) >= len(scheme) && strings.EqualFold(p[:len(scheme)], scheme)
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
