package deeplink

import (
	"net/url"
	"strings"

	"sonacove/internal/config"
)

// Kind classifies where a deep link leads
type Kind int

const (
	Home Kind = iota
	MeetingPath
	OpaquePath
)

func (k Kind) String() string {
	switch k {
	case MeetingPath:
		return "meeting"
	case OpaquePath:
		return "path"
	default:
		return "home"
	}
}

const meetingSegment = "meet"

// Routes are the origins a deep link can resolve to
type Routes struct {
	Scheme          string // custom scheme without "://"
	AppHost         string // host stripped from the front of link paths
	Landing         string // dashboard landing URL
	DashboardOrigin string // origin opaque paths resolve against
	MeetingOrigin   string // origin meeting paths resolve against
}

// RoutesFromConfig derives Routes from the shell configuration
func RoutesFromConfig(cfg *config.Config) Routes {
	return Routes{
		Scheme:          cfg.Scheme,
		AppHost:         cfg.AppHost(),
		Landing:         cfg.Landing,
		DashboardOrigin: origin(cfg.Landing),
		MeetingOrigin:   cfg.MeetingOrigin(),
	}
}

// Target is a classified deep link
type Target struct {
	Kind  Kind
	Path  string // without leading or trailing slashes
	Query string // without the leading "?"
}

// Classify maps any string to exactly one Target. It never fails.
func Classify(raw string, r Routes) Target {
	rest := stripScheme(strings.TrimSpace(raw), r.Scheme)

	path, query, _ := strings.Cut(rest, "?")
	path = stripHost(path, r.AppHost)
	path = strings.Trim(path, "/")

	if path == "" {
		return Target{Kind: Home, Query: query}
	}
	first, _, _ := strings.Cut(path, "/")
	if first == meetingSegment {
		return Target{Kind: MeetingPath, Path: path, Query: query}
	}
	return Target{Kind: OpaquePath, Path: path, Query: query}
}

// Destination builds the URL the main window should load for t
func (t Target) Destination(r Routes) string {
	var base string
	switch t.Kind {
	case Home:
		base = r.Landing
	case MeetingPath:
		base = strings.TrimRight(r.MeetingOrigin, "/") + "/" + t.Path
	default:
		base = strings.TrimRight(r.DashboardOrigin, "/") + "/" + t.Path
	}
	if t.Query == "" {
		return base
	}
	return base + "?" + t.Query
}

// HasScheme reports whether raw starts with the custom scheme
func HasScheme(raw, scheme string) bool {
	if scheme == "" {
		return false
	}
	prefix := scheme + ":"
	raw = strings.TrimSpace(raw)
	return len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix)
}

// FromArgs returns the first command-line argument carrying the scheme
func FromArgs(args []string, scheme string) (string, bool) {
	for _, arg := range args {
		if HasScheme(arg, scheme) {
			return strings.TrimSpace(arg), true
		}
	}
	return "", false
}

// IsMeetingURL reports whether u points inside a meeting room
func IsMeetingURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	return len(segments) >= 2 && segments[0] == meetingSegment && segments[1] != ""
}

// Redirect rewrites in-window navigations the shell handles itself: the
// hang-up page goes to the dashboard close page, and meeting paths that
// landed on another host go to the meeting origin
func Redirect(current string, r Routes) (string, bool) {
	parsed, err := url.Parse(current)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	if strings.Contains(parsed.Path, "/static/close") {
		landing, err := url.Parse(r.Landing)
		if err != nil {
			return "", false
		}
		return origin(r.Landing) + strings.TrimSuffix(landing.Path, "/") + "/close", true
	}

	meeting, err := url.Parse(r.MeetingOrigin)
	if err != nil || meeting.Host == "" {
		return "", false
	}
	if (parsed.Path == "/"+meetingSegment || strings.HasPrefix(parsed.Path, "/"+meetingSegment+"/")) &&
		!strings.EqualFold(parsed.Hostname(), meeting.Hostname()) {
		dest := strings.TrimRight(r.MeetingOrigin, "/") + parsed.Path
		if parsed.RawQuery != "" {
			dest += "?" + parsed.RawQuery
		}
		return dest, true
	}
	return "", false
}

func stripScheme(s, scheme string) string {
	if scheme == "" {
		return s
	}
	for _, prefix := range []string{scheme + "://", scheme + ":"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

// stripHost removes host from the front of path when it is a whole segment
func stripHost(path, host string) string {
	if host == "" || len(path) < len(host) || !strings.EqualFold(path[:len(host)], host) {
		return path
	}
	rest := path[len(host):]
	if rest == "" || rest[0] == '/' {
		return rest
	}
	return path
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
