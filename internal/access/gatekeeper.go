package access

import (
	"net/url"
	"strings"
	"unicode"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/auth/login"

// PublicRoutes never require a session.
var PublicRoutes = []string{
	"/auth/login",
	"/auth/signup",
	"/auth/callback",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/auth/verify",
}

// AuthRoutes are hidden from callers that already hold a session.
var AuthRoutes = []string{
	"/auth/login",
	"/auth/signup",
}

type prefixRule struct {
	prefix  string
	allowed []Role
}

// Rules are evaluated in order; the first matching prefix decides.
var defaultRules = []prefixRule{
	{prefix: "/admin", allowed: []Role{RoleRecruitingAdmin, RoleSuperAdmin}},
	{prefix: "/panelist", allowed: []Role{RolePanelist, RoleRecruitingAdmin, RoleSuperAdmin}},
	{prefix: "/super-admin", allowed: []Role{RoleSuperAdmin}},
}

// Decision is the outcome of a gatekeeper check.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Allowed is the decision that lets the request through.
var Allowed = Decision{Allow: true}

// Redirect builds a denial decision.
func Redirect(target string) Decision {
	return Decision{RedirectTo: target}
}

// Gatekeeper decides whether a caller may view a page.
type Gatekeeper struct {
	public []string
	auth   []string
	rules  []prefixRule
}

// NewGatekeeper returns a gatekeeper with the platform route table.
func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{
		public: PublicRoutes,
		auth:   AuthRoutes,
		rules:  defaultRules,
	}
}

// IsPublic reports whether the path is on the public allow-list, either
// exactly or as a sub-path.
func (g *Gatekeeper) IsPublic(path string) bool {
	return matchesAny(path, g.public)
}

// IsAuthRoute reports whether the path is a login or signup page.
func (g *Gatekeeper) IsAuthRoute(path string) bool {
	for _, route := range g.auth {
		if path == route {
			return true
		}
	}
	return false
}

// Decide evaluates the path against the caller identity. identity is nil for
// anonymous callers.
func (g *Gatekeeper) Decide(path string, identity *Identity) Decision {
	if identity != nil && g.IsAuthRoute(path) {
		return Redirect(identity.Role.Home())
	}

	if g.IsPublic(path) {
		return Allowed
	}

	if identity == nil {
		return Redirect(LoginRedirect(path))
	}

	role := ParseRole(string(identity.Role))
	if !g.CanAccess(path, role) {
		return Redirect(role.Home())
	}

	return Allowed
}

// CanAccess evaluates the prefix rules for the role.
func (g *Gatekeeper) CanAccess(path string, role Role) bool {
	for _, rule := range g.rules {
		if !strings.HasPrefix(path, rule.prefix) {
			continue
		}
		for _, allowed := range rule.allowed {
			if allowed == role {
				return true
			}
		}
		return false
	}
	return true
}

// LoginRedirect builds the login URL that forwards back to path.
func LoginRedirect(path string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
	return LoginPath + "?redirect=" + escaped
}

// SafeRedirect returns target when it is a local absolute path, fallback otherwise.
func SafeRedirect(target, fallback string) string {
	target = strings.TrimSpace(target)
	if target == "" || strings.IndexFunc(target, unicode.IsControl) >= 0 {
		return fallback
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || strings.HasPrefix(parsed.Path, "//") {
		return fallback
	}
	return target
}

func matchesAny(path string, routes []string) bool {
	for _, route := range routes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}
