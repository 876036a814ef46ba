package gate

import (
	"net/http"
	"strings"

	"koperasihub/internal/models"
	"koperasihub/internal/session"
)

const (
	LoginPath    = "/login"
	RegisterPath = "/register"
	StorePrefix  = "/store/"

	// DefaultPath is where an authenticated caller without a usable role lands
	// when leaving the auth pages. It is deliberately not a dashboard path:
	// every dashboard path sends a roleless caller back to /login, which
	// would loop.
	DefaultPath = "/"
)

var legacyLoginPaths = map[string]bool{
	"/login/vendor":      true,
	"/login/super_admin": true,
	"/login/koperasi":    true,
	"/login/affiliator":  true,
}

type Action int

const (
	Pass Action = iota
	Redirect
	Rewrite
)

func (a Action) String() string {
	switch a {
	case Redirect:
		return "redirect"
	case Rewrite:
		return "rewrite"
	default:
		return "pass"
	}
}

type Decision struct {
	Action Action
	Target string
	// Rule names the rule that matched, for logs and metrics.
	Rule string
}

type Input struct {
	Path    string
	Host    string
	Session models.Session
}

type Gate struct {
	domains *Domains
}

func New(domains *Domains) *Gate {
	return &Gate{domains: domains}
}

// Decide evaluates the routing rules in order; the first match wins. It never
// fails: every input resolves to a redirect, a rewrite or a pass.
func (g *Gate) Decide(in Input) Decision {
	path := in.Path
	if path == "" {
		path = "/"
	}
	sess := in.Session

	if legacyLoginPaths[path] {
		return Decision{Action: Redirect, Target: LoginPath, Rule: "legacy_login"}
	}

	if sess.Authenticated() && isAuthPage(path) {
		target := sess.Role.DashboardPath()
		if target == "" {
			target = DefaultPath
		}
		return Decision{Action: Redirect, Target: target, Rule: "authenticated_auth_page"}
	}

	if path == models.DashboardRoot || path == models.DashboardRoot+"/" {
		if sess.HasRole() {
			return Decision{Action: Redirect, Target: sess.Role.DashboardPath(), Rule: "dashboard_root"}
		}
		return Decision{Action: Redirect, Target: LoginPath, Rule: "dashboard_root"}
	}

	// A token without a known role counts as unauthenticated here.
	if !sess.HasRole() && IsProtected(path) {
		return Decision{Action: Redirect, Target: LoginPath, Rule: "protected"}
	}

	subdomain := g.domains.Subdomain(in.Host)
	if subdomain != "" && subdomain != "www" && !isInternalPath(path) && path == "/" {
		return Decision{Action: Rewrite, Target: StorePrefix + subdomain, Rule: "tenant_storefront"}
	}

	return Decision{Action: Pass, Rule: "pass"}
}

// ProtectedPrefixes is derived from the role table.
func ProtectedPrefixes() []string {
	roles := models.AllRoles()
	prefixes := make([]string, 0, len(roles))
	for _, role := range roles {
		prefixes = append(prefixes, role.DashboardPath())
	}
	return prefixes
}

func IsProtected(path string) bool {
	for _, prefix := range ProtectedPrefixes() {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAuthPage(path string) bool {
	return path == LoginPath || path == RegisterPath || strings.HasPrefix(path, RegisterPath+"/")
}

func isInternalPath(path string) bool {
	return strings.HasPrefix(path, "/_next") ||
		strings.HasPrefix(path, "/api") ||
		strings.HasPrefix(path, "/static") ||
		strings.Contains(path, ".")
}

// Observer is notified of every decision. Implementations must not block.
type Observer func(r *http.Request, d Decision)

// Middleware applies the gate in front of next. The session must already be
// in the request context (see session.Middleware).
func (g *Gate) Middleware(observe Observer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(Input{Path: r.URL.Path, Host: r.Host, Session: session.FromContext(r.Context())})
		if observe != nil {
			observe(r, decision)
		}
		switch decision.Action {
		case Redirect:
			http.Redirect(w, r, decision.Target, redirectStatus(r.Method))
		case Rewrite:
			rewritten := r.Clone(r.Context())
			rewritten.URL.Path = decision.Target
			rewritten.URL.RawPath = ""
			rewritten.RequestURI = decision.Target
			if r.URL.RawQuery != "" {
				rewritten.RequestURI += "?" + r.URL.RawQuery
			}
			next.ServeHTTP(w, rewritten)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// redirectStatus is 307 for reads. Other methods get 303 so a resubmitted
// form lands on the target as a GET.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}
