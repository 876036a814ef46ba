package gate

import (
	"net"
	"strings"
)

// DefaultBaseDomains are the production and development hostnames the
// storefront is served from.
var DefaultBaseDomains = []string{
	"koperasihub.id",
	"koperasi-hub-fe.test",
	"koperasi-hub-fe.vercel.app",
	"localhost",
}

type Domains struct {
	bases []string
}

func NewDomains(bases []string) *Domains {
	cleaned := make([]string, 0, len(bases))
	for _, base := range bases {
		base = strings.ToLower(strings.Trim(strings.TrimSpace(base), "."))
		if base != "" {
			cleaned = append(cleaned, base)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultBaseDomains...)
	}
	return &Domains{bases: cleaned}
}

// Subdomain resolves the tenant label for host. A host equal to a base domain
// yields "". A host under a base domain yields the label in front of it. Any
// other host is a custom domain and is returned whole; "www" is returned
// unchanged so callers can ignore it.
func (d *Domains) Subdomain(host string) string {
	host = normalizeHost(host)
	if host == "" {
		return ""
	}
	for _, base := range d.bases {
		if host == base {
			return ""
		}
		if strings.HasSuffix(host, "."+base) {
			return strings.TrimSuffix(host, "."+base)
		}
	}
	return host
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
