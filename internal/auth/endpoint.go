package auth

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/sirupsen/logrus"
)

const bearerScheme = "Bearer"

// EndpointOptions configures an EndpointAuth. Type selects the scheme:
// "basic" (default) uses Username/Password, "bearer" uses Token, "none"
// disables authentication. AllowList entries are IP addresses or CIDR blocks
// that bypass authentication entirely.
type EndpointOptions struct {
	Type      string
	Username  string
	Password  string
	Token     string
	Realm     string
	AllowList []string
}

// EndpointAuth authenticates requests against an endpoint configuration.
// It supports Basic and Bearer schemes plus an IP allow list, and is safe
// for concurrent use.
type EndpointAuth struct {
	authType string
	basic    *BasicAuth
	token    string
	realm    string
	enabled  bool
	allowed  []netip.Prefix
	log      logrus.FieldLogger
}

// NewEndpointAuth builds an endpoint authenticator. Invalid allow-list
// entries are logged and skipped.
func NewEndpointAuth(opts EndpointOptions, log logrus.FieldLogger) *EndpointAuth {
	if log == nil {
		log = logrus.StandardLogger()
	}
	realm := opts.Realm
	if realm == "" {
		realm = defaultRealm
	}
	authType := strings.ToLower(opts.Type)
	if authType == "" {
		authType = "basic"
	}

	// Any type other than "none" with a credential present enforces auth;
	// unsupported types then fail closed in IsAuthenticated.
	enabled := false
	switch authType {
	case "none":
	case "basic":
		enabled = opts.Username != "" && opts.Password != ""
	case "bearer":
		enabled = opts.Token != ""
	default:
		enabled = opts.Token != "" || (opts.Username != "" && opts.Password != "")
	}

	return &EndpointAuth{
		authType: authType,
		basic:    NewBasicAuth(opts.Username, opts.Password, realm, log),
		token:    opts.Token,
		realm:    realm,
		enabled:  enabled,
		allowed:  parseAllowList(opts.AllowList, log),
		log:      log,
	}
}

// IsAuthEnabled reports whether this endpoint enforces authentication.
func (a *EndpointAuth) IsAuthEnabled() bool {
	return a.enabled
}

// IsAuthenticated reports whether the request may proceed: allow-listed
// remote addresses pass without credentials, disabled auth passes everything,
// otherwise the configured scheme is validated.
func (a *EndpointAuth) IsAuthenticated(r *http.Request) bool {
	if a.isAllowed(r.RemoteAddr) {
		a.log.WithField("remote", r.RemoteAddr).Trace("authentication bypassed for allowed address")
		return true
	}
	if !a.enabled {
		return true
	}

	switch a.authType {
	case "basic":
		return a.basic.IsAuthenticated(r)
	case "bearer":
		return a.validateBearer(r)
	}

	a.log.WithField("remote", r.RemoteAddr).Debugf("authentication failed: unsupported auth type %q", a.authType)
	return false
}

func (a *EndpointAuth) validateBearer(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerScheme+" ") {
		a.log.WithField("remote", r.RemoteAddr).Debug("authentication failed: expected Bearer token")
		return false
	}
	token := strings.TrimSpace(header[len(bearerScheme)+1:])
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		a.log.WithField("remote", r.RemoteAddr).Debug("authentication failed: invalid Bearer token")
		return false
	}
	return true
}

// SendAuthRequired writes the 401 challenge matching the configured scheme.
func (a *EndpointAuth) SendAuthRequired(w http.ResponseWriter) error {
	a.log.Debug("sending 401 Unauthorized")
	scheme := basicScheme
	if a.authType == "bearer" {
		scheme = bearerScheme
	}
	return sendChallenge(w, scheme, a.realm)
}

// Middleware wraps next so unauthenticated requests are rejected with the
// challenge response before reaching it.
func (a *EndpointAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.IsAuthenticated(r) {
			_ = a.SendAuthRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *EndpointAuth) isAllowed(remoteAddr string) bool {
	if len(a.allowed) == 0 {
		return false
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parseAllowList(entries []string, log logrus.FieldLogger) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				log.Warnf("invalid CIDR %q in allow list: %v", entry, err)
				continue
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			log.Warnf("invalid IP %q in allow list: %v", entry, err)
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}
