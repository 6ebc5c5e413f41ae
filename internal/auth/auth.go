// Package auth guards HTTP endpoints with static credentials.
//
// The usual pattern inside a handler:
//
//	if !gate.IsAuthenticated(r) {
//		gate.SendAuthRequired(w)
//		return
//	}
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	basicScheme      = "Basic"
	defaultRealm     = "Restricted"
	unauthorizedBody = "Unauthorized"
)

var errInvalidUTF8 = errors.New("credentials are not valid UTF-8")

// BasicAuth validates HTTP Basic Authentication against a single configured
// username/password pair. It is immutable after construction and safe for
// concurrent use. An empty username or password disables enforcement: every
// request passes.
type BasicAuth struct {
	username string
	password string
	realm    string
	enabled  bool
	log      logrus.FieldLogger
}

// NewBasicAuth builds a gate for the given credential pair. Any input is
// accepted; empty credentials simply disable authentication. The realm
// defaults to "Restricted" and is used only in the challenge header.
// A nil log falls back to the logrus standard logger.
func NewBasicAuth(username, password, realm string, log logrus.FieldLogger) *BasicAuth {
	if realm == "" {
		realm = defaultRealm
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BasicAuth{
		username: username,
		password: password,
		realm:    realm,
		enabled:  username != "" && password != "",
		log:      log,
	}
}

// IsAuthEnabled reports whether a credential pair was configured.
func (a *BasicAuth) IsAuthEnabled() bool {
	return a.enabled
}

// Realm returns the configured realm.
func (a *BasicAuth) Realm() string {
	return a.realm
}

// verdict is the internal outcome of a credential check. It is collapsed to a
// boolean at the public boundary so callers never see failure subtypes.
type verdict int

const (
	verdictOK verdict = iota
	verdictNoHeader
	verdictBadEncoding
	verdictBadShape
	verdictMismatch
)

// verify inspects a raw Authorization header value. The error is non-nil only
// for verdictBadEncoding and carries the decode failure for debug logging.
func (a *BasicAuth) verify(header string) (verdict, error) {
	if !strings.HasPrefix(header, basicScheme+" ") {
		return verdictNoHeader, nil
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(basicScheme)+1:])
	if err != nil {
		return verdictBadEncoding, err
	}
	if !utf8.Valid(raw) {
		return verdictBadEncoding, errInvalidUTF8
	}
	user, pass, found := strings.Cut(string(raw), ":")
	if !found {
		return verdictBadShape, nil
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.password)) == 1
	if !userOK || !passOK {
		return verdictMismatch, nil
	}
	return verdictOK, nil
}

// IsAuthenticated reports whether the request carries valid credentials.
// Returns true unconditionally when authentication is disabled. Malformed
// headers, bad base64, invalid UTF-8 and credential mismatches all resolve to
// false; nothing is ever propagated as an error.
func (a *BasicAuth) IsAuthenticated(r *http.Request) bool {
	if !a.enabled {
		return true
	}

	v, err := a.verify(r.Header.Get("Authorization"))
	switch v {
	case verdictOK:
		a.log.WithField("remote", r.RemoteAddr).Tracef("authentication successful for user %q", a.username)
		return true
	case verdictNoHeader:
		a.log.WithField("remote", r.RemoteAddr).Debug("authentication failed: missing or invalid Authorization header")
	case verdictBadEncoding:
		a.log.WithField("remote", r.RemoteAddr).Debugf("authentication failed: error decoding credentials: %v", err)
	default:
		a.log.WithField("remote", r.RemoteAddr).Debug("authentication failed: invalid credentials")
	}
	return false
}

// SendAuthRequired writes the 401 challenge response. The realm is
// interpolated verbatim into the WWW-Authenticate header; embedded quote
// characters are not escaped. A transport write failure is returned to the
// caller.
func (a *BasicAuth) SendAuthRequired(w http.ResponseWriter) error {
	a.log.Debug("sending 401 Unauthorized")
	return sendChallenge(w, basicScheme, a.realm)
}

// Middleware wraps next so unauthenticated requests are rejected with the
// challenge response before reaching it.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.IsAuthenticated(r) {
			_ = a.SendAuthRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sendChallenge(w http.ResponseWriter, scheme, realm string) error {
	w.Header().Set("WWW-Authenticate", scheme+` realm="`+realm+`"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(unauthorizedBody)))
	w.WriteHeader(http.StatusUnauthorized)
	_, err := w.Write([]byte(unauthorizedBody))
	return err
}
