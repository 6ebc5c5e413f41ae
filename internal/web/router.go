package web

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"mailstash/internal/auth"
	"mailstash/internal/store"
)

type Router struct {
	handler     *Handler
	gate        *auth.BasicAuth
	metricsAuth *auth.EndpointAuth
}

func NewRouter(s *store.Store, gate *auth.BasicAuth, metricsAuth *auth.EndpointAuth, log logrus.FieldLogger) *Router {
	return &Router{
		handler:     NewHandler(s, log),
		gate:        gate,
		metricsAuth: metricsAuth,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	// Liveness probe stays unauthenticated.
	if path == "/healthz" {
		r.handler.HealthHandler(w, req)
		return
	}

	if path == "/metrics" {
		if !r.metricsAuth.IsAuthenticated(req) {
			_ = r.metricsAuth.SendAuthRequired(w)
			return
		}
		r.handler.MetricsHandler(w, req)
		return
	}

	// Everything else sits behind the basic-auth gate.
	if !r.gate.IsAuthenticated(req) {
		_ = r.gate.SendAuthRequired(w)
		return
	}

	if path == "/" {
		r.handler.LandingHandler(w, req)
		return
	}

	if path == "/store" || path == "/store/" {
		switch req.Method {
		case http.MethodGet:
			r.handler.ListMessagesHandler(w, req)
		case http.MethodPost:
			r.handler.UploadMessageHandler(w, req)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if strings.HasPrefix(path, "/store/") {
		uid := strings.TrimPrefix(path, "/store/")
		if uid == "" || strings.Contains(uid, "/") {
			http.NotFound(w, req)
			return
		}
		switch req.Method {
		case http.MethodGet:
			r.handler.GetMessageHandler(w, req, uid)
		case http.MethodDelete:
			r.handler.DeleteMessageHandler(w, req, uid)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	http.NotFound(w, req)
}
