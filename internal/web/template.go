package web

import (
	"html/template"
	"net/http"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>mailstash</title></head>
<body>
<h1>mailstash</h1>
<p>{{.Messages}} message(s), {{.TotalBytes}} bytes stored.</p>
<ul>
<li><a href="/store">GET /store</a> &mdash; list messages</li>
<li>POST /store &mdash; upload a raw message</li>
<li>GET /store/{uid} &mdash; fetch a message</li>
<li>DELETE /store/{uid} &mdash; delete a message</li>
<li><a href="/metrics">GET /metrics</a> &mdash; statistics</li>
<li><a href="/healthz">GET /healthz</a> &mdash; liveness</li>
</ul>
</body>
</html>
`))

type landingData struct {
	Messages   int
	TotalBytes int64
}

func (h *Handler) LandingHandler(w http.ResponseWriter, r *http.Request) {
	count, size, err := h.store.Stats()
	if err != nil {
		h.log.Errorf("failed to read statistics: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTemplate.Execute(w, landingData{Messages: count, TotalBytes: size}); err != nil {
		h.log.Debugf("failed to render landing page: %v", err)
	}
}
