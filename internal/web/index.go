package web

import (
	"net/http"
	"path/filepath"

	"powerpanel/internal/auth"
	"powerpanel/internal/conf"
	"powerpanel/internal/netx"
)

// StartIndex registers index/dashboard routes with the given mux
func StartIndex(mux *http.ServeMux, dash *Dashboard) {
	mux.HandleFunc("/", auth.RequireAuth(handleIndex))
	mux.HandleFunc("/api/power", auth.RequireAuth(dash.servePower))
}

// handleIndex serves the main dashboard page
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}
	if r.URL.Path != "/" {
		netx.WriteNotFound(w, "Not found")
		return
	}

	http.ServeFile(w, r, filepath.Join(conf.GetWeb().RootPath, "index.html"))
}

func (d *Dashboard) servePower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	metrics, err := d.collectMetrics(r.Context())
	if err != nil {
		d.log.Error(err, "failed to collect power metrics")
		netx.WriteInternalServerError(w, "Failed to collect power metrics", err)
		return
	}
	netx.WriteSuccess(w, "OK", metrics)
}
