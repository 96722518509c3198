package web

import (
	"net/http"

	"powerpanel/internal/conf"
	"powerpanel/internal/netx"
)

// StartPages serves the public pages (login) from the web root
func StartPages(mux *http.ServeMux) {
	mux.Handle("/pages/", netx.StaticDir("/pages", conf.GetWeb().RootPath, "pages"))
}
