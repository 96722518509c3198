package web

import (
	"net/http"

	"powerpanel/internal/conf"
	"powerpanel/internal/netx"
)

// StartAssets serves scripts, styles and images from the web root
func StartAssets(mux *http.ServeMux) {
	mux.Handle("/assets/", netx.StaticDir("/assets", conf.GetWeb().RootPath, "assets"))
}
