package netx

import (
	"net/http"
	"path/filepath"
)

// StaticDir serves files from root/dir under the given URL prefix
func StaticDir(prefix, root, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(root, dir))))
}
