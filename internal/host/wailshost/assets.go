package wailshost

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sonacove/internal/bridge"
)

// ManifestPath is where the shell page fetches its bridge allow-list
const ManifestPath = "/bridge-manifest.json"

// AssetHandler serves the dynamic shell assets the embedded files cannot
// carry. Wails only consults it for paths missing from the embedded FS.
func AssetHandler(b *bridge.Bridge) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(ManifestPath, func(w http.ResponseWriter, req *http.Request) {
		data, err := b.Manifest()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	})
	return r
}
