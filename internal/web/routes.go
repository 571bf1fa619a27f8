package web

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photobooth/internal/web/handlers"
	"github.com/kozaktomas/photobooth/internal/web/middleware"
	"github.com/kozaktomas/photobooth/internal/web/static"
)

func (s *Server) setupRoutes() {
	boothHandler := handlers.NewBoothHandler(s.sessionManager, s.log)
	collageHandler := handlers.NewCollageHandler(s.log)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalogs
		r.Get("/layouts", handlers.ListLayouts)
		r.Get("/filters", handlers.ListFilters)

		// Start a visit
		r.Post("/sessions", boothHandler.Create)

		// Everything else belongs to the visitor's session
		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.RequireSession(s.sessionManager))

			r.Get("/", boothHandler.Get)
			r.Delete("/", boothHandler.End)
			r.Put("/max-photos", boothHandler.SetMaxPhotos)

			// Photos
			r.Post("/photos", boothHandler.Capture)
			r.Delete("/photos", boothHandler.ResetPhotos)
			r.Get("/photos/{id}", boothHandler.Photo)
			r.Get("/photos/{id}/original", boothHandler.Original)
			r.Put("/photos/{id}/filters", boothHandler.EditFilters)
			r.Delete("/photos/{id}/filters", boothHandler.ResetFilters)
			r.Delete("/photos/{id}", boothHandler.DeletePhoto)

			// Collage
			r.Post("/collage", collageHandler.Compose)
			r.Get("/collage", collageHandler.Status)
			r.Get("/collage/events", collageHandler.Events)
			r.Get("/collage/download", collageHandler.Download)
			r.Get("/collage/print", collageHandler.Print)
			r.Get("/collage/pdf", collageHandler.PDF)
		})
	})

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".woff2": "font/woff2",
	".woff":  "font/woff",
}

// serveSPA serves the single-page application
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	if f, err := fs.Open(p); err == nil {
		defer f.Close()
		if stat, err := f.Stat(); err == nil && !stat.IsDir() {
			contentType, ok := contentTypes[strings.ToLower(path.Ext(p))]
			if !ok {
				contentType = "application/octet-stream"
			}
			w.Header().Set("Content-Type", contentType)

			// Add cache headers for static assets
			if strings.HasPrefix(p, "/assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}

			w.WriteHeader(http.StatusOK)
			io.Copy(w, f)
			return
		}
	}

	// For SPA routing, serve index.html for non-asset paths
	if strings.HasPrefix(p, "/assets/") {
		http.NotFound(w, r)
		return
	}
	indexFile, err := fs.Open("/index.html")
	if err != nil {
		http.Error(w, "frontend not available", http.StatusNotFound)
		return
	}
	defer indexFile.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, indexFile)
}
