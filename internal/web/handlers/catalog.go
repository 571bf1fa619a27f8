package handlers

import (
	"net/http"

	"github.com/kozaktomas/photobooth/internal/catalog"
)

type layoutsResponse struct {
	Default string           `json:"default"`
	Layouts []catalog.Layout `json:"layouts"`
}

type filterResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListLayouts returns the collage layouts.
func ListLayouts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, layoutsResponse{
		Default: catalog.DefaultLayoutID,
		Layouts: catalog.Layouts(),
	})
}

// ListFilters returns the filter presets. Effect chains stay server-side.
func ListFilters(w http.ResponseWriter, r *http.Request) {
	filters := catalog.Filters()
	out := make([]filterResponse, len(filters))
	for i, f := range filters {
		out[i] = filterResponse{ID: f.ID, Name: f.Name}
	}
	respondJSON(w, http.StatusOK, out)
}
