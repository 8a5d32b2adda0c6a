package pipelines

import "net/http"

// RegisterRoutes registers the pipeline stage routes on the mux.
func RegisterRoutes(mux *http.ServeMux) {
	h := &Handler{}

	mux.HandleFunc("GET /api/v1/pipeline/stages", h.ListStages)
	mux.HandleFunc("GET /api/v1/pipeline/stages/{stage}", h.GetStage)
}
