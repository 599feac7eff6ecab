package archive

import (
	"encoding/json"
	"net/http"
	"time"
)

const latestQueryWindow = 24 * time.Hour

// NewHTTPMux exposes the archive over HTTP. GET /data/latest answers
// from Influx and falls back to the in-memory snapshot when the query
// fails; X-Data-Source names which one served the response.
func NewHTTPMux(s *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/data/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		source := "influx"
		entries, err := s.QueryLatest(r.Context(), latestQueryWindow)
		if err != nil {
			s.log.Warn().Err(err).Msg("influx query failed, serving cached snapshot")
			source = "cache"
			entries = s.LatestFromCache()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", source)
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			s.log.Error().Err(err).Msg("encode latest response")
		}
	})

	return mux
}
