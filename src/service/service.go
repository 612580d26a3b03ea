// Package service implements the optional HTTP service of a murmur process.
package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// StatsProvider is implemented by the components whose counters are exposed
// by /stats.
type StatsProvider interface {
	GetStats() map[string]string
}

// Service exposes the stats of a node in JSON, and its Prometheus metrics.
type Service struct {
	sync.Mutex

	bindAddress string
	providers   []StatsProvider
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService creates a Service. Stats of the providers are merged, later
// providers overriding earlier ones on duplicate keys.
func NewService(bindAddress string, logger *logrus.Entry, providers ...StatsProvider) *Service {
	service := Service{
		bindAddress: bindAddress,
		providers:   providers,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering murmur API handlers")
	s.mux.Handle("/stats", telemetry.Instrument("stats", s.makeHandler(s.GetStats)))
	s.mux.Handle("/metrics", telemetry.MetricsHandler())
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving murmur API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]string)
	for _, p := range s.providers {
		for k, v := range p.GetStats() {
			stats[k] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}
