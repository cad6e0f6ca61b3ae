package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"seadrift/internal/archive"
	"seadrift/internal/domain"
	"seadrift/internal/middleware"
	"seadrift/internal/store"
)

// Stats tracks server-wide metrics
type Stats struct {
	startTime        time.Time
	requestCount     atomic.Int64
	wsConnections    atomic.Int64
	wsMessagesIn     atomic.Int64
	wsMessagesOut    atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	rateLimitBlocked atomic.Int64
}

// Global stats instance
var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()         { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections()    { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections()    { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()     { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut()    { s.wsMessagesOut.Add(1) }
func (s *Stats) IncCacheHits()        { s.cacheHits.Add(1) }
func (s *Stats) IncCacheMisses()      { s.cacheMisses.Add(1) }
func (s *Stats) IncRateLimitBlocked() { s.rateLimitBlocked.Add(1) }

// CountRequests increments the request counter for every request served
func CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServerStats.IncRequests()
		next.ServeHTTP(w, r)
	})
}

type ClientCounter interface {
	ClientCount() int
}

type ArchiveWriter interface {
	WriterStats() archive.WriterStats
}

type StatsHandler struct {
	store   *store.Store
	clients ClientCounter
	archive ArchiveWriter
	limiter *middleware.RateLimiter
}

// NewStatsHandler builds the /v1/stats handler. archive and limiter may be
// nil.
func NewStatsHandler(s *store.Store, clients ClientCounter, archive ArchiveWriter, limiter *middleware.RateLimiter) *StatsHandler {
	return &StatsHandler{
		store:   s,
		clients: clients,
		archive: archive,
		limiter: limiter,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse      `json:"server"`
	Incidents IncidentStatsResponse    `json:"incidents"`
	WebSocket WebSocketStatsResponse   `json:"websocket"`
	Cache     CacheStatsResponse       `json:"cache"`
	Archive   *archive.WriterStats     `json:"archive,omitempty"`
	RateLimit *middleware.LimiterStats `json:"rate_limit,omitempty"`
	Go        GoStatsResponse          `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	RateLimited   int64     `json:"rate_limited"`
	Version       string    `json:"version"`
}

type IncidentStatsResponse struct {
	Total  int `json:"total"`
	Inland int `json:"inland"`
	Marine int `json:"marine"`
}

type WebSocketStatsResponse struct {
	Clients     int   `json:"clients"`
	Connections int64 `json:"connections"`
	MessagesIn  int64 `json:"messages_in"`
	MessagesOut int64 `json:"messages_out"`
}

type CacheStatsResponse struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)
	byMode := h.store.CountByMode()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hits := ServerStats.cacheHits.Load()
	misses := ServerStats.cacheMisses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
			RateLimited:   ServerStats.rateLimitBlocked.Load(),
			Version:       "1.0.0",
		},
		Incidents: IncidentStatsResponse{
			Total:  h.store.Count(),
			Inland: byMode[domain.ModeInland],
			Marine: byMode[domain.ModeMarine],
		},
		WebSocket: WebSocketStatsResponse{
			Clients:     h.clients.ClientCount(),
			Connections: ServerStats.wsConnections.Load(),
			MessagesIn:  ServerStats.wsMessagesIn.Load(),
			MessagesOut: ServerStats.wsMessagesOut.Load(),
		},
		Cache: CacheStatsResponse{
			Hits:   hits,
			Misses: misses,
			Ratio:  ratio,
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}
	if h.archive != nil {
		ws := h.archive.WriterStats()
		response.Archive = &ws
	}
	if h.limiter != nil {
		ls := h.limiter.Stats()
		response.RateLimit = &ls
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(response)
}
