package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/arunsharma1203/grievance/internal/api/recovery"
	"github.com/arunsharma1203/grievance/internal/blob"
	"github.com/arunsharma1203/grievance/internal/services"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Grievances *services.GrievanceService
	Moods      *services.MoodService
	Diary      *services.DiaryService
	Notify     *services.NotifyService
	Audio      *services.AudioService

	// UploadDir is served read-only under /uploads/.
	UploadDir      string
	MaxJSONBytes   int64
	MaxUploadBytes int64

	IsHealthy  func() bool
	Components func() map[string]bool

	Log zerolog.Logger
}

// NewRouter wires all submission routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(hlog.NewHandler(d.Log))
	router.Use(hlog.AccessHandler(accessLog))
	router.Use(recovery.Middleware(d.Log))

	healthHandler := NewHealthHandler(d.IsHealthy, d.Components)
	grievanceHandler := NewGrievanceHandler(d.Grievances, d.MaxJSONBytes, d.Log)
	moodHandler := NewMoodHandler(d.Moods, d.MaxJSONBytes, d.Log)
	diaryHandler := NewDiaryHandler(d.Diary, d.MaxJSONBytes, d.Log)
	notifyHandler := NewNotifyHandler(d.Notify, d.MaxJSONBytes, d.Log)
	audioHandler := NewAudioHandler(d.Audio, d.MaxUploadBytes, d.Log)

	router.HandleFunc("/", healthHandler.Root).Methods("GET")
	router.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Grievances
	router.HandleFunc("/grievances", grievanceHandler.List).Methods("GET")
	router.HandleFunc("/grievances", grievanceHandler.Create).Methods("POST")
	router.HandleFunc("/grievances/{id}", grievanceHandler.Get).Methods("GET")
	router.HandleFunc("/grievances/{id}/reply", grievanceHandler.Reply).Methods("POST")

	// Moods
	router.HandleFunc("/moods", moodHandler.List).Methods("GET")
	router.HandleFunc("/mood", moodHandler.Create).Methods("POST")
	router.HandleFunc("/mood/latest", moodHandler.Latest).Methods("GET")

	// Diary
	router.HandleFunc("/diary", diaryHandler.List).Methods("GET")
	router.HandleFunc("/diary", diaryHandler.Create).Methods("POST")
	router.HandleFunc("/diary/{id}", diaryHandler.Delete).Methods("DELETE")

	router.HandleFunc("/notify", notifyHandler.Login).Methods("POST")

	// Audio
	router.HandleFunc("/upload-audio", audioHandler.Upload).Methods("POST")
	router.HandleFunc("/telegram/file/{file_id}", audioHandler.ResolveFile).Methods("GET")
	if d.UploadDir != "" {
		router.PathPrefix(blob.URLPrefix).Handler(
			http.StripPrefix(blob.URLPrefix, noListing(http.FileServer(http.Dir(d.UploadDir))))).Methods("GET", "HEAD")
	}

	return router
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// noListing hides directory indexes and dotfiles (in-progress uploads).
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "" || strings.HasSuffix(p, "/") || strings.HasPrefix(p, ".") || strings.Contains(p, "/.") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
