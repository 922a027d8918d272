package www

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/jkoski/spotcost-go/config"
	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/task"
)

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	db     *database.Database
	hub    *Hub
	tm     *TemplateManager
}

//go:embed static
var embeddedStaticDir embed.FS

func StartServer(db *database.Database, refresher *task.Refresher, cnfg *config.AppConfig) *Server {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.Api.WwwDir)
	if err != nil {
		logger.Error("template manager initialization error", slog.Any("error", err))
	}

	s := &Server{
		logger: logger,
		config: cnfg.Api,
		db:     db,
		hub:    NewHub(logger),
		tm:     tm,
	}

	go s.hub.Run()

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	http.Handle("/", staticFilesHandler(cnfg.Api.WwwDir))

	http.Handle("/api/analysis", logReqMW(NewAnalysisHandler(
		logger.With(slog.String("handler", "analysis")),
		cnfg.Combine.GetOutputPath())))

	http.Handle("/api/update", logReqMW(NewUpdateHandler(
		logger.With(slog.String("handler", "update")),
		refresher)))

	http.Handle("/api/chart", logReqMW(NewChartHandler(
		logger.With(slog.String("handler", "chart")),
		s.db)))

	http.Handle("/api/days", logReqMW(NewDaysHandler(
		logger.With(slog.String("handler", "days")),
		s.db)))

	http.Handle("/runs", logReqMW(NewRunsHandler(
		logger.With(slog.String("handler", "runs")),
		s.db,
		s.tm)))

	http.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db,
		s.tm)))

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register(client)
	})

	return s
}

// NotifyRefresh pushes the outcome of a finished refresh to the connected
// dashboards. Wired as the refresher's completion hook.
func (s *Server) NotifyRefresh(result task.RefreshResult, err error) {
	data := struct {
		When        time.Time
		Records     int
		SkippedRows int
		Duration    time.Duration
		Error       error
	}{
		When:        time.Now(),
		Records:     result.Records,
		SkippedRows: result.SkippedRows,
		Duration:    result.Duration,
		Error:       err,
	}

	buf, tmplErr := s.tm.Execute("refresh_status.html", data)
	if tmplErr != nil {
		s.logger.Error("template execution failed", slog.Any("error", tmplErr))
		return
	}

	s.hub.Broadcast(buf.Bytes())
}

func (s *Server) Run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	s.logger.Info("starting server...", "addr", addr)
	srv := &http.Server{
		Addr: addr,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-srvErrors:
			if err != nil {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return
		}
	}
}

func staticFilesHandler(extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
