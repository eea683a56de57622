package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sngm3741/review-relay/internal/config"
	"github.com/sngm3741/review-relay/internal/infrastructure/leadconnector"
	mongodoc "github.com/sngm3741/review-relay/internal/infrastructure/mongo"
	adminhttp "github.com/sngm3741/review-relay/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/review-relay/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/review-relay/internal/interfaces/http/public"
	"github.com/sngm3741/review-relay/internal/monitoring"
	reviewapp "github.com/sngm3741/review-relay/internal/review/application"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger            *log.Logger
	client            *mongo.Client
	metrics           *monitoring.Metrics
	submissionService reviewapp.SubmissionService
	failureService    reviewapp.FailureQueryService
	authenticator     *commonhttp.Authenticator
	addr              string
	allowedOrigins    []string
}

// Run はHTTPサーバーを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// Handler はミドルウェアとルーティングを組み立てたルーターを返す。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(monitoring.SentryMiddleware)
	router.Use(s.recoverer)
	if s.metrics != nil {
		router.Use(s.metrics.Middleware)
	}
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:      s.logger,
		Submissions: s.submissionService,
	})
	publicHandler.Register(router)

	if s.failureService != nil && s.authenticator != nil {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:   s.logger,
			Failures: s.failureService,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.authenticator.Middleware)
			adminHandler.Register(r)
		})
	}

	return router
}

// withCORS は許可リストに含まれる Origin に限り CORS ヘッダーを付与する。
// プリフライト (OPTIONS) は常に 200 の空レスポンスで終える。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && (allowAll || originAllowed(origin, allowed)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// recoverer は panic を Sentry へ送り、JSON の 500 応答に変換する。
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			s.logger.Printf("panic を回復: %v\n%s", err, debug.Stack())
			monitoring.CaptureError(err, r, map[string]interface{}{"panic": true})
			commonhttp.WriteError(s.logger, w, http.StatusInternalServerError, "Server error", err.Error())
		}()
		next.ServeHTTP(w, r)
	})
}

// healthHandler は MongoDB が構成されていれば疎通確認を行う。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if s.client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
				return
			}
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// shutdown は MongoDB クライアントをタイムアウト付きで切断する。
func (s *Server) shutdown(ctx context.Context) {
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

// New は Config と (任意の) Mongo クライアントからサービスとハンドラを組み立てた Server を返す。
// client が nil の場合、失敗台帳と管理 API は無効になる。
func New(cfg config.Config, client *mongo.Client, metrics *monitoring.Metrics) *Server {
	srv := &Server{
		logger:         cfg.ServerLog,
		client:         client,
		metrics:        metrics,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}
	if srv.logger == nil {
		srv.logger = log.New(os.Stdout, "[review-relay] ", log.LstdFlags)
	}

	var observer leadconnector.CallObserver
	var stepObserver reviewapp.StepObserver
	if metrics != nil {
		observer = metrics
		stepObserver = metrics
	}

	crm := leadconnector.NewClient(leadconnector.Config{
		HTTPClient:  &http.Client{Timeout: cfg.CRMTimeout},
		BaseURL:     cfg.CRMBaseURL,
		APIVersion:  cfg.CRMAPIVersion,
		AccessToken: cfg.AccessToken,
		Observer:    observer,
	})

	var failures reviewapp.FailureRecorder
	if client != nil {
		repo := mongodoc.NewEnrichmentFailureRepository(client.Database(cfg.MongoDatabase), cfg.FailedEnrichmentCollection)
		failures = repo
		srv.failureService = reviewapp.NewFailureQueryService(repo)
	}

	srv.submissionService = reviewapp.NewSubmissionService(reviewapp.SubmissionConfig{
		Logger: srv.logger,
		CRM:    crm,
		Credentials: reviewapp.Credentials{
			AccessToken: cfg.AccessToken,
			LocationID:  cfg.LocationID,
		},
		FieldIDs: reviewapp.CustomFieldIDs{
			Rating:         cfg.CustomFields.Rating,
			ReviewLocation: cfg.CustomFields.ReviewLocation,
			ReviewDate:     cfg.CustomFields.ReviewDate,
			Feedback:       cfg.CustomFields.Feedback,
		},
		Mode:          reviewapp.ParseCustomFieldMode(cfg.CustomFieldsMode),
		DefaultSource: cfg.DefaultSource,
		Failures:      failures,
		Observer:      stepObserver,
	})

	if len(cfg.JWTConfigs) > 0 {
		jwtConfigs := make([]commonhttp.JWTConfig, 0, len(cfg.JWTConfigs))
		for _, jc := range cfg.JWTConfigs {
			jwtConfigs = append(jwtConfigs, commonhttp.JWTConfig{Issuer: jc.Issuer, Secret: jc.Secret})
		}
		srv.authenticator = commonhttp.NewAuthenticator(srv.logger, jwtConfigs, cfg.JWTAudience)
	} else if client != nil {
		srv.logger.Printf("AUTH_ADMIN_JWT_SECRET が未設定のため管理 API を無効化します")
	}

	return srv
}
