package server

import (
	"context"
	"docauth/internal/config"
	"docauth/internal/http/handlers/docs"
	"docauth/internal/http/handlers/session"
	"docauth/internal/http/handlers/user"
	"docauth/internal/http/handlers/verification"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	utils "docauth/internal/utils/http_errors"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const defaultShutdownTimeout = 10 * time.Second

func StartServer(
	ctx context.Context,
	cfg *config.HTTPServer,
	log *slog.Logger,
	documentService DocumentService,
	verificationService VerificationService,
	authService AuthService,
	m Metrics,
) error {
	srv := &http.Server{
		Addr:         cfg.Address,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
		Handler:      NewRouter(log, documentService, verificationService, authService, m),
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	errChan := make(chan error, 1)

	go func() {
		log.Info("server started", slog.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("server closed gracefully")
			} else {
				log.Error("could not start server", slog.String("error", err.Error()))
				errChan <- err
			}
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error shutting down server", slog.String("error", err.Error()))
			return err
		}
		log.Info("server exited gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}

func NewRouter(log *slog.Logger, doc DocumentService, ver VerificationService, auth AuthService, m Metrics) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logger(log, m))

	setupRoutes(r, log, auth, doc, ver, m)

	return r
}

func setupRoutes(r *mux.Router, log *slog.Logger, auth AuthService, doc DocumentService, ver VerificationService, m Metrics) {
	// GET metrics
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// POST user
	r.HandleFunc("/api/register", func(w http.ResponseWriter, r *http.Request) {
		user.Add(r.Context(), log, w, r, auth)
	}).Methods(http.MethodPost)

	// POST session
	r.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		session.Add(r.Context(), log, w, r, auth)
	}).Methods(http.MethodPost)

	// DELETE session
	r.HandleFunc("/api/auth/{token}", func(w http.ResponseWriter, r *http.Request) {
		token := mux.Vars(r)["token"]
		session.Delete(r.Context(), log, w, r, token, auth)
	}).Methods(http.MethodDelete)

	protected := r.PathPrefix("/api/documents").Subrouter()

	protected.Use(middleware.Auth(log, auth))

	// POST doc
	protected.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		docs.Upload(r.Context(), log, w, r, doc)
	}).Methods(http.MethodPost)

	// GET docs
	protected.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		docs.Get(r.Context(), log, w, r, doc)
	}).Methods(http.MethodGet)

	// HEAD docs
	protected.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		docs.Head(r.Context(), log, w, r, doc)
	}).Methods(http.MethodHead)

	// Static paths go before /{id}.
	protected.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		docs.Search(r.Context(), log, w, r, doc)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/recent", func(w http.ResponseWriter, r *http.Request) {
		docs.Recent(r.Context(), log, w, r, doc)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/count-by-status", func(w http.ResponseWriter, r *http.Request) {
		docs.CountByStatus(r.Context(), log, w, r, doc)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/organization/{orgId}", func(w http.ResponseWriter, r *http.Request) {
		orgID := mux.Vars(r)["orgId"]
		docs.ListByOrganization(r.Context(), log, w, r, orgID, doc)
	}).Methods(http.MethodGet)

	// GET doc by id
	protected.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		docs.GetByID(r.Context(), log, w, r, mux.Vars(r)["id"], doc)
	}).Methods(http.MethodGet)

	// HEAD doc by id
	protected.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		docs.HeadByID(r.Context(), log, w, r, mux.Vars(r)["id"], doc)
	}).Methods(http.MethodHead)

	// PUT doc by id
	protected.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		docs.Update(r.Context(), log, w, r, mux.Vars(r)["id"], doc)
	}).Methods(http.MethodPut)

	// DELETE doc by id
	protected.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		docs.Delete(r.Context(), log, w, r, mux.Vars(r)["id"], doc)
	}).Methods(http.MethodDelete)

	// GET doc file
	protected.HandleFunc("/{id}/file", func(w http.ResponseWriter, r *http.Request) {
		docs.File(r.Context(), log, w, r, mux.Vars(r)["id"], doc)
	}).Methods(http.MethodGet)

	// POST submit
	protected.HandleFunc("/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		verification.Submit(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodPost)

	// PUT status
	protected.HandleFunc("/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		verification.ChangeStatus(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodPut)

	// POST grant access
	protected.HandleFunc("/{id}/grant-access", func(w http.ResponseWriter, r *http.Request) {
		verification.GrantAccess(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodPost)

	// POST revoke access
	protected.HandleFunc("/{id}/revoke-access", func(w http.ResponseWriter, r *http.Request) {
		verification.RevokeAccess(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodPost)

	// POST re-verify
	protected.HandleFunc("/{id}/re-verify", func(w http.ResponseWriter, r *http.Request) {
		verification.ReVerify(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodPost)

	// GET composite status
	protected.HandleFunc("/{id}/composite-status", func(w http.ResponseWriter, r *http.Request) {
		verification.CompositeStatus(r.Context(), log, w, r, mux.Vars(r)["id"], ver)
	}).Methods(http.MethodGet)

	// Not allowed
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, http.StatusMethodNotAllowed, models.ErrMethodNotAllowed.Error())
	})

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
}
