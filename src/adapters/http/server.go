package http

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/services/links"
)

// GrantsLoader resolve os grants dos papéis do chamador.
type GrantsLoader interface {
	GrantsForRoles(ctx context.Context, roles []string) ([]domain.Grant, error)
}

// Server representa o servidor HTTP da API
type Server struct {
	logger       *slog.Logger
	server       *http.Server
	mux          *http.ServeMux
	addr         string
	validate     *validator.Validate
	linkService  *links.LinkService
	grantsLoader GrantsLoader
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	addr string,
	linkService *links.LinkService,
	grantsLoader GrantsLoader,
) *Server {
	server := &Server{
		mux:          http.NewServeMux(),
		addr:         addr,
		logger:       logger,
		validate:     newValidator(),
		linkService:  linkService,
		grantsLoader: grantsLoader,
	}

	server.server = &http.Server{
		Addr:         addr,
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Rotas de Leitura
	server.mux.HandleFunc("GET /v1/asset-links/{linkId}", server.GetAssetLink)
	server.mux.HandleFunc("GET /v1/database/{databaseId}/assets/{assetId}/asset-links", server.ListAssetLinks)

	// Rotas de Escritas
	server.mux.HandleFunc("POST /v1/asset-links", server.CreateAssetLink)
	server.mux.HandleFunc("PUT /v1/asset-links/{linkId}", server.UpdateAssetLink)
	server.mux.HandleFunc("DELETE /v1/asset-links/{linkId}", server.DeleteAssetLink)

	server.mux.Handle("GET /metrics", promhttp.Handler())

	return server
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("asset_identifier", func(fl validator.FieldLevel) bool {
		return entities.IsValidIdentifier(fl.Field().String())
	})
	return validate
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "addr", s.addr)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
