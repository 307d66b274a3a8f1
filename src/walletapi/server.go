package walletapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/ledger"
	"github.com/AngeluzFranco/OrbitSave/src/pool"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type WalletConfig struct {
	common.CommonConfig `yaml:",inline"`

	ListenPort string `yaml:"listen_port"`
	Address    string `yaml:"wallet_address"`
	Mock       bool   `yaml:"use_mock"`

	Gateway gateway.GatewayConfig `yaml:",inline"`
}

// Server exposes one wallet session over a local HTTP API: the ledger
// mirror, the pool snapshot, and the deposit/withdraw lifecycle.
type Server struct {
	config  WalletConfig
	session *ledger.Session
	pool    *pool.Cache
	logger  *zap.Logger
}

func NewServer(cfg WalletConfig, session *ledger.Session, poolCache *pool.Cache, logger *zap.Logger) *Server {
	return &Server{
		config:  cfg,
		session: session,
		pool:    poolCache,
		logger:  logger.With(zap.String("component", "WalletAPI")),
	}
}

func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ledger", s.HandleLedger).Methods("GET")
	r.HandleFunc("/activity", s.HandleActivity).Methods("GET")
	r.HandleFunc("/snapshot", s.HandleSnapshot).Methods("GET")
	r.HandleFunc("/deposit", s.HandleDeposit).Methods("POST")
	r.HandleFunc("/withdraw", s.HandleWithdraw).Methods("POST")
	r.HandleFunc("/disconnect", s.HandleDisconnect).Methods("POST")
	return r
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("wallet api listening", zap.String("addr", s.config.ListenPort))
	return http.ListenAndServe(s.config.ListenPort, s.NewRouter())
}

func (s *Server) HandleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Store().State())
}

func (s *Server) HandleActivity(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'days' parameter")
			return
		}
		days = parsed
	}
	writeJSON(w, http.StatusOK, s.session.Store().ActivitySummary(days))
}

func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Snapshot())
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleSubmit(w, r, s.session.Deposit)
}

func (s *Server) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleSubmit(w, r, s.session.Withdraw)
}

// handleSubmit maps the session's error taxonomy onto http statuses:
// validation failures reject before any ledger insert, in-flight conflicts
// get 409, and a gateway failure reports the failed ledger entry it left
// behind.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, submit func(ctx context.Context, amount float64) (string, error)) {
	req := amountRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	id, err := submit(r.Context(), req.Amount)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "txId": id})
	case errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ledger.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrActionInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("submission failed", zap.String("txId", id), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success": false,
			"txId":    id,
			"error":   err.Error(),
		})
	}
}

func (s *Server) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Disconnect(r.Context()); err != nil {
		s.logger.Error("disconnect failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed clearing session state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
