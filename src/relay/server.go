package relay

import (
	"encoding/json"
	"net/http"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/pool"
	"github.com/AngeluzFranco/OrbitSave/src/postgres"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type RelayConfig struct {
	common.CommonConfig `yaml:",inline"`

	ListenPort string                `yaml:"listen_port"`
	Gateway    gateway.GatewayConfig `yaml:",inline"`
}

// Server is the stateless relay in front of the contract gateway. It holds
// no ledger state of its own; every request is a pass-through, with an audit
// row written per accepted withdraw.
type Server struct {
	config  RelayConfig
	gw      gateway.PoolGateway
	pool    *pool.Cache
	logger  *zap.Logger
	metrics *relayMetrics
}

func NewServer(cfg RelayConfig, gw gateway.PoolGateway, poolCache *pool.Cache, logger *zap.Logger) *Server {
	return &Server{
		config:  cfg,
		gw:      gw,
		pool:    poolCache,
		logger:  logger.With(zap.String("component", "RelayServer")),
		metrics: newRelayMetrics(),
	}
}

func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/balance", s.instrumented("balance", s.HandleBalance)).Methods("GET")
	r.HandleFunc("/withdraw", s.instrumented("withdraw", s.HandleWithdraw)).Methods("POST")
	r.HandleFunc("/pool", s.instrumented("pool", s.HandlePool)).Methods("GET")
	r.HandleFunc("/draws", s.instrumented("draws", s.HandleDraws)).Methods("GET")
	r.HandleFunc("/submissions", s.instrumented("submissions", s.HandleSubmissions)).Methods("GET")
	r.HandleFunc("/readyz", s.HandleReadyz).Methods("GET")
	return r
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("relay listening", zap.String("addr", s.config.ListenPort))
	return http.ListenAndServe(s.config.ListenPort, s.NewRouter())
}

func (s *Server) HandleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.gw.ContractBalance(r.Context())
	if err != nil {
		s.logger.Error("balance simulation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to simulate contract balance", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance})
}

type withdrawRequest struct {
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"`
}

func (s *Server) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	req := withdrawRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body", nil)
		return
	}
	if req.ToAddress == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing 'toAddress' or 'amount' in body", nil)
		return
	}

	result, err := s.gw.Withdraw(r.Context(), req.ToAddress, req.Amount)
	if err != nil {
		s.logger.Error("withdraw submission failed", zap.String("to", req.ToAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit withdraw", err)
		return
	}
	if !result.Success {
		s.logger.Warn("withdraw rejected by contract", zap.String("to", req.ToAddress), zap.String("reason", result.Error))
		writeError(w, http.StatusInternalServerError, "withdraw rejected", errors.New(result.Error))
		return
	}

	if err := postgres.PutSubmission(r.Context(), result.TxHash, req.ToAddress, req.Amount, result); err != nil {
		// the submission already happened, the audit row is best-effort
		s.logger.Warn("failed recording relay submission", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

func (s *Server) HandlePool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Snapshot())
}

func (s *Server) HandleDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := s.gw.DrawHistory(r.Context())
	if err != nil {
		s.logger.Error("draw history fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch draw history", nil)
		return
	}
	writeJSON(w, http.StatusOK, draws)
}

func (s *Server) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := postgres.GetRecentSubmissions(r.Context(), 50)
	if err != nil {
		s.logger.Error("submission query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch submissions", nil)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	pg, err := postgres.GetConnection(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(errors.Wrap(err, "failed pinging postgres").Error()))
		return
	}
	defer pg.Close(r.Context())
	if err := pg.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(errors.Wrap(err, "failed pinging postgres").Error()))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, details error) {
	body := map[string]string{"error": msg}
	if details != nil {
		body["details"] = details.Error()
	}
	writeJSON(w, status, body)
}
