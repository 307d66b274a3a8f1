package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GatewayConfig configures the JSON-RPC binding to the contract endpoint.
// SourceKey identifies the administrative source account used for relayed
// submissions; transaction signing itself happens inside the endpoint's
// signing layer, not here.
type GatewayConfig struct {
	Endpoint   string        `yaml:"rpc_endpoint"`
	ContractID string        `yaml:"contract_id"`
	SourceKey  string        `yaml:"-"`
	Timeout    time.Duration `yaml:"rpc_timeout"`
}

// RPCClient talks JSON-RPC 2.0 to the contract endpoint.
type RPCClient struct {
	config GatewayConfig
	client *http.Client
	logger *zap.Logger
	nextID uint64
}

func NewRPCClient(cfg GatewayConfig, logger *zap.Logger) *RPCClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &RPCClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "PoolGateway")),
	}
}

type rpcRequest struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrapf(err, "failed marshaling %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed building %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed calling %s", method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed reading %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s returned http %d: %s", method, resp.StatusCode, string(raw))
	}

	decoded := rpcResponse{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return errors.Wrapf(err, "failed decoding %s response", method)
	}
	if decoded.Error != nil {
		return errors.Errorf("%s failed: %s (code %d)", method, decoded.Error.Message, decoded.Error.Code)
	}
	if out != nil {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return errors.Wrapf(err, "failed decoding %s result", method)
		}
	}
	return nil
}

type submitParams struct {
	ContractID string `json:"contractId"`
	Source     string `json:"source"`
	Address    string `json:"address"`
	Amount     string `json:"amount"`
}

type readParams struct {
	ContractID string `json:"contractId"`
	Address    string `json:"address,omitempty"`
}

func (c *RPCClient) submit(ctx context.Context, method, address, amount string) (*model.SubmitResult, error) {
	result := &model.SubmitResult{}
	err := c.call(ctx, method, submitParams{
		ContractID: c.config.ContractID,
		Source:     c.config.SourceKey,
		Address:    address,
		Amount:     amount,
	}, result)
	if err != nil {
		return nil, err
	}
	if !result.Success && result.Error == "" {
		result.Error = fmt.Sprintf("%s rejected by contract", method)
	}
	return result, nil
}

func (c *RPCClient) Deposit(ctx context.Context, address string, amount string) (*model.SubmitResult, error) {
	return c.submit(ctx, "deposit", address, amount)
}

func (c *RPCClient) Withdraw(ctx context.Context, address string, amount string) (*model.SubmitResult, error) {
	return c.submit(ctx, "withdraw", address, amount)
}

func (c *RPCClient) ContractBalance(ctx context.Context) (string, error) {
	out := struct {
		Balance string `json:"balance"`
	}{}
	if err := c.call(ctx, "contract_balance", readParams{ContractID: c.config.ContractID}, &out); err != nil {
		return "", err
	}
	return out.Balance, nil
}

func (c *RPCClient) PoolInfo(ctx context.Context) (*model.PoolInfo, error) {
	info := &model.PoolInfo{}
	if err := c.call(ctx, "getPoolInfo", readParams{ContractID: c.config.ContractID}, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *RPCClient) UserInfo(ctx context.Context, address string) (*model.UserInfo, error) {
	info := &model.UserInfo{}
	if err := c.call(ctx, "getUserInfo", readParams{ContractID: c.config.ContractID, Address: address}, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *RPCClient) DrawHistory(ctx context.Context) ([]*model.DrawResult, error) {
	var draws []*model.DrawResult
	if err := c.call(ctx, "getDrawHistory", readParams{ContractID: c.config.ContractID}, &draws); err != nil {
		return nil, err
	}
	return draws, nil
}
