package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/pool"
	"github.com/AngeluzFranco/OrbitSave/src/postgres"
	"github.com/AngeluzFranco/OrbitSave/src/relay"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// secrets are never read from the yaml file, only from env.
type secrets struct {
	AdminSecretKey string `envconfig:"ADMIN_SECRET_KEY" required:"true"`
	ContractID     string `envconfig:"PRIZE_POOL_ID" required:"true"`
	RPCURL         string `envconfig:"RPC_URL" default:"https://soroban-testnet.stellar.org"`
}

func main() {
	pwd, _ := os.Getwd()
	fullPath := path.Join(pwd, "config.yaml")
	log.Printf("loading config @ `%s`", fullPath)
	rawCfg, err := os.ReadFile(fullPath)
	if err != nil {
		log.Printf("config file not found: %s", err)
		os.Exit(1)
	}
	cfg := relay.RelayConfig{}
	if err := yaml.Unmarshal(rawCfg, &cfg); err != nil {
		log.Printf("failed parsing config file: %s", err)
		os.Exit(1)
	}

	sec := secrets{}
	if err := envconfig.Process("", &sec); err != nil {
		log.Printf("failed reading secrets from env: %s", err)
		os.Exit(1)
	}
	cfg.Gateway.ContractID = sec.ContractID
	cfg.Gateway.SourceKey = sec.AdminSecretKey
	if cfg.Gateway.Endpoint == "" {
		cfg.Gateway.Endpoint = sec.RPCURL
	}

	flag.StringVar(&cfg.ListenPort, "listen", cfg.ListenPort, "address for the relay http server, default `:3001`")
	flag.StringVar(&cfg.PromPort, "prom", cfg.PromPort, "address to serve prom stats, default `:2112`")
	flag.StringVar(&cfg.HealthCheckPort, "hcp", cfg.HealthCheckPort, `(rarely used) if defined will expose a health check on /readyz, default ""`)
	flag.StringVar(&cfg.PostgresConfig, "pg", cfg.PostgresConfig, `config string for the postgres connection"`)
	flag.StringVar(&cfg.Gateway.Endpoint, "rpc", cfg.Gateway.Endpoint, `contract rpc endpoint"`)
	flag.Parse()

	if cfg.ListenPort == "" {
		cfg.ListenPort = ":3001"
	}

	log.Println("----------------------------------")
	log.Printf("initializing relay")
	log.Printf("\trpc:           %s", cfg.Gateway.Endpoint)
	log.Printf("\tcontract:      %s", sec.ContractID)
	log.Printf("\tlisten:        %s", cfg.ListenPort)
	log.Printf("\tprom:          %s", cfg.PromPort)
	log.Printf("\thealth check:  %s", cfg.HealthCheckPort)
	log.Println("----------------------------------")

	postgres.ConfigurePostgres(cfg.PostgresConfig)

	logger := common.ConfigureZap(zap.InfoLevel)
	gw := gateway.NewRPCClient(cfg.Gateway, logger)
	poolCache := pool.NewCache(gw, "", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher := cron.New()
	if _, err := refresher.AddFunc("@every 30s", func() {
		if err := poolCache.Refresh(ctx); err != nil {
			logger.Warn("pool snapshot refresh failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("failed scheduling snapshot refresh", zap.Error(err))
	}
	refresher.Start()
	defer refresher.Stop()

	if err := poolCache.Refresh(ctx); err != nil {
		logger.Warn("initial pool snapshot refresh failed", zap.Error(err))
	}

	server := relay.NewServer(cfg, gw, poolCache, logger)
	if cfg.HealthCheckPort != "" {
		go beginReadyzHandler(cfg, server)
	}
	if cfg.PromPort != "" {
		go func() {
			if err := server.ServeMetrics(cfg.PromPort); err != nil {
				logger.Error("prom server stopped", zap.Error(err))
			}
		}()
	}

	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("relay server stopped", zap.Error(err))
	}
}

func beginReadyzHandler(cfg relay.RelayConfig, server *relay.Server) {
	http.HandleFunc("/readyz", server.HandleReadyz)
	go http.ListenAndServe(cfg.HealthCheckPort, nil)
}
