package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/ledger"
	"github.com/AngeluzFranco/OrbitSave/src/pool"
	"github.com/AngeluzFranco/OrbitSave/src/walletapi"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

func main() {
	pwd, _ := os.Getwd()
	fullPath := path.Join(pwd, "config.yaml")
	log.Printf("loading config @ `%s`", fullPath)
	rawCfg, err := os.ReadFile(fullPath)
	if err != nil {
		log.Printf("config file not found: %s", err)
		os.Exit(1)
	}
	cfg := walletapi.WalletConfig{}
	if err := yaml.Unmarshal(rawCfg, &cfg); err != nil {
		log.Printf("failed parsing config file: %s", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.ListenPort, "listen", cfg.ListenPort, "address for the wallet api, default `:4000`")
	flag.StringVar(&cfg.Address, "wallet", cfg.Address, `wallet address owning this session"`)
	flag.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, `redis address for ledger persistence"`)
	flag.StringVar(&cfg.Gateway.Endpoint, "rpc", cfg.Gateway.Endpoint, `contract rpc endpoint"`)
	flag.BoolVar(&cfg.Mock, "mock", cfg.Mock, "use the mock gateway instead of the rpc endpoint")
	flag.Parse()

	if cfg.ListenPort == "" {
		cfg.ListenPort = ":4000"
	}

	log.Println("----------------------------------")
	log.Printf("initializing wallet agent")
	log.Printf("\twallet:        %s", cfg.Address)
	log.Printf("\trpc:           %s", cfg.Gateway.Endpoint)
	log.Printf("\tredis:         %s", cfg.RedisAddress)
	log.Printf("\tlisten:        %s", cfg.ListenPort)
	log.Printf("\tmock:  		 %t", cfg.Mock)
	log.Println("----------------------------------")

	logger := common.ConfigureZap(zap.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var persistence ledger.Persistence
	if cfg.RedisAddress != "" {
		client := ledger.ConfigureRedis(cfg.RedisAddress)
		if err := ledger.PingRedis(ctx, client); err != nil {
			logger.Warn("redis unavailable, ledger will not survive restarts", zap.Error(err))
			persistence = ledger.NewMemoryPersistence()
		} else {
			persistence = ledger.NewRedisPersistence(client)
		}
	} else {
		persistence = ledger.NewMemoryPersistence()
	}

	var gw gateway.PoolGateway
	if cfg.Mock {
		gw = gateway.NewMockGateway()
	} else {
		gw = gateway.NewRPCClient(cfg.Gateway, logger)
	}

	session, err := ledger.NewSession(ctx, ledger.SessionConfig{Address: cfg.Address}, persistence, gw, logger)
	if err != nil {
		logger.Fatal("failed starting wallet session", zap.Error(err))
	}
	go session.StartSweep(ctx)

	poolCache := pool.NewCache(gw, cfg.Address, logger)
	go poolCache.StartRefresher(ctx)

	server := walletapi.NewServer(cfg, session, poolCache, logger)
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("wallet api stopped", zap.Error(err))
	}
}
