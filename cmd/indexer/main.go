package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/block"
	"github.com/grailsmarket/backend-sub000/internal/config"
	"github.com/grailsmarket/backend-sub000/internal/jobs"
	"github.com/grailsmarket/backend-sub000/internal/logger"
	"github.com/grailsmarket/backend-sub000/internal/resolver"
	"github.com/grailsmarket/backend-sub000/internal/scanner"
	"github.com/grailsmarket/backend-sub000/internal/store"
	"github.com/grailsmarket/backend-sub000/internal/stream"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting indexer")

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which
	// the store relies on for display-name collision handling
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	httpClient := adapter.NewHTTPClient(30 * time.Second)
	wsDialer := adapter.NewWSDialer(15 * time.Second)

	// Initialize ethereum client
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err))
	}
	defer ethClient.Close()

	blocks := block.NewProvider(
		block.NewEthereumFetcher(ethClient),
		block.Config{
			HeadTTL:     cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
		},
		clockAdapter,
	)

	// Initialize name resolver
	graphClient := resolver.NewSubgraphClient(httpClient, cfg.Subgraph.URL, cfg.Subgraph.APIKey, jsonAdapter)
	nameResolver := resolver.New(graphClient, resolver.Config{CacheTTL: cfg.Subgraph.CacheTTL}, clockAdapter)

	// Job publisher; connects to NATS on the first publish
	publisher := jobs.NewPublisher(jobs.Config{
		URL:            cfg.NATS.URL,
		SubjectPrefix:  cfg.NATS.SubjectPrefix,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, natsJS, clockAdapter, jsonAdapter)
	defer publisher.Close()

	// Registrar scanner
	registrarScanner := scanner.New(
		ethClient,
		blocks,
		dataStore,
		scanner.NewRegistrarDecoder(),
		scanner.NewRegistrarReconciler(dataStore, nameResolver, publisher),
		scanner.Config{
			ContractAddress: cfg.Ethereum.RegistrarAddress,
			DeployBlock:     cfg.Ethereum.RegistrarDeployBlock,
			Confirmations:   cfg.Ethereum.Confirmations,
			BatchSize:       cfg.Ethereum.BatchSize,
			PollInterval:    cfg.Ethereum.PollInterval,
			WorkerPoolSize:  cfg.Ethereum.WorkerPoolSize,
		},
		clockAdapter,
		jsonAdapter,
	)

	// Marketplace scanner
	marketplaceScanner := scanner.New(
		ethClient,
		blocks,
		dataStore,
		scanner.NewMarketplaceDecoder(),
		scanner.NewMarketplaceReconciler(dataStore, publisher, cfg.Ethereum.RegistrarAddress),
		scanner.Config{
			ContractAddress: cfg.Ethereum.MarketplaceAddress,
			DeployBlock:     cfg.Ethereum.MarketplaceDeployBlock,
			Confirmations:   cfg.Ethereum.Confirmations,
			BatchSize:       cfg.Ethereum.BatchSize,
			PollInterval:    cfg.Ethereum.PollInterval,
			WorkerPoolSize:  cfg.Ethereum.WorkerPoolSize,
		},
		clockAdapter,
		jsonAdapter,
	)

	// Marketplace stream client
	streamHandler := stream.NewEventHandler(dataStore, nameResolver, publisher, clockAdapter)
	streamClient := stream.NewClient(wsDialer, streamHandler, stream.Config{
		URL:               cfg.Stream.URL,
		Topic:             cfg.Stream.Topic,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
		ReconnectDelay:    cfg.Stream.ReconnectDelay,
		MaxReconnects:     cfg.Stream.MaxReconnects,
	}, clockAdapter, jsonAdapter)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := registrarScanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("registrar scanner: %w", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := marketplaceScanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("marketplace scanner: %w", err)
		}
	}()
	if cfg.Stream.URL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := streamClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("stream client: %w", err)
			}
		}()
	}

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("message", "Component failed, shutting down"))
		cancel()
	}

	// Each loop drains its in-flight work before returning
	wg.Wait()

	logger.Info("Indexer stopped")
}
