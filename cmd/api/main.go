package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sngm3741/review-relay/internal/config"
	"github.com/sngm3741/review-relay/internal/monitoring"
	"github.com/sngm3741/review-relay/internal/server"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	if err := monitoring.InitSentry(cfg.SentryDSN, cfg.Environment, cfg.Version); err != nil {
		cfg.ServerLog.Printf("Sentry の初期化に失敗しました: %v", err)
	}
	defer monitoring.FlushSentry()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	var client *mongo.Client
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
		defer cancel()

		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		connected, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			cfg.ServerLog.Fatalf("MongoDB 接続に失敗しました: %v", err)
		}
		client = connected
	} else {
		cfg.ServerLog.Printf("MONGO_URI が未設定のため失敗台帳はログ出力のみになります")
	}

	app := server.New(cfg, client, metrics)
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}
