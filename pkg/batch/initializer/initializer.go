package initializer

import (
	"context"

	config "ingest/pkg/batch/config"
	"ingest/pkg/batch/database"
	"ingest/pkg/batch/database/connector"
	logger "ingest/pkg/batch/util/logger"
)

// BatchInitializer はバッチアプリケーションの初期化処理を担当します。
// 設定のロード・検証、ログレベルの設定、データベース接続の確立、
// およびオプションのマイグレーション実行を行います。
type BatchInitializer struct {
	Config *config.Config
	conn   database.DBConnection
}

// NewBatchInitializer は新しい BatchInitializer のインスタンスを作成します。
func NewBatchInitializer(cfg *config.Config) *BatchInitializer {
	return &BatchInitializer{
		Config: cfg,
	}
}

// Initialize はバッチアプリケーションの初期化処理を実行します。
// 設定の検証はネットワークアクセスの前に行われます。
func (i *BatchInitializer) Initialize(ctx context.Context) (database.DBConnection, error) {
	loader := config.NewBytesConfigLoader(i.Config.EmbeddedConfig)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	i.Config = cfg

	logger.SetLogLevel(cfg.System.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := connector.NewDBConnectionFromConfig(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	i.conn = conn
	logger.Infof("データベースに接続しました: %s", cfg.Database.String())

	if err := connector.RunMigrations(cfg.Database, cfg.Database.AppMigrationPath); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// Close は初期化時に確保したリソースを解放します。
func (i *BatchInitializer) Close() error {
	if i.conn != nil {
		return i.conn.Close()
	}
	return nil
}
