package connector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/database"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// DBConnector は特定のデータベースタイプへの接続を確立するためのインターフェースです。
type DBConnector interface {
	Connect(cfg config.DatabaseConfig) (*sql.DB, error)
}

// connectors は登録されたDBConnectorの実装を保持するマップです。
var connectors = make(map[string]DBConnector)

// RegisterConnector は指定されたタイプ名でDBConnectorを登録します。
func RegisterConnector(dbType string, connector DBConnector) {
	connectors[dbType] = connector
}

// GetSQLDB は設定に基づいて適切なデータベース接続を確立します。
// 登録されたコネクタの中から適切なものを選択して接続します。
func GetSQLDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	connector, ok := connectors[cfg.Type]
	if !ok {
		return nil, exception.NewBatchErrorf("database", exception.KindConfiguration,
			"未対応のデータベースタイプ: %s", cfg.Type)
	}
	return connector.Connect(cfg)
}

// NewDBConnectionFromConfig は設定に基づいて適切なデータベース接続を確立します。
// Ping により到達性を確認してから DBConnection を返します。
func NewDBConnectionFromConfig(ctx context.Context, cfg config.DatabaseConfig) (database.DBConnection, error) {
	rawDB, err := GetSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"データベースへの Ping に失敗しました", err)
	}
	return database.NewSQLDBAdapter(rawDB), nil
}

// RunMigrations は指定されたマイグレーションパスに対してマイグレーションを実行します。
// migrationPath が空の場合はスキップします。
func RunMigrations(cfg config.DatabaseConfig, migrationPath string) error {
	if migrationPath == "" {
		logger.Infof("マイグレーションパスが指定されていません。スキップします。")
		return nil
	}

	var migrateURL string
	switch cfg.Type {
	case "postgres", "redshift":
		migrateURL = cfg.ConnectionString()
	case "mysql":
		migrateURL = fmt.Sprintf("mysql://%s", cfg.ConnectionString())
	default:
		logger.Warnf("マイグレーションは DBタイプ '%s' ではサポートされていません。スキップします。", cfg.Type)
		return nil
	}

	logger.Infof("データベースマイグレーションを開始します。DBタイプ: %s, マイグレーションパス: %s", cfg.Type, migrationPath)
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationPath),
		migrateURL,
	)
	if err != nil {
		return exception.NewBatchError("database_migration", exception.KindConnection,
			fmt.Sprintf("マイグレーションインスタンスの作成に失敗しました: %s", migrationPath), err)
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return exception.NewBatchError("database_migration", exception.KindConnection,
			fmt.Sprintf("マイグレーションの適用に失敗しました: %s", migrationPath), err)
	}

	if err == migrate.ErrNoChange {
		logger.Infof("マイグレーションは不要です。データベースは最新の状態です。")
	} else {
		logger.Infof("マイグレーションが正常に完了しました。")
	}
	return nil
}
