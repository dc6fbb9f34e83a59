package connector

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite ドライバ (pure Go)

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// sqliteConnector はSQLiteデータベースへの接続を確立するDBConnectorの実装です。
// ローカルのフィクスチャデータベースからのエクスポートに使用できます。
type sqliteConnector struct{}

// Connect はSQLiteデータベースファイルへの接続を確立し、*sql.DBを返します。
func (c *sqliteConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"SQLite への接続に失敗しました", err)
	}

	applyPoolConfig(db, cfg.ConnectionPool)

	logger.Debugf("SQLite データベース '%s' への接続をオープンしました。", cfg.Path)
	return db, nil
}

func init() {
	RegisterConnector("sqlite", &sqliteConnector{})
}
