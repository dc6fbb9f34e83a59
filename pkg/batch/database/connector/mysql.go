package connector

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL ドライバ

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// mysqlConnector はMySQLデータベースへの接続を確立するDBConnectorの実装です。
type mysqlConnector struct{}

// Connect はMySQLデータベースへの接続を確立し、*sql.DBを返します。
func (c *mysqlConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"MySQL への接続に失敗しました", err)
	}

	applyPoolConfig(db, cfg.ConnectionPool)

	logger.Debugf("MySQL への接続をオープンしました。MaxOpenConns: %d, MaxIdleConns: %d",
		cfg.ConnectionPool.MaxOpenConns, cfg.ConnectionPool.MaxIdleConns)
	return db, nil
}

// applyPoolConfig は接続プール設定を適用します。
func applyPoolConfig(db *sql.DB, pool config.ConnectionPoolConfig) {
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
}

func init() {
	RegisterConnector("mysql", &mysqlConnector{})
}
