package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // Redshift は PostgreSQL と互換性があるため、pq ドライバを使用

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// redshiftConnector はRedshiftデータベースへの接続を確立するDBConnectorの実装です。
type redshiftConnector struct{}

// Connect はRedshiftデータベースへの接続を確立し、*sql.DBを返します。
func (c *redshiftConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString()) // Redshift は PostgreSQL ドライバを使用
	if err != nil {
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"Redshift への接続に失敗しました", err)
	}

	applyPoolConfig(db, cfg.ConnectionPool)

	logger.Debugf("Redshift への接続をオープンしました。")
	return db, nil
}

func init() {
	RegisterConnector("redshift", &redshiftConnector{})
}
