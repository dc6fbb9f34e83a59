package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL ドライバ

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// postgresConnector はPostgreSQLデータベースへの接続を確立するDBConnectorの実装です。
type postgresConnector struct{}

// Connect はPostgreSQLデータベースへの接続を確立し、*sql.DBを返します。
func (c *postgresConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"PostgreSQL への接続に失敗しました", err)
	}

	applyPoolConfig(db, cfg.ConnectionPool)

	logger.Debugf("PostgreSQL への接続をオープンしました。")
	return db, nil
}

func init() {
	RegisterConnector("postgres", &postgresConnector{})
}
