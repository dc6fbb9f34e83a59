package connector

import (
	"database/sql"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake ドライバ

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
)

// snowflakeConnector はSnowflakeデータベースへの接続を確立するDBConnectorの実装です。
// Host フィールドにはアカウント識別子を指定します。
type snowflakeConnector struct{}

// Connect はSnowflakeデータベースへの接続を確立し、*sql.DBを返します。
func (c *snowflakeConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("snowflake", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", exception.KindConnection,
			"Snowflake への接続に失敗しました", err)
	}

	applyPoolConfig(db, cfg.ConnectionPool)

	logger.Debugf("Snowflake への接続をオープンしました。")
	return db, nil
}

func init() {
	RegisterConnector("snowflake", &snowflakeConnector{})
}
