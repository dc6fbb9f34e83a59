package connector_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/database/connector"
	"ingest/pkg/batch/util/exception"
)

// TestNewDBConnectionFromConfig_Sqlite はファイルベースの SQLite 接続の確立を検証します。
func TestNewDBConnectionFromConfig_Sqlite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "fixture.db"),
	}

	conn, err := connector.NewDBConnectionFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()

	var one int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

// TestNewDBConnectionFromConfig_UnreachableHost は到達不能ホストへの接続失敗が
// ConnectionError に分類されることを検証します。
func TestNewDBConnectionFromConfig_UnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.DatabaseConfig{
		Type:     "mysql",
		Host:     "127.0.0.1",
		Port:     1, // 予約ポート。リッスンしているプロセスは存在しない
		Database: "sales",
		User:     "reader",
		Password: "secret",
	}

	_, err := connector.NewDBConnectionFromConfig(ctx, cfg)
	require.Error(t, err)
	assert.Equal(t, exception.KindConnection, exception.KindOf(err))
	assert.Equal(t, 2, exception.ExitCodeOf(err))
}

// TestGetSQLDB_UnsupportedType は未登録のデータベースタイプが ConfigurationError になることを検証します。
func TestGetSQLDB_UnsupportedType(t *testing.T) {
	_, err := connector.GetSQLDB(config.DatabaseConfig{Type: "oracle"})
	require.Error(t, err)
	assert.Equal(t, exception.KindConfiguration, exception.KindOf(err))
}
