package repository

import (
	"context"
	"strings"

	"ingest/pkg/batch/database"
	"ingest/pkg/batch/util/exception"
)

// SourceRepository は抽出元データベースのカタログ情報へのアクセスを提供します。
type SourceRepository interface {
	// TableExists は指定されたテーブルが抽出元に存在するかどうかを返します。
	TableExists(ctx context.Context, table string) (bool, error)
}

// sqlSourceRepository は SourceRepository の database/sql ベースの実装です。
// テーブル存在確認のクエリは方言ごとに異なります。
type sqlSourceRepository struct {
	conn     database.DBConnection
	dbType   string
	database string
}

// NewSourceRepository は新しい SourceRepository のインスタンスを作成します。
func NewSourceRepository(conn database.DBConnection, dbType, databaseName string) SourceRepository {
	return &sqlSourceRepository{
		conn:     conn,
		dbType:   strings.ToLower(dbType),
		database: databaseName,
	}
}

// TableExists は information_schema (サーバ系) または sqlite_master (SQLite) を参照します。
func (r *sqlSourceRepository) TableExists(ctx context.Context, table string) (bool, error) {
	var query string
	var args []any

	switch r.dbType {
	case "mysql":
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		args = []any{r.database, table}
	case "postgres", "redshift":
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_catalog = $1 AND table_name = $2"
		args = []any{r.database, table}
	case "snowflake":
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_catalog = ? AND table_name = ?"
		args = []any{strings.ToUpper(r.database), strings.ToUpper(table)}
	case "sqlite":
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
		args = []any{table}
	default:
		return false, exception.NewBatchErrorf("source_repository", exception.KindConfiguration,
			"未対応のデータベースタイプ: %s", r.dbType)
	}

	var count int
	row := r.conn.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&count); err != nil {
		return false, exception.NewBatchError("source_repository", exception.KindExtraction,
			"テーブル存在確認クエリの実行に失敗しました: "+table, err)
	}
	return count > 0, nil
}
