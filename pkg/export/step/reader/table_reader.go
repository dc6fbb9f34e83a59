package reader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"ingest/pkg/batch/database"
	core "ingest/pkg/batch/job/core"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
	"ingest/pkg/export/domain/entity"
)

// TableReader は単一テーブルの全行をストリーミングで読み込む ItemReader の実装です。
// カーソル (sql.Rows) 上を 1 行ずつ進むため、結果セット全体をメモリに保持しません。
// データの終端では io.EOF を返します。
type TableReader struct {
	conn    database.DBConnection
	table   string
	dbType  string
	rows    *sql.Rows
	columns []string
}

var _ core.ItemReader[*entity.Record] = (*TableReader)(nil)

// NewTableReader は新しい TableReader のインスタンスを作成します。
func NewTableReader(conn database.DBConnection, table, dbType string) *TableReader {
	return &TableReader{
		conn:   conn,
		table:  table,
		dbType: strings.ToLower(dbType),
	}
}

// Open はテーブルへのカーソルを開き、列リストを ExecutionContext に公開します。
func (r *TableReader) Open(ctx context.Context, ec core.ExecutionContext) error {
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(r.table, r.dbType))
	logger.Debugf("テーブル '%s' の抽出クエリを実行します: %s", r.table, query)

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return exception.NewBatchError("reader", exception.KindExtraction,
			fmt.Sprintf("テーブル '%s' の抽出クエリの実行に失敗しました", r.table), err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return exception.NewBatchError("reader", exception.KindExtraction,
			fmt.Sprintf("テーブル '%s' の列情報の取得に失敗しました", r.table), err)
	}

	r.rows = rows
	r.columns = columns
	ec[entity.ContextKeyColumns] = columns
	return nil
}

// Read は次の 1 行を Record として返します。終端では io.EOF を返します。
func (r *TableReader) Read(ctx context.Context) (*entity.Record, error) {
	if r.rows == nil {
		return nil, exception.NewBatchErrorf("reader", exception.KindExtraction,
			"Reader がオープンされていません: %s", r.table)
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, exception.NewBatchError("reader", exception.KindExtraction,
				fmt.Sprintf("テーブル '%s' の行の読み込み中にエラーが発生しました", r.table), err)
		}
		return nil, io.EOF
	}

	raw := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, exception.NewBatchError("reader", exception.KindExtraction,
			fmt.Sprintf("テーブル '%s' の行のスキャンに失敗しました", r.table), err)
	}

	values := make([]any, len(raw))
	for i, v := range raw {
		values[i] = normalizeValue(v)
	}

	return &entity.Record{Columns: r.columns, Values: values}, nil
}

// Close はカーソルを解放します。
func (r *TableReader) Close(ctx context.Context) error {
	if r.rows == nil {
		return nil
	}
	err := r.rows.Close()
	r.rows = nil
	return err
}

// Columns はオープン済みカーソルの列リストを返します。
func (r *TableReader) Columns() []string {
	return r.columns
}

// normalizeValue はドライバ固有の値をドライバ非依存の型に正規化します。
// MySQL ドライバはテキスト系の列を []byte で返すため、string に変換します。
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t
	default:
		return v
	}
}

// quoteIdentifier はテーブル名を方言に応じてクオートします。
func quoteIdentifier(name, dbType string) string {
	switch dbType {
	case "mysql":
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}
