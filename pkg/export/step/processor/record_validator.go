package processor

import (
	"context"

	core "ingest/pkg/batch/job/core"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/export/domain/entity"
)

// RecordValidator はバッチ内の列セットの一貫性を検証する ItemProcessor の実装です。
// 最初のレコードの列セットを基準とし、以降のレコードが一致しない場合は
// 致命的なエラーとしてステップを失敗させます。
type RecordValidator struct {
	table     string
	signature string
}

var _ core.ItemProcessor[*entity.Record, *entity.Record] = (*RecordValidator)(nil)

// NewRecordValidator は新しい RecordValidator のインスタンスを作成します。
func NewRecordValidator(table string) *RecordValidator {
	return &RecordValidator{table: table}
}

// Process はレコードの列セットを検証し、そのまま返します。
func (p *RecordValidator) Process(ctx context.Context, item *entity.Record) (*entity.Record, error) {
	if item == nil {
		return nil, exception.NewBatchErrorf("processor", exception.KindExtraction,
			"テーブル '%s': nil のレコードを受け取りました", p.table)
	}
	if len(item.Columns) != len(item.Values) {
		return nil, exception.NewBatchErrorf("processor", exception.KindExtraction,
			"テーブル '%s': 列数 (%d) と値数 (%d) が一致しません", p.table, len(item.Columns), len(item.Values))
	}

	sig := item.Signature()
	if p.signature == "" {
		p.signature = sig
		return item, nil
	}
	if sig != p.signature {
		return nil, exception.NewBatchErrorf("processor", exception.KindExtraction,
			"テーブル '%s': バッチ内で列セットが一致しないレコードを検出しました", p.table)
	}
	return item, nil
}
