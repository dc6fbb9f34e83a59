package entity

import "strings"

// ContextKeyColumns は、Reader が開いたカーソルの列リストを
// ステップの ExecutionContext で共有するためのキーです。
const ContextKeyColumns = "export.columns"

// ContextKeyArtifacts は、エクスポート済み成果物のパス一覧を
// ジョブの ExecutionContext で共有するためのキーです。
const ContextKeyArtifacts = "export.artifacts"

// Record は抽出された 1 行を表します。
// Columns はクエリ結果の列順を保持し、Values は同じ順序の値を保持します。
// 値はドライバ非依存の型 (string, int64, float64, bool, time.Time, nil) に正規化されています。
type Record struct {
	Columns []string
	Values  []any
}

// Signature は列セットの識別子を返します。
// 同一バッチ内の全レコードで一致している必要があります。
func (r *Record) Signature() string {
	return strings.Join(r.Columns, "\x1f")
}
