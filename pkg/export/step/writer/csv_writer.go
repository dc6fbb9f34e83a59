package writer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ingest/pkg/batch/config"
	core "ingest/pkg/batch/job/core"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
	"ingest/pkg/export/domain/entity"
)

// CSVWriter は Record を CSV ファイルとして永続化する ItemWriter の実装です。
//
// 出力ファイル名は決定的 (<テーブル名>.csv) で、再実行時は完全に上書きされます。
// 書き込みは一時ファイル (<テーブル名>.csv.tmp) に対して行い、Close で
// アトミックにリネームします。失敗時は一時ファイルを削除するため、
// 書きかけの成果物が最終名で残ることはありません。
//
// クオートモード (MINIMAL / ALL / NONNUMERIC / NONE) と任意の区切り文字・
// 行終端文字をサポートするため、encoding/csv は使用していません。
type CSVWriter struct {
	dir   string
	table string
	cfg   config.CSVConfig

	file      *os.File
	buf       *bufio.Writer
	tmpPath   string
	finalPath string
	columns   []string
	rowCount  int
}

var _ core.ItemWriter[*entity.Record] = (*CSVWriter)(nil)

// NewCSVWriter は新しい CSVWriter のインスタンスを作成します。
func NewCSVWriter(dir, table string, cfg config.CSVConfig) *CSVWriter {
	return &CSVWriter{
		dir:   dir,
		table: table,
		cfg:   cfg,
	}
}

// FinalPath は確定後の成果物のパスを返します。
func (w *CSVWriter) FinalPath() string {
	return filepath.Join(w.dir, w.table+".csv")
}

// RowCount は書き込んだデータ行数を返します (ヘッダ行を除く)。
func (w *CSVWriter) RowCount() int {
	return w.rowCount
}

// Open は出力ディレクトリと一時ファイルを作成し、ヘッダ行を書き込みます。
// 列リストは Reader が ExecutionContext に公開したものを使用します。
// 0 行のテーブルでもヘッダのみの整形済みファイルが生成されます。
func (w *CSVWriter) Open(ctx context.Context, ec core.ExecutionContext) error {
	columns, ok := ec.GetStringSlice(entity.ContextKeyColumns)
	if !ok || len(columns) == 0 {
		return exception.NewBatchErrorf("writer", exception.KindExtraction,
			"テーブル '%s': 列リストが ExecutionContext に存在しません", w.table)
	}
	w.columns = columns

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("出力ディレクトリ '%s' の作成に失敗しました", w.dir), err)
	}

	w.finalPath = w.FinalPath()
	w.tmpPath = w.finalPath + ".tmp"

	file, err := os.Create(w.tmpPath)
	if err != nil {
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("一時ファイル '%s' の作成に失敗しました", w.tmpPath), err)
	}
	w.file = file
	w.buf = bufio.NewWriter(file)
	w.rowCount = 0

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := w.writeRow(header); err != nil {
		w.Abort(ctx)
		return err
	}
	return nil
}

// Write はチャンク単位でレコードを書き込みます。
func (w *CSVWriter) Write(ctx context.Context, items []*entity.Record) error {
	if w.buf == nil {
		return exception.NewBatchErrorf("writer", exception.KindPersistence,
			"Writer がオープンされていません: %s", w.table)
	}
	for _, item := range items {
		if len(item.Values) != len(w.columns) {
			return exception.NewBatchErrorf("writer", exception.KindExtraction,
				"テーブル '%s': レコードの値数 (%d) がヘッダの列数 (%d) と一致しません",
				w.table, len(item.Values), len(w.columns))
		}
		if err := w.writeRow(item.Values); err != nil {
			return err
		}
		w.rowCount++
	}
	return nil
}

// Close はバッファをフラッシュし、一時ファイルを最終名にアトミックにリネームします。
func (w *CSVWriter) Close(ctx context.Context) error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.discard()
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("テーブル '%s' の出力のフラッシュに失敗しました", w.table), err)
	}
	if err := w.file.Close(); err != nil {
		w.file = nil
		os.Remove(w.tmpPath)
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("一時ファイル '%s' のクローズに失敗しました", w.tmpPath), err)
	}
	w.file = nil
	w.buf = nil

	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		os.Remove(w.tmpPath)
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("成果物 '%s' の確定に失敗しました", w.finalPath), err)
	}
	logger.Infof("テーブル '%s' を '%s' にエクスポートしました (%d 行)。", w.table, w.finalPath, w.rowCount)
	return nil
}

// Abort は書きかけの一時ファイルを破棄します。最終名のファイルには影響しません。
func (w *CSVWriter) Abort(ctx context.Context) error {
	w.discard()
	return nil
}

func (w *CSVWriter) discard() {
	if w.file != nil {
		w.file.Close()
		w.file = nil
		w.buf = nil
	}
	if w.tmpPath != "" {
		if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("一時ファイル '%s' の削除に失敗しました: %v", w.tmpPath, err)
		}
	}
}

// writeRow は 1 行分の値をエンコードして書き込みます。
func (w *CSVWriter) writeRow(values []any) error {
	fields := make([]string, len(values))
	for i, v := range values {
		field, err := w.encodeField(v)
		if err != nil {
			return err
		}
		fields[i] = field
	}
	line := strings.Join(fields, w.cfg.Separator) + w.cfg.LineTerminator
	if _, err := w.buf.WriteString(line); err != nil {
		return exception.NewBatchError("writer", exception.KindPersistence,
			fmt.Sprintf("テーブル '%s' の行の書き込みに失敗しました", w.table), err)
	}
	return nil
}

// encodeField は単一の値をクオートモードに従ってエンコードします。
func (w *CSVWriter) encodeField(v any) (string, error) {
	text, numeric := formatValue(v)

	switch strings.ToUpper(w.cfg.QuoteMode) {
	case "ALL":
		return quote(text), nil
	case "NONNUMERIC":
		if numeric || v == nil {
			return text, nil
		}
		return quote(text), nil
	case "NONE":
		if w.fieldNeedsQuoting(text) {
			return "", exception.NewBatchErrorf("writer", exception.KindPersistence,
				"クオートモード NONE では区切り文字・引用符・行終端を含む値を出力できません: %q", text)
		}
		return text, nil
	default: // MINIMAL
		if w.fieldNeedsQuoting(text) {
			return quote(text), nil
		}
		return text, nil
	}
}

// fieldNeedsQuoting は値が区切り文字・引用符・改行・行終端を含むかどうかを判定します。
func (w *CSVWriter) fieldNeedsQuoting(text string) bool {
	return strings.Contains(text, w.cfg.Separator) ||
		strings.Contains(text, `"`) ||
		strings.Contains(text, "\n") ||
		strings.Contains(text, "\r") ||
		strings.Contains(text, w.cfg.LineTerminator)
}

// quote は値を二重引用符で囲みます。値中の引用符は二重化されます。
func quote(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// formatValue は値を文字列に変換し、数値かどうかを返します。
// NULL は空文字列として出力されます。出力は決定的です。
func formatValue(v any) (text string, numeric bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, false
	case []byte:
		return string(t), false
	case bool:
		return strconv.FormatBool(t), false
	case int:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case time.Time:
		return t.Format("2006-01-02 15:04:05"), false
	default:
		return fmt.Sprint(t), false
	}
}
