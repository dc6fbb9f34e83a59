package writer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest/pkg/batch/config"
	core "ingest/pkg/batch/job/core"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/export/domain/entity"
	exportwriter "ingest/pkg/export/step/writer"
)

func defaultCSVConfig() config.CSVConfig {
	return config.CSVConfig{
		Separator:      ",",
		QuoteMode:      "MINIMAL",
		LineTerminator: "\n",
	}
}

// writeAll は Open → Write → Close の一連の流れを実行するテストヘルパーです。
func writeAll(t *testing.T, w *exportwriter.CSVWriter, columns []string, records []*entity.Record) error {
	t.Helper()
	ctx := context.Background()
	ec := core.NewExecutionContext()
	ec[entity.ContextKeyColumns] = columns

	if err := w.Open(ctx, ec); err != nil {
		return err
	}
	if len(records) > 0 {
		if err := w.Write(ctx, records); err != nil {
			w.Abort(ctx)
			return err
		}
	}
	return w.Close(ctx)
}

// TestCSVWriter_WritesRecords は基本的なエクスポート結果の内容を検証します。
func TestCSVWriter_WritesRecords(t *testing.T) {
	dir := t.TempDir()
	w := exportwriter.NewCSVWriter(dir, "customers", defaultCSVConfig())

	columns := []string{"id", "name", "email"}
	records := []*entity.Record{
		{Columns: columns, Values: []any{int64(1), "Alice", "alice@example.com"}},
		{Columns: columns, Values: []any{int64(2), "Bob", "bob@example.com"}},
	}

	require.NoError(t, writeAll(t, w, columns, records))
	assert.Equal(t, 2, w.RowCount())

	content, err := os.ReadFile(filepath.Join(dir, "customers.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"id,name,email\n1,Alice,alice@example.com\n2,Bob,bob@example.com\n",
		string(content))

	// 一時ファイルが残っていないこと
	_, err = os.Stat(filepath.Join(dir, "customers.csv.tmp"))
	assert.True(t, os.IsNotExist(err))
}

// TestCSVWriter_IdempotentOverwrite は再実行で成果物がバイト単位で一致することを検証します。
func TestCSVWriter_IdempotentOverwrite(t *testing.T) {
	dir := t.TempDir()
	columns := []string{"id", "name"}
	records := []*entity.Record{
		{Columns: columns, Values: []any{int64(1), "Alice"}},
	}

	var contents [][]byte
	for i := 0; i < 2; i++ {
		w := exportwriter.NewCSVWriter(dir, "customers", defaultCSVConfig())
		require.NoError(t, writeAll(t, w, columns, records))
		c, err := os.ReadFile(filepath.Join(dir, "customers.csv"))
		require.NoError(t, err)
		contents = append(contents, c)
	}

	assert.Equal(t, contents[0], contents[1], "同一入力での再実行はバイト単位で同一の成果物を生成すること")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "成果物は 1 ファイルのみであること")
}

// TestCSVWriter_EmptyResult は 0 行のテーブルでヘッダのみの整形済みファイルが生成されることを検証します。
func TestCSVWriter_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	w := exportwriter.NewCSVWriter(dir, "empty_table", defaultCSVConfig())

	require.NoError(t, writeAll(t, w, []string{"id", "name"}, nil))
	assert.Equal(t, 0, w.RowCount())

	content, err := os.ReadFile(filepath.Join(dir, "empty_table.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\n", string(content))
}

// TestCSVWriter_AbortLeavesNoArtifact は失敗時に書きかけのファイルが残らないことを検証します。
func TestCSVWriter_AbortLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	w := exportwriter.NewCSVWriter(dir, "customers", defaultCSVConfig())

	ec := core.NewExecutionContext()
	ec[entity.ContextKeyColumns] = []string{"id"}
	require.NoError(t, w.Open(ctx, ec))
	require.NoError(t, w.Write(ctx, []*entity.Record{
		{Columns: []string{"id"}, Values: []any{int64(1)}},
	}))

	require.NoError(t, w.Abort(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "Abort 後は最終名のファイルも一時ファイルも存在しないこと")
}

// TestCSVWriter_QuoteModes はクオートモードごとの出力形式を検証します。
func TestCSVWriter_QuoteModes(t *testing.T) {
	columns := []string{"id", "name", "note"}
	record := &entity.Record{
		Columns: columns,
		Values:  []any{int64(7), `say "hi", ok`, nil},
	}

	tests := []struct {
		name      string
		quoteMode string
		want      string
	}{
		{
			name:      "MINIMAL quotes only when needed",
			quoteMode: "MINIMAL",
			want:      "id,name,note\n7,\"say \"\"hi\"\", ok\",\n",
		},
		{
			name:      "ALL quotes every field",
			quoteMode: "ALL",
			want:      "\"id\",\"name\",\"note\"\n\"7\",\"say \"\"hi\"\", ok\",\"\"\n",
		},
		{
			name:      "NONNUMERIC leaves numbers and NULL bare",
			quoteMode: "NONNUMERIC",
			want:      "\"id\",\"name\",\"note\"\n7,\"say \"\"hi\"\", ok\",\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := defaultCSVConfig()
			cfg.QuoteMode = tt.quoteMode
			w := exportwriter.NewCSVWriter(dir, "notes", cfg)

			require.NoError(t, writeAll(t, w, columns, []*entity.Record{record}))
			content, err := os.ReadFile(filepath.Join(dir, "notes.csv"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(content))
		})
	}

	t.Run("NONE fails on values containing the separator", func(t *testing.T) {
		dir := t.TempDir()
		cfg := defaultCSVConfig()
		cfg.QuoteMode = "NONE"
		w := exportwriter.NewCSVWriter(dir, "notes", cfg)

		err := writeAll(t, w, columns, []*entity.Record{record})
		require.Error(t, err)
		assert.Equal(t, exception.KindPersistence, exception.KindOf(err))
	})
}

// TestCSVWriter_CustomSeparatorAndTerminator は区切り文字と行終端の設定を検証します。
func TestCSVWriter_CustomSeparatorAndTerminator(t *testing.T) {
	dir := t.TempDir()
	cfg := config.CSVConfig{Separator: ";", QuoteMode: "MINIMAL", LineTerminator: "\r\n"}
	w := exportwriter.NewCSVWriter(dir, "customers", cfg)

	columns := []string{"id", "name"}
	records := []*entity.Record{
		{Columns: columns, Values: []any{int64(1), "a;b"}},
	}

	require.NoError(t, writeAll(t, w, columns, records))
	content, err := os.ReadFile(filepath.Join(dir, "customers.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id;name\r\n1;\"a;b\"\r\n", string(content))
}

// TestCSVWriter_ColumnCountMismatch はヘッダと値数の不一致が致命的エラーになることを検証します。
func TestCSVWriter_ColumnCountMismatch(t *testing.T) {
	dir := t.TempDir()
	w := exportwriter.NewCSVWriter(dir, "customers", defaultCSVConfig())

	columns := []string{"id", "name"}
	err := writeAll(t, w, columns, []*entity.Record{
		{Columns: columns, Values: []any{int64(1)}},
	})
	require.Error(t, err)
	assert.Equal(t, exception.KindExtraction, exception.KindOf(err))
}
