package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ingest/pkg/batch/util/exception"
)

// TestBatchError_KindsAndExitCodes はエラー分類と終了コードの対応を検証します。
func TestBatchError_KindsAndExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		kind     exception.Kind
		wantName string
		wantCode int
	}{
		{name: "Configuration", kind: exception.KindConfiguration, wantName: "ConfigurationError", wantCode: 1},
		{name: "Connection", kind: exception.KindConnection, wantName: "ConnectionError", wantCode: 2},
		{name: "Extraction", kind: exception.KindExtraction, wantName: "ExtractionError", wantCode: 3},
		{name: "Persistence", kind: exception.KindPersistence, wantName: "PersistenceError", wantCode: 4},
		{name: "Upload", kind: exception.KindUpload, wantName: "UploadError", wantCode: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.kind.String())
			assert.Equal(t, tt.wantCode, tt.kind.ExitCode())
		})
	}
}

// TestBatchError_WrappingAndKindOf はラップされたエラーからの分類の取り出しを検証します。
func TestBatchError_WrappingAndKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	be := exception.NewBatchError("database", exception.KindConnection, "接続に失敗しました", cause)

	assert.ErrorIs(t, be, cause, "元のエラーが errors.Is で辿れること")
	assert.Contains(t, be.Error(), "ConnectionError")
	assert.Contains(t, be.Error(), "connection refused")

	// 多段にラップされても分類が取り出せること
	wrapped := fmt.Errorf("ジョブが失敗しました: %w", be)
	assert.Equal(t, exception.KindConnection, exception.KindOf(wrapped))
	assert.Equal(t, 2, exception.ExitCodeOf(wrapped))
}

// TestExitCodeOf_Defaults は nil と未分類エラーの終了コードを検証します。
func TestExitCodeOf_Defaults(t *testing.T) {
	assert.Equal(t, 0, exception.ExitCodeOf(nil))
	assert.Equal(t, 1, exception.ExitCodeOf(errors.New("plain error")))
	assert.Equal(t, exception.KindUnknown, exception.KindOf(errors.New("plain error")))
}
