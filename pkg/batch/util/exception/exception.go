package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind はバッチ処理で発生するエラーの分類です。
// 分類ごとにプロセスの終了コードが一意に決まります。
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration     // 設定値の不足・不正 (ネットワークアクセス前に検出)
	KindConnection        // データベースへの接続・認証失敗
	KindExtraction        // クエリ実行・行スキャンの失敗
	KindPersistence       // 出力ディレクトリへの書き込み失敗
	KindUpload            // オブジェクトストレージへのアップロード失敗
)

// String は Kind の文字列表現を返します。
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindConnection:
		return "ConnectionError"
	case KindExtraction:
		return "ExtractionError"
	case KindPersistence:
		return "PersistenceError"
	case KindUpload:
		return "UploadError"
	default:
		return "UnknownError"
	}
}

// ExitCode は Kind に対応するプロセス終了コードを返します。
// 0 は成功、1 以降は README に記載の固定値です。
func (k Kind) ExitCode() int {
	switch k {
	case KindConfiguration:
		return 1
	case KindConnection:
		return 2
	case KindExtraction:
		return 3
	case KindPersistence:
		return 4
	case KindUpload:
		return 5
	default:
		return 1
	}
}

// BatchError はバッチ処理中に発生するカスタムエラー型です。
// エラーの発生元モジュール、分類、メッセージ、ラップされた元のエラーを保持します。
type BatchError struct {
	Module      string // エラーが発生したモジュール (例: "reader", "writer", "config")
	Kind        Kind   // エラーの分類
	Message     string // エラーの簡潔な説明
	OriginalErr error  // ラップされた元のエラー
	StackTrace  string // スタックトレース (デバッグ用)
}

// NewBatchError は新しい BatchError のインスタンスを作成します。
func NewBatchError(module string, kind Kind, message string, originalErr error) *BatchError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &BatchError{
		Module:      module,
		Kind:        kind,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewBatchErrorf はフォーマット文字列を使用して新しい BatchError のインスタンスを作成します。
func NewBatchErrorf(module string, kind Kind, format string, a ...interface{}) *BatchError {
	return NewBatchError(module, kind, fmt.Sprintf(format, a...), nil)
}

// Error は error インターフェースの実装です。
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Kind, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Kind, e.Message)
}

// Unwrap は errors.Unwrap のために元のエラーを返します。
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// KindOf はエラーチェーンから BatchError の分類を取り出します。
// BatchError が含まれない場合は KindUnknown を返します。
func KindOf(err error) Kind {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// ExitCodeOf はエラーに対応するプロセス終了コードを返します。
// nil の場合は 0 を返します。
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
