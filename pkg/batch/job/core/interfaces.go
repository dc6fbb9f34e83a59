package core

import (
	"context"
)

// Job は実行可能なバッチジョブのインターフェースです。
type Job interface {
	Run(ctx context.Context, jobExecution *JobExecution, jobParameters JobParameters) error
	JobName() string
	ValidateParameters(params JobParameters) error
}

// Step はジョブ内で実行される単一のステップのインターフェースです。
type Step interface {
	Execute(ctx context.Context, jobExecution *JobExecution, stepExecution *StepExecution) error
	StepName() string
}

// ItemReader はデータを読み込むステップのインターフェースです。
// O は読み込まれるアイテムの型です。Read はデータの終端で io.EOF を返します。
type ItemReader[O any] interface {
	Open(ctx context.Context, ec ExecutionContext) error // リソースを開き、共有情報を ExecutionContext に公開
	Read(ctx context.Context) (O, error)                 // 読み込んだデータを O 型で返す
	Close(ctx context.Context) error                     // リソースを解放する
}

// ItemProcessor はアイテムを処理するステップのインターフェースです。
// I は入力アイテムの型、O は出力アイテムの型です。
type ItemProcessor[I, O any] interface {
	Process(ctx context.Context, item I) (O, error)
}

// ItemWriter はデータを書き込むステップのインターフェースです。
// I は書き込まれるアイテムの型です。
// Close は出力を確定し、Abort は書きかけの出力を破棄します。
type ItemWriter[I any] interface {
	Open(ctx context.Context, ec ExecutionContext) error // リソースを開き、ExecutionContext から共有情報を取得
	Write(ctx context.Context, items []I) error          // チャンク単位でアイテムを書き込む
	Close(ctx context.Context) error                     // 出力を確定してリソースを解放する
	Abort(ctx context.Context) error                     // 不完全な出力を破棄してリソースを解放する
}

// Tasklet は単一の操作を実行するステップのインターフェースです。
type Tasklet interface {
	Execute(ctx context.Context, stepExecution *StepExecution) (ExitStatus, error)
}

// StepExecutionListener はステップ実行イベントを処理するためのインターフェースです。
type StepExecutionListener interface {
	BeforeStep(ctx context.Context, stepExecution *StepExecution)
	AfterStep(ctx context.Context, stepExecution *StepExecution)
}
