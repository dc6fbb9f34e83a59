package listener

import (
	"context"

	core "ingest/pkg/batch/job/core"
	logger "ingest/pkg/batch/util/logger"
)

// LoggingListener はステップの開始・終了をログに出力する StepExecutionListener の実装です。
type LoggingListener struct{}

var _ core.StepExecutionListener = (*LoggingListener)(nil)

// NewLoggingListener は新しい LoggingListener のインスタンスを作成します。
func NewLoggingListener() *LoggingListener {
	return &LoggingListener{}
}

// BeforeStep はステップ開始前に呼び出されます。
func (l *LoggingListener) BeforeStep(ctx context.Context, stepExecution *core.StepExecution) {
	logger.Infof("ステップ '%s' (ID: %s) を開始します。", stepExecution.StepName, stepExecution.ID)
}

// AfterStep はステップ終了後に呼び出されます。失敗時は失敗原因も出力します。
func (l *LoggingListener) AfterStep(ctx context.Context, stepExecution *core.StepExecution) {
	logger.Infof("ステップ '%s' (ID: %s) が終了しました。ステータス: %s, 読込: %d, 書込: %d",
		stepExecution.StepName, stepExecution.ID, stepExecution.Status,
		stepExecution.ReadCount, stepExecution.WriteCount)
	for i, f := range stepExecution.Failures {
		logger.Errorf("ステップ '%s' の失敗 %d: %v", stepExecution.StepName, i+1, f)
	}
}
