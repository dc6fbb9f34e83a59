package step

import (
	"context"

	core "ingest/pkg/batch/job/core"
	logger "ingest/pkg/batch/util/logger"
)

// TaskletStep は Tasklet インターフェースをラップし、core.Step インターフェースを実装します。
type TaskletStep struct {
	name      string
	tasklet   core.Tasklet
	listeners []core.StepExecutionListener
}

var _ core.Step = (*TaskletStep)(nil)

// NewTaskletStep は新しい TaskletStep のインスタンスを作成します。
func NewTaskletStep(name string, tasklet core.Tasklet, listeners []core.StepExecutionListener) *TaskletStep {
	return &TaskletStep{
		name:      name,
		tasklet:   tasklet,
		listeners: listeners,
	}
}

// StepName はステップ名を返します。
func (s *TaskletStep) StepName() string {
	return s.name
}

// Execute は Tasklet を実行し、StepExecution の状態を管理します。
func (s *TaskletStep) Execute(ctx context.Context, jobExecution *core.JobExecution, stepExecution *core.StepExecution) error {
	logger.Infof("Taskletステップ '%s' の実行を開始します。", s.name)

	for _, l := range s.listeners {
		l.BeforeStep(ctx, stepExecution)
	}
	stepExecution.MarkAsStarted()

	exitStatus, err := s.tasklet.Execute(ctx, stepExecution)

	if err != nil {
		stepExecution.MarkAsFailed(err)
	} else {
		stepExecution.MarkAsCompleted()
		stepExecution.ExitStatus = exitStatus
	}

	for _, l := range s.listeners {
		l.AfterStep(ctx, stepExecution)
	}
	logger.Infof("Taskletステップ '%s' の実行が完了しました。ステータス: %s", s.name, stepExecution.Status)
	return err
}
