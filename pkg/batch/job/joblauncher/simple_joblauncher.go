package joblauncher

import (
	"context"

	core "ingest/pkg/batch/job/core"
	exception "ingest/pkg/batch/util/exception"
	logger "ingest/pkg/batch/util/logger"
)

// SimpleJobLauncher は JobLauncher インターフェースのシンプルな実装です。
// JobExecution の基本的なライフサイクル管理を行います。
// 各実行は独立しており、実行記録の永続化は行いません。
type SimpleJobLauncher struct{}

// NewSimpleJobLauncher は新しい SimpleJobLauncher のインスタンスを作成します。
func NewSimpleJobLauncher() *SimpleJobLauncher {
	return &SimpleJobLauncher{}
}

// Launch は指定された Job を JobParameters とともに起動し、JobExecution を管理します。
// ここで返されるエラーはジョブ実行中の失敗を含みます。起動前のバリデーション失敗も同様です。
func (l *SimpleJobLauncher) Launch(ctx context.Context, job core.Job, params core.JobParameters) (*core.JobExecution, error) {
	jobName := job.JobName()

	if err := job.ValidateParameters(params); err != nil {
		logger.Errorf("Job '%s': JobParameters のバリデーションに失敗しました: %v", jobName, err)
		return nil, exception.NewBatchError("job_launcher", exception.KindConfiguration,
			"JobParameters のバリデーションエラー", err)
	}

	jobExecution := core.NewJobExecution(jobName, params)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobExecution.MarkAsStarted()
	logger.Infof("Job '%s' (Execution ID: %s) を実行します。", jobName, jobExecution.ID)

	runErr := job.Run(jobCtx, jobExecution, params)

	if runErr != nil {
		if !jobExecution.Status.IsFinished() {
			jobExecution.MarkAsFailed(runErr)
		}
		logger.Errorf("Job '%s' (Execution ID: %s) が失敗しました: %v", jobName, jobExecution.ID, runErr)
		return jobExecution, runErr
	}

	if !jobExecution.Status.IsFinished() {
		jobExecution.MarkAsCompleted()
	}
	logger.Infof("Job '%s' (Execution ID: %s) が完了しました。ステータス: %s, 所要時間: %s",
		jobName, jobExecution.ID, jobExecution.Status, jobExecution.EndTime.Sub(jobExecution.StartTime))
	return jobExecution, nil
}
