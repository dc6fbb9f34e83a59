package joblauncher

import (
	"context"

	core "ingest/pkg/batch/job/core"
)

// JobLauncher は Job を JobParameters とともに起動するためのインターフェースです。
type JobLauncher interface {
	// Launch は指定された Job を JobParameters とともに起動します。
	// 戻り値の JobExecution には実行の最終状態が記録されています。
	Launch(ctx context.Context, job core.Job, params core.JobParameters) (*core.JobExecution, error)
}
