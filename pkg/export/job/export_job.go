package job

import (
	"context"

	"ingest/pkg/batch/config"
	"ingest/pkg/batch/database"
	core "ingest/pkg/batch/job/core"
	batchstep "ingest/pkg/batch/step"
	steplistener "ingest/pkg/batch/step/listener"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
	"ingest/pkg/export/domain/entity"
	"ingest/pkg/export/repository"
	exportprocessor "ingest/pkg/export/step/processor"
	exportreader "ingest/pkg/export/step/reader"
	exporttasklet "ingest/pkg/export/step/tasklet"
	exportwriter "ingest/pkg/export/step/writer"
)

// ExportJob は設定された全テーブルを CSV としてエクスポートするジョブです。
//
// フローは直線的です: 接続 → テーブルごとの抽出・永続化 → (任意) S3 アップロード → 終了。
// データベース接続はジョブが所有し、失敗時を含む全ての終了パスで解放されます。
type ExportJob struct {
	cfg       *config.Config
	conn      database.DBConnection
	repo      repository.SourceRepository
	uploader  exporttasklet.Uploader // nil の場合、アップロードは行われません
	listeners []core.StepExecutionListener
}

var _ core.Job = (*ExportJob)(nil)

// NewExportJob は新しい ExportJob のインスタンスを作成します。
func NewExportJob(cfg *config.Config, conn database.DBConnection, repo repository.SourceRepository, uploader exporttasklet.Uploader) *ExportJob {
	return &ExportJob{
		cfg:      cfg,
		conn:     conn,
		repo:     repo,
		uploader: uploader,
		listeners: []core.StepExecutionListener{
			steplistener.NewLoggingListener(),
		},
	}
}

// JobName はジョブ名を返します。
func (j *ExportJob) JobName() string {
	return j.cfg.Batch.JobName
}

// ValidateParameters は JobParameters を検証します。
// このジョブの入力は全て設定から与えられるため、パラメータの制約はありません。
func (j *ExportJob) ValidateParameters(params core.JobParameters) error {
	return nil
}

// Run はエクスポートのフロー全体を実行します。
func (j *ExportJob) Run(ctx context.Context, jobExecution *core.JobExecution, jobParameters core.JobParameters) error {
	// 接続はどの終了パスでも解放する
	defer func() {
		if err := j.conn.Close(); err != nil {
			logger.Errorf("データベース接続のクローズに失敗しました: %v", err)
		} else {
			logger.Debugf("データベース接続をクローズしました。")
		}
	}()

	var exported []string
	for _, table := range j.cfg.Export.Tables {
		finalPath, err := j.exportTable(ctx, jobExecution, table)
		if err != nil {
			jobExecution.MarkAsFailed(err)
			return err
		}
		if finalPath != "" {
			exported = append(exported, finalPath)
		}
	}

	if len(exported) == 0 {
		err := exception.NewBatchErrorf("export_job", exception.KindExtraction,
			"エクスポートされたテーブルがありません。テーブル名と権限を確認してください。")
		jobExecution.MarkAsFailed(err)
		return err
	}
	jobExecution.ExecutionContext[entity.ContextKeyArtifacts] = exported

	if j.uploader != nil && j.cfg.Export.S3.Bucket != "" {
		if err := j.uploadArtifacts(ctx, jobExecution); err != nil {
			jobExecution.MarkAsFailed(err)
			return err
		}
	}

	jobExecution.MarkAsCompleted()
	return nil
}

// exportTable は単一テーブルのエクスポートをチャンクステップとして実行します。
// テーブルが存在しない場合は警告を出してスキップし、空のパスを返します。
func (j *ExportJob) exportTable(ctx context.Context, jobExecution *core.JobExecution, table string) (string, error) {
	exists, err := j.repo.TableExists(ctx, table)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.Warnf("テーブル '%s' は '%s' に存在しません。スキップします。", table, j.cfg.Database.Database)
		return "", nil
	}

	r := exportreader.NewTableReader(j.conn, table, j.cfg.Database.Type)
	p := exportprocessor.NewRecordValidator(table)
	w := exportwriter.NewCSVWriter(j.cfg.Export.OutputDir, table, j.cfg.Export.CSV)

	chunkStep := batchstep.NewChunkStep(
		"export:"+table,
		r, p, w,
		j.cfg.Export.ChunkSize,
		j.listeners,
	)

	stepExecution := core.NewStepExecution(chunkStep.StepName(), jobExecution)
	jobExecution.AddStepExecution(stepExecution)

	if err := chunkStep.Execute(ctx, jobExecution, stepExecution); err != nil {
		return "", err
	}
	return w.FinalPath(), nil
}

// uploadArtifacts はエクスポート済み成果物のアップロードを Tasklet ステップとして実行します。
func (j *ExportJob) uploadArtifacts(ctx context.Context, jobExecution *core.JobExecution) error {
	uploadStep := batchstep.NewTaskletStep(
		"upload:s3",
		exporttasklet.NewS3UploadTasklet(j.uploader, j.cfg.Export.S3),
		j.listeners,
	)

	stepExecution := core.NewStepExecution(uploadStep.StepName(), jobExecution)
	jobExecution.AddStepExecution(stepExecution)

	return uploadStep.Execute(ctx, jobExecution, stepExecution)
}
