package app

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	godotenv "github.com/joho/godotenv"

	config "ingest/pkg/batch/config"
	initializer "ingest/pkg/batch/initializer"
	core "ingest/pkg/batch/job/core"
	joblauncher "ingest/pkg/batch/job/joblauncher"
	exception "ingest/pkg/batch/util/exception"
	logger "ingest/pkg/batch/util/logger"
	exportjob "ingest/pkg/export/job"
	"ingest/pkg/export/repository"
	exporttasklet "ingest/pkg/export/step/tasklet"
)

// RunApplication はアプリケーションのメインロジックを実行し、プロセス終了コードを返します。
// 終了コードはエラー分類ごとに固定です (README 参照)。
func RunApplication(ctx context.Context, envFilePath string, embeddedConfig []byte) int {
	start := time.Now()
	defer func() {
		logger.Infof("所要時間: %.1fs", time.Since(start).Seconds())
	}()

	// .env ファイルのロード (存在しない場合は環境変数をそのまま使用)
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env ファイル '%s' のロードをスキップしました (本番環境では環境変数を使用): %v", envFilePath, err)
		} else {
			logger.Infof(".env ファイル '%s' をロードしました。", envFilePath)
		}
	}

	batchInitializer := initializer.NewBatchInitializer(&config.Config{
		EmbeddedConfig: embeddedConfig,
	})

	conn, err := batchInitializer.Initialize(ctx)
	if err != nil {
		logger.Errorf("バッチアプリケーションの初期化に失敗しました: %v", err)
		return exception.ExitCodeOf(err)
	}
	cfg := batchInitializer.Config

	uploader, err := buildUploader(ctx, cfg)
	if err != nil {
		conn.Close()
		logger.Errorf("S3 アップローダの初期化に失敗しました: %v", err)
		return exception.ExitCodeOf(err)
	}

	repo := repository.NewSourceRepository(conn, cfg.Database.Type, cfg.Database.Database)
	job := exportjob.NewExportJob(cfg, conn, repo, uploader)

	launcher := joblauncher.NewSimpleJobLauncher()
	jobExecution, runErr := launcher.Launch(ctx, job, core.NewJobParameters())

	return handleResult(runErr, jobExecution)
}

// buildUploader は S3 バケットが設定されている場合にアップローダを構築します。
// バケット未設定の場合は nil を返し、アップロードは行われません。
func buildUploader(ctx context.Context, cfg *config.Config) (exporttasklet.Uploader, error) {
	if cfg.Export.S3.Bucket == "" {
		logger.Debugf("S3 バケットが設定されていないため、アップロードは行いません。")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Export.S3.Region))
	if err != nil {
		return nil, exception.NewBatchError("app", exception.KindConfiguration,
			"AWS 認証情報のロードに失敗しました", err)
	}
	return manager.NewUploader(s3.NewFromConfig(awsCfg)), nil
}

// handleResult はジョブの実行結果をログに出力し、終了コードを決定します。
func handleResult(runErr error, jobExecution *core.JobExecution) int {
	if runErr != nil {
		if be, ok := runErr.(*exception.BatchError); ok {
			logger.Errorf("BatchError 詳細: Module=%s, Kind=%s, Message=%s, OriginalErr=%v",
				be.Module, be.Kind, be.Message, be.OriginalErr)
			if be.StackTrace != "" {
				logger.Debugf("BatchError StackTrace:\n%s", be.StackTrace)
			}
		}
		if jobExecution != nil {
			for i, f := range jobExecution.Failures {
				logger.Errorf("  - 失敗 %d: %v", i+1, f)
			}
		}
		return exception.ExitCodeOf(runErr)
	}

	if jobExecution == nil || jobExecution.Status != core.BatchStatusCompleted {
		logger.Errorf("ジョブが完了状態で終了しませんでした。")
		return exception.KindUnknown.ExitCode()
	}

	logger.Infof("エクスポートが完了しました。")
	return 0
}
