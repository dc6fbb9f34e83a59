package tasklet

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ingest/pkg/batch/config"
	core "ingest/pkg/batch/job/core"
	"ingest/pkg/batch/util/exception"
	"ingest/pkg/batch/util/logger"
	"ingest/pkg/export/domain/entity"
)

// Uploader は S3 へのアップロード操作を抽象化するインターフェースです。
// manager.Uploader がこのインターフェースを満たします。
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3UploadTasklet はエクスポート済みの成果物を S3 にアップロードする Tasklet の実装です。
// アップロード対象のパスはジョブの ExecutionContext から取得します。
type S3UploadTasklet struct {
	uploader Uploader
	cfg      config.S3Config
}

var _ core.Tasklet = (*S3UploadTasklet)(nil)

// NewS3UploadTasklet は新しい S3UploadTasklet のインスタンスを作成します。
func NewS3UploadTasklet(uploader Uploader, cfg config.S3Config) *S3UploadTasklet {
	return &S3UploadTasklet{
		uploader: uploader,
		cfg:      cfg,
	}
}

// Execute は全成果物を s3://<bucket>/[<prefix>/]<ファイル名> にアップロードします。
func (t *S3UploadTasklet) Execute(ctx context.Context, stepExecution *core.StepExecution) (core.ExitStatus, error) {
	artifacts, ok := stepExecution.JobExecution.ExecutionContext.GetStringSlice(entity.ContextKeyArtifacts)
	if !ok || len(artifacts) == 0 {
		logger.Warnf("アップロード対象の成果物がありません。スキップします。")
		return core.ExitStatusNoOp, nil
	}

	for _, localPath := range artifacts {
		if err := t.uploadFile(ctx, localPath); err != nil {
			return core.ExitStatusFailed, err
		}
	}
	return core.ExitStatusCompleted, nil
}

// uploadFile は単一ファイルをアップロードします。
func (t *S3UploadTasklet) uploadFile(ctx context.Context, localPath string) error {
	key := filepath.Base(localPath)
	if t.cfg.Prefix != "" {
		key = path.Join(strings.TrimRight(t.cfg.Prefix, "/"), key)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return exception.NewBatchError("s3_upload", exception.KindUpload,
			fmt.Sprintf("成果物 '%s' のオープンに失敗しました", localPath), err)
	}
	defer file.Close()

	_, err = t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return exception.NewBatchError("s3_upload", exception.KindUpload,
			fmt.Sprintf("s3://%s/%s へのアップロードに失敗しました", t.cfg.Bucket, key), err)
	}

	logger.Infof("s3://%s/%s にアップロードしました。", t.cfg.Bucket, key)
	return nil
}
