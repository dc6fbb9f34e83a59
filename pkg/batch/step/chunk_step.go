package step

import (
	"context"
	"errors"
	"io"

	core "ingest/pkg/batch/job/core"
	exception "ingest/pkg/batch/util/exception"
	logger "ingest/pkg/batch/util/logger"
)

// ChunkStep はチャンク指向のステップを実装します。
// Reader からアイテムを読み込み、Processor で検証・変換し、
// chunkSize 件ごとに Writer へフラッシュします。
// 結果セット全体をメモリに保持することはありません。
type ChunkStep[I, O any] struct {
	name      string
	reader    core.ItemReader[I]
	processor core.ItemProcessor[I, O]
	writer    core.ItemWriter[O]
	chunkSize int
	listeners []core.StepExecutionListener
}

var _ core.Step = (*ChunkStep[any, any])(nil)

// NewChunkStep は新しい ChunkStep のインスタンスを作成します。
func NewChunkStep[I, O any](
	name string,
	r core.ItemReader[I],
	p core.ItemProcessor[I, O],
	w core.ItemWriter[O],
	chunkSize int,
	listeners []core.StepExecutionListener,
) *ChunkStep[I, O] {
	return &ChunkStep[I, O]{
		name:      name,
		reader:    r,
		processor: p,
		writer:    w,
		chunkSize: chunkSize,
		listeners: listeners,
	}
}

// StepName はステップの名前を返します。
func (cs *ChunkStep[I, O]) StepName() string {
	return cs.name
}

// Execute はチャンクステップのビジネスロジックを実行します。
// 成功時は Writer の出力を確定し、失敗時は書きかけの出力を破棄します。
func (cs *ChunkStep[I, O]) Execute(ctx context.Context, jobExecution *core.JobExecution, stepExecution *core.StepExecution) error {
	logger.Infof("ステップ '%s' の実行を開始します。", cs.name)

	for _, l := range cs.listeners {
		l.BeforeStep(ctx, stepExecution)
	}
	stepExecution.MarkAsStarted()

	stepErr := cs.execute(ctx, stepExecution)

	if stepErr != nil {
		stepExecution.MarkAsFailed(stepErr)
	} else {
		stepExecution.MarkAsCompleted()
	}

	for _, l := range cs.listeners {
		l.AfterStep(ctx, stepExecution)
	}
	logger.Infof("ステップ '%s' の実行が完了しました。ステータス: %s, 読込: %d, 書込: %d",
		cs.name, stepExecution.Status, stepExecution.ReadCount, stepExecution.WriteCount)
	return stepErr
}

func (cs *ChunkStep[I, O]) execute(ctx context.Context, stepExecution *core.StepExecution) (stepErr error) {
	ec := stepExecution.ExecutionContext

	if err := cs.reader.Open(ctx, ec); err != nil {
		return err
	}
	defer func() {
		if err := cs.reader.Close(ctx); err != nil {
			logger.Errorf("ステップ '%s': Reader のクローズに失敗しました: %v", cs.name, err)
		}
	}()

	if err := cs.writer.Open(ctx, ec); err != nil {
		return err
	}
	defer func() {
		if stepErr != nil {
			if err := cs.writer.Abort(ctx); err != nil {
				logger.Errorf("ステップ '%s': 不完全な出力の破棄に失敗しました: %v", cs.name, err)
			}
			return
		}
		// 正常終了時のみ出力を確定する
		if err := cs.writer.Close(ctx); err != nil {
			stepErr = err
			stepExecution.MarkAsFailed(err)
		}
	}()

	chunk := make([]O, 0, cs.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return exception.NewBatchError(cs.name, exception.KindExtraction,
				"コンテキストがキャンセルされました", ctx.Err())
		default:
		}

		item, err := cs.reader.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		stepExecution.ReadCount++

		out, err := cs.processor.Process(ctx, item)
		if err != nil {
			return err
		}

		chunk = append(chunk, out)
		if len(chunk) >= cs.chunkSize {
			if err := cs.writer.Write(ctx, chunk); err != nil {
				return err
			}
			stepExecution.WriteCount += len(chunk)
			chunk = chunk[:0]
		}
	}

	if len(chunk) > 0 {
		if err := cs.writer.Write(ctx, chunk); err != nil {
			return err
		}
		stepExecution.WriteCount += len(chunk)
	}

	return nil
}
