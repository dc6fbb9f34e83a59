package core

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus はジョブ実行の状態を表します。
type JobStatus string

const (
	BatchStatusStarting  JobStatus = "STARTING"
	BatchStatusStarted   JobStatus = "STARTED"
	BatchStatusStopped   JobStatus = "STOPPED"
	BatchStatusCompleted JobStatus = "COMPLETED"
	BatchStatusFailed    JobStatus = "FAILED"
	BatchStatusUnknown   JobStatus = "UNKNOWN"
)

// IsFinished は JobStatus が終了状態かどうかを判定するヘルパーメソッドです。
func (s JobStatus) IsFinished() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusStopped:
		return true
	default:
		return false
	}
}

// ExitStatus はジョブ/ステップの終了時の詳細なステータスを表します。
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusStopped   ExitStatus = "STOPPED"
	ExitStatusNoOp      ExitStatus = "NO_OP"
)

// ExecutionContext はジョブやステップ間で状態を共有するためのキー-値ストアです。
type ExecutionContext map[string]interface{}

// NewExecutionContext は空の ExecutionContext を作成します。
func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

// GetString は指定されたキーの文字列値を取得します。
func (ec ExecutionContext) GetString(key string) (string, bool) {
	v, ok := ec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStringSlice は指定されたキーの文字列スライス値を取得します。
func (ec ExecutionContext) GetStringSlice(key string) ([]string, bool) {
	v, ok := ec[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

// JobParameters はジョブ実行時のパラメータを保持する構造体です。
type JobParameters struct {
	Params map[string]interface{}
}

// NewJobParameters は JobParameters の新しいインスタンスを作成します。
func NewJobParameters() JobParameters {
	return JobParameters{Params: make(map[string]interface{})}
}

// Put はパラメータを設定します。
func (p JobParameters) Put(key string, value interface{}) {
	p.Params[key] = value
}

// GetString は指定されたキーの文字列パラメータを取得します。
func (p JobParameters) GetString(key string) (string, bool) {
	v, ok := p.Params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// JobExecution はジョブの単一の実行インスタンスを表す構造体です。
// 各実行は独立しており、実行間で状態を持ちません。
type JobExecution struct {
	ID               string
	JobName          string
	Parameters       JobParameters
	StartTime        time.Time
	EndTime          time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         []error
	CreateTime       time.Time
	LastUpdated      time.Time
	StepExecutions   []*StepExecution
	ExecutionContext ExecutionContext
	CurrentStepName  string
}

// NewJobExecution は新しい JobExecution のインスタンスを作成します。
func NewJobExecution(jobName string, params JobParameters) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:               uuid.New().String(),
		JobName:          jobName,
		Parameters:       params,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		CreateTime:       now,
		LastUpdated:      now,
		ExecutionContext: NewExecutionContext(),
	}
}

// MarkAsStarted は実行を開始状態にします。
func (e *JobExecution) MarkAsStarted() {
	e.StartTime = time.Now()
	e.Status = BatchStatusStarted
	e.LastUpdated = time.Now()
}

// MarkAsCompleted は実行を正常終了状態にします。
func (e *JobExecution) MarkAsCompleted() {
	e.EndTime = time.Now()
	e.Status = BatchStatusCompleted
	e.ExitStatus = ExitStatusCompleted
	e.LastUpdated = time.Now()
}

// MarkAsFailed は実行を失敗状態にし、失敗原因を記録します。
func (e *JobExecution) MarkAsFailed(err error) {
	e.EndTime = time.Now()
	e.Status = BatchStatusFailed
	e.ExitStatus = ExitStatusFailed
	e.LastUpdated = time.Now()
	if err != nil {
		e.Failures = append(e.Failures, err)
	}
}

// AddStepExecution はステップ実行を登録します。
func (e *JobExecution) AddStepExecution(se *StepExecution) {
	e.StepExecutions = append(e.StepExecutions, se)
	e.CurrentStepName = se.StepName
}

// StepExecution はステップの単一の実行インスタンスを表す構造体です。
type StepExecution struct {
	ID               string
	StepName         string
	JobExecution     *JobExecution // 所属するジョブ実行への参照
	StartTime        time.Time
	EndTime          time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         []error
	ReadCount        int
	WriteCount       int
	FilterCount      int
	ExecutionContext ExecutionContext
	LastUpdated      time.Time
}

// NewStepExecution は新しい StepExecution のインスタンスを作成します。
func NewStepExecution(stepName string, jobExecution *JobExecution) *StepExecution {
	return &StepExecution{
		ID:               uuid.New().String(),
		StepName:         stepName,
		JobExecution:     jobExecution,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		ExecutionContext: NewExecutionContext(),
		LastUpdated:      time.Now(),
	}
}

// MarkAsStarted はステップ実行を開始状態にします。
func (se *StepExecution) MarkAsStarted() {
	se.StartTime = time.Now()
	se.Status = BatchStatusStarted
	se.LastUpdated = time.Now()
}

// MarkAsCompleted はステップ実行を正常終了状態にします。
func (se *StepExecution) MarkAsCompleted() {
	se.EndTime = time.Now()
	se.Status = BatchStatusCompleted
	se.ExitStatus = ExitStatusCompleted
	se.LastUpdated = time.Now()
}

// MarkAsFailed はステップ実行を失敗状態にし、失敗原因を記録します。
func (se *StepExecution) MarkAsFailed(err error) {
	se.EndTime = time.Now()
	se.Status = BatchStatusFailed
	se.ExitStatus = ExitStatusFailed
	se.LastUpdated = time.Now()
	if err != nil {
		se.Failures = append(se.Failures, err)
	}
}
