package application

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Task names understood by the remote worker.
const (
	TaskProcessDebtorRegister = "process_debtor_register"
	TaskSendEmail             = "send_email"
	TaskQueryDatabase         = "query_database"
	TaskSendSms               = "send_sms"
	TaskSendSmsBatch          = "send_sms_batch"
)

// query_database discriminator values.
const (
	QueryTypeGetSums   = "get_sums"
	QueryTypeAllByDate = "all_by_date"
)

// TaskResult is the decoded reply of a broker RPC task. Success=false means
// the transport delivered a reply but the worker reported a domain failure;
// callers must treat that as an error.
type TaskResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Raw keeps the complete reply so callers can surface task-specific
	// fields (total_records, recipient_email, ...) without re-decoding.
	Raw json.RawMessage `json:"-"`
}

// ParseTaskResult decodes a broker reply body.
func ParseTaskResult(body []byte) (*TaskResult, error) {
	var result TaskResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode task reply: %w", err)
	}
	result.Raw = append([]byte(nil), body...)
	return &result, nil
}

// DecodeData unmarshals the reply's data section into v.
func (r *TaskResult) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return errors.New("task reply has no data section")
	}
	return json.Unmarshal(r.Data, v)
}

// TaskErrorKind discriminates broker failures so callers never have to
// inspect error strings.
type TaskErrorKind string

const (
	TaskErrTimeout   TaskErrorKind = "timeout"
	TaskErrTransport TaskErrorKind = "transport"
)

// TaskError is a transport-level broker failure. A timeout means we stopped
// waiting; the remote side may still complete the task.
type TaskError struct {
	Kind TaskErrorKind
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %q %s: %v", e.Task, e.Kind, e.Err)
	}
	return fmt.Sprintf("task %q %s", e.Task, e.Kind)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func NewTaskTimeoutError(task string) *TaskError {
	return &TaskError{Kind: TaskErrTimeout, Task: task}
}

func NewTaskTransportError(task string, err error) *TaskError {
	return &TaskError{Kind: TaskErrTransport, Task: task, Err: err}
}

func IsTaskError(err error) (*TaskError, bool) {
	var taskErr *TaskError
	ok := errors.As(err, &taskErr)
	return taskErr, ok
}
