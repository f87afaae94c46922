package datautils

// Status is the outcome state of a collaborator operation.
type Status int

const (
	// StatusPending means the operation has not started.
	StatusPending Status = iota
	// StatusExecuting means the operation is in progress.
	StatusExecuting
	// StatusSuccess means the operation completed.
	StatusSuccess
	// StatusError means the operation failed; Result.Err is set.
	StatusError
)

var statusNames = []string{
	"pending",
	"executing",
	"success",
	"error",
}

func (s Status) String() string {
	if StatusPending <= s && s <= StatusError {
		return statusNames[s]
	}
	return "unknown status"
}

// Result is the {status, error, message} shape returned by storage and
// messaging adapters.
type Result struct {
	Status  Status `json:"status"`
	Err     error  `json:"-"`
	Message string `json:"message,omitempty"`
}

// Success returns a successful Result.
func Success() Result {
	return Result{Status: StatusSuccess}
}

// Failure returns an error Result. A nil err is replaced by an error built
// from msg so that a failed Result always carries an error.
func Failure(msg string, err error) Result {
	if err == nil {
		err = AsError(msg)
	}
	return Result{Status: StatusError, Err: err, Message: msg}
}

// OK reports whether the result is successful.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Error returns the carried error, or nil when the result is not an error.
func (r Result) Error() error {
	if r.Status != StatusError {
		return nil
	}
	return r.Err
}
