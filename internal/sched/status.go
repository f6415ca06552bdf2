package sched

// Status is the execution state of one row within a run.
type Status string

const (
	// Pending rows are waiting for their level to start.
	Pending Status = "pending"
	// WaitingApproval marks a locked row that could not be confirmed because
	// no confirmer is configured and auto-approve is off.
	WaitingApproval Status = "waiting_approval"
	// Running rows are currently inside the executor callback.
	Running Status = "running"
	// Success is terminal: executed, cached, or dry-run.
	Success Status = "success"
	// Failed is terminal: the executor reported a fault.
	Failed Status = "failed"
	// Skipped is terminal: a dependency failed, or a locked row was declined.
	Skipped Status = "skipped"
	// Blocked is terminal: the run aborted before the row's level started.
	Blocked Status = "blocked"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case Success, Failed, Skipped, Blocked, WaitingApproval:
		return true
	}
	return false
}
