package controller

import "context"

// Request is a dispatched, not yet finished API call.
type Request struct {
	ID   uint64
	Kind Kind

	ctx    context.Context
	cancel context.CancelFunc
	call   func(context.Context) (any, error)
	commit func(any)
}

// Result is the outcome of Run, to be handed to Controller.Finish.
type Result struct {
	Kind      Kind
	RequestID uint64
	Err       error

	req     *Request
	payload any
}

// Run performs the request's network calls. It touches no state and may run
// on any goroutine.
func (r *Request) Run() Result {
	payload, err := r.call(r.ctx)
	return Result{
		Kind:      r.Kind,
		RequestID: r.ID,
		Err:       err,
		req:       r,
		payload:   payload,
	}
}
