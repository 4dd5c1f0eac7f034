package vault

import (
	"strconv"
	"time"
)

// RequestView describes one HTTP exchange with the Vault server.
type RequestView struct {
	TimeStart    time.Time
	Label        string
	Method       string
	Path         string
	Status       *int
	ResponseTime *time.Duration
}

func (r RequestView) String() string {
	if r.Status != nil {
		return r.Label + "." + strconv.Itoa(*r.Status)
	}
	return r.Label
}

type RequestStartedEvent struct {
	Sender      any
	RequestView *RequestView
}

type RequestEndedEvent struct {
	Sender      any
	RequestView *RequestView
	Err         error
}
