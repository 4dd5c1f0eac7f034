package vault

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/signals"
)

var hostname string

func init() {
	hostname, _ = os.Hostname()
}

// ObservableTransport publishes a started and an ended event around every
// request and logs the exchange at debug level.
type ObservableTransport struct {
	base             http.RoundTripper
	log              logger.Logger
	onRequestStarted *signals.SignalImp[RequestStartedEvent]
	onRequestEnded   *signals.SignalImp[RequestEndedEvent]
}

func NewObservableTransport(base http.RoundTripper, log logger.Logger) *ObservableTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &ObservableTransport{
		base:             base,
		log:              log,
		onRequestStarted: signals.NewSignal[RequestStartedEvent](),
		onRequestEnded:   signals.NewSignal[RequestEndedEvent](),
	}
}

func (t *ObservableTransport) OnRequestStarted() signals.Signal[RequestStartedEvent] {
	return t.onRequestStarted
}

func (t *ObservableTransport) OnRequestEnded() signals.Signal[RequestEndedEvent] {
	return t.onRequestEnded
}

func (t *ObservableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	view := &RequestView{
		TimeStart: time.Now(),
		Label:     fmt.Sprintf("ascetic-vault.%s.%s.%s.%s", hostname, req.Method, req.URL.Host, req.URL.Path),
		Method:    req.Method,
		Path:      req.URL.Path,
	}

	if err := t.onRequestStarted.Notify(RequestStartedEvent{Sender: t, RequestView: view}); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)

	elapsed := time.Since(view.TimeStart)
	view.ResponseTime = &elapsed
	if resp != nil {
		status := resp.StatusCode
		view.Status = &status
	}

	event := t.log.Debug().
		Str("method", view.Method).
		Str("path", view.Path).
		Dur("elapsed", elapsed)
	if view.Status != nil {
		event = event.Int("status", *view.Status)
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("vault request")

	if endErr := t.onRequestEnded.Notify(RequestEndedEvent{Sender: t, RequestView: view, Err: err}); endErr != nil && err == nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, endErr
	}
	return resp, err
}
