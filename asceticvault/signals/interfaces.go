package signals

// Observer receives events. A returned error is reported to the notifier
// and does not stop delivery to later observers.
type Observer[E any] func(event E) error

// Detach removes the observer it was returned for.
type Detach func()

type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) Detach
	Detach(observer Observer[E], observerID ...any)
	Notify(event E) error
}
