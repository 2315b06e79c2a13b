package dedupe

// Option configures NewInMemoryDeduper.
type Option func(*window)

// WithMaxSize bounds how many keys are remembered. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(w *window) {
		w.maxSize = maxSize
	}
}
