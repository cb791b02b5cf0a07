package vlm

// loadError is fatal: the process must not serve traffic without a loaded model.
type loadError struct{ msg string }

func (e loadError) Error() string { return e.msg }

// ErrLoad constructs a loadError.
func ErrLoad(msg string) error { return loadError{msg: msg} }

// IsLoadError reports whether err came from model loading.
func IsLoadError(err error) bool {
	_, ok := err.(loadError)
	return ok
}

// notLoadedError signals an inference attempt before a successful load, for
// 500 mapping at the HTTP layer.
type notLoadedError struct{}

func (notLoadedError) Error() string { return "model not loaded" }

// ErrNotLoaded returns the not-loaded sentinel.
func ErrNotLoaded() error { return notLoadedError{} }

// IsNotLoaded reports whether err indicates the model has not been loaded.
func IsNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}
