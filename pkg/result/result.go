package result

// Result is a tagged outcome value used between the application layer and its
// callers instead of error returns for expected business conditions. Exactly
// one variant is populated per instance; infrastructure faults are converted
// into Failure before they cross the service boundary.

type Kind int

const (
	KindSuccess Kind = iota
	KindSuccessCreate
	KindFailure
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindSuccessCreate:
		return "success_create"
	case KindFailure:
		return "failure"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

type Result[T any] struct {
	kind    Kind
	value   T
	message string
}

func Success[T any](value T) Result[T] {
	return Result[T]{kind: KindSuccess, value: value}
}

// SuccessCreate marks a successful outcome that created a new record, so the
// transport layer can answer 201 instead of 200.
func SuccessCreate[T any](value T) Result[T] {
	return Result[T]{kind: KindSuccessCreate, value: value}
}

func Failure[T any](message string) Result[T] {
	return Result[T]{kind: KindFailure, message: message}
}

func NotFound[T any](message string) Result[T] {
	return Result[T]{kind: KindNotFound, message: message}
}

func (r Result[T]) Kind() Kind { return r.kind }

// OK reports whether the result carries a value (Success or SuccessCreate).
func (r Result[T]) OK() bool {
	return r.kind == KindSuccess || r.kind == KindSuccessCreate
}

func (r Result[T]) Value() T { return r.value }

func (r Result[T]) Message() string { return r.message }

// Unwrap returns the success value together with the error message in one
// step. On success the message is empty; otherwise the value is the zero
// value for T.
func (r Result[T]) Unwrap() (T, string) {
	if r.OK() {
		return r.value, ""
	}
	var zero T
	return zero, r.message
}

// Match invokes onSuccess with the payload for Success/SuccessCreate and
// onFailure with the message for Failure/NotFound. Nil handlers are skipped.
func (r Result[T]) Match(onSuccess func(T), onFailure func(string)) {
	if r.OK() {
		if onSuccess != nil {
			onSuccess(r.value)
		}
		return
	}
	if onFailure != nil {
		onFailure(r.message)
	}
}
