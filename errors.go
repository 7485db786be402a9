package autobind

import "errors"

var (
	// ErrNilType is returned when a generator is asked to bind a nil type.
	ErrNilType = errors.New("autobind: nil type")
	// ErrNilBindingRoot is returned when no binding root is supplied.
	ErrNilBindingRoot = errors.New("autobind: nil binding root")
	// ErrNilGenerator is returned by BindWith for a nil generator.
	ErrNilGenerator = errors.New("autobind: nil binding generator")
	// ErrNilAction is returned when a nil configuration action is attached.
	ErrNilAction = errors.New("autobind: nil configuration action")
	// ErrNilFinder is returned when modules are looked up without a finder.
	ErrNilFinder = errors.New("autobind: nil module finder")
)
