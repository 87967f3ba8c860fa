package core

import (
	"fmt"
)

// ConfigurationError reports a watch target that cannot be watched at all,
// most commonly because it does not exist.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("watch path %q: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
