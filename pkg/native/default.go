//go:build !libcec

package native

// Default returns the platform CEC driver. Without the libcec build
// tag there is none; tests substitute their own Driver and the cmd
// tools report the error.
func Default() (Driver, error) {
	return nil, ErrDriverUnavailable
}
