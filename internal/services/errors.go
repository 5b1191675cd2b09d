package services

import (
	"errors"
	"fmt"
)

var (
	ErrRootInaccessible = errors.New("root path inaccessible")
	ErrNotDirectory     = errors.New("not a directory")
	ErrUnknownFormat    = errors.New("unrecognized export format")
)

// RootError is returned when the scan root cannot be read. It is the only
// filesystem failure that aborts a scan.
type RootError struct {
	Path string
	Err  error
}

func (err *RootError) Error() string {
	return fmt.Sprintf("%s: %v", err.Path, err.Err)
}

func (err *RootError) Unwrap() error {
	return err.Err
}

func (err *RootError) Is(target error) bool {
	return target == ErrRootInaccessible
}
