package models

import "fmt"

// ExitStatus is returned once the init task has exited.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}
