package driven

import "fmt"

// MigrationError reports a schema that could not be brought current. It is
// fatal to startup.
type MigrationError struct {
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s: %v", e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
