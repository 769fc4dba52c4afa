package builder

import "fmt"

// ConfigurationError is fatal: the roster cannot staff the configured
// sections, so no problem instance is produced.
type ConfigurationError struct {
	CourseCode string
	Department string
	Year       int
	Teachers   int
	Sections   int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("not enough teachers for course %v in %v year %v: %v teachers for %v sections",
		e.CourseCode, e.Department, e.Year, e.Teachers, e.Sections)
}
