package mines

import "fmt"

// ConfigurationError rejects board dimensions that would make mine
// placement impossible.
type ConfigurationError struct {
	Size, MineCount int
	message         string
}

// [ConfigurationError] implements [error]
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid board %dx%d with %d mines: %s",
		e.Size, e.Size, e.MineCount, e.message)
}
