package excel

import "fmt"

// Config specifies which worksheet to load records from.
type Config struct {
	FilePath  string
	SheetName string // defaults to the workbook's first sheet
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("file path is required")
	}
	return nil
}
