package utils

import (
	"fmt"
	"go/format"

	"golang.org/x/tools/imports"
)

// FormatGeneratedSource formats generated source and regroups its imports.
// Imports are only sorted and grouped, never added or removed.
func FormatGeneratedSource(filename string, source []byte) ([]byte, error) {
	formatted, err := format.Source(source)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", filename, err)
	}
	grouped, err := imports.Process(filename, formatted, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to group imports of %s: %w", filename, err)
	}
	return grouped, nil
}
