// Package app defines the contract between command line options and the
// application bootstrapper.
package app

import "github.com/kart-io/rag-assistant/pkg/app/cliflag"

// CliOptions is implemented by the options struct of every command.
type CliOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete completes the options with defaults.
	Complete() error
	// Validate validates the options.
	Validate() error
}
