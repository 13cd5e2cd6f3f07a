// Package cmd implements the hitflow CLI commands using Cobra.
//
// Available commands:
//   - run: Execute action plans against a device through the automation backend
//   - chain: Execute a dependency-ordered request chain
//   - bulk: Execute a bulk suite sequentially or in bounded parallel chunks
//   - validate: Check plan files against their schemas without executing
//   - history: List and inspect recorded runs
//   - version: Show hitflow version information
package cmd
