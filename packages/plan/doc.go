// Package plan loads action, chain and bulk documents from YAML or JSON and
// validates them against embedded JSON schemas before they are turned into
// executable values.
//
// A document declares its kind with a top-level "kind" field. Without one the
// kind is inferred from which of "actions", "requests" or "tests" is present.
package plan
