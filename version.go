package cohort

import _ "embed"

// Version is the release of the cohort library and CLI.
//
//go:embed VERSION
var Version string
