package state

import _ "embed"

// Template is the compose file written to <root>/run on first use.
// Image tag and ports are left to variable substitution by the compose engine.
//
//go:embed compose.yaml
var Template []byte
