package http

import "embed"

// staticFiles stores console UI assets directly in the binary.
//
//go:embed static
var staticFiles embed.FS
