// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the dashboard frontend served at the root route.
//
//go:embed frontend
var Files embed.FS
