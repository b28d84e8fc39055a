// Package appfs embeds static assets needed at runtime: database migrations
// and seed fixtures.
package appfs

import "embed"

//go:embed migrations fixtures
var FS embed.FS
