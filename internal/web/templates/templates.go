// Package templates embeds the HTML templates served by the web package.
package templates

import "embed"

//go:embed base.html pages partials
var FS embed.FS
