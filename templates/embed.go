package templates

import "embed"

// EmailFS contains the HTML mail templates, one file per template name.
//
//go:embed email/*.html
var EmailFS embed.FS
