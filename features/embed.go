// Package features embeds the HotelBooker feature files so the binary runs
// without a checkout.
package features

import "embed"

// FS holds every *.feature file of this directory.
//
//go:embed *.feature
var FS embed.FS
