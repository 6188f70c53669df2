package spacetraveling

import "embed"

// EmbeddedAssets contains the stylesheet and logo shipped with the site.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
