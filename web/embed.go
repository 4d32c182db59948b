// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds static assets.
//
//go:embed static/**/*
var Static embed.FS

// PrintStylesheet returns the stylesheet used by the print view.
func PrintStylesheet() ([]byte, error) {
	return Static.ReadFile("static/css/print.css")
}
