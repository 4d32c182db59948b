package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isv-promotor/stockreview/internal/app"
	_ "github.com/isv-promotor/stockreview/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
