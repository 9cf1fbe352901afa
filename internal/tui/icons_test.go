package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIconsAreUnstyledWhenNotColorized(t *testing.T) {
	assert.Equal(t, "✅", SuccessIcon(false))
	assert.Equal(t, "❌", ErrorIcon(false))
	assert.Equal(t, "⚠", WarningIcon(false))
}

func TestIconsAreStyledWhenColorized(t *testing.T) {
	assert.Equal(t, SuccessStyle.Render("✅"), SuccessIcon(true))
	assert.Equal(t, ErrorStyle.Render("❌"), ErrorIcon(true))
	assert.Equal(t, WarningStyle.Render("⚠"), WarningIcon(true))
}

func TestStateIcon(t *testing.T) {
	assert.Equal(t, "✅", StateIcon(true, false))
	assert.Equal(t, "❌", StateIcon(false, false))
}
