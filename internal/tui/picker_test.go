package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/meza/entwine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPress(name string) tea.KeyMsg {
	switch name {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}

func catalogFixture() []models.CatalogMod {
	return []models.CatalogMod{
		{ID: "hats", Name: "Hat Pack", Version: "1.0.0", Author: "milo", Description: "Hats\nfor everyone"},
		{ID: "speed", Name: "Speedrun Timer", Version: "2.1.0", Author: "abstractmelon", Description: "Timer"},
	}
}

func TestPickerSelectsHighlightedMod(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	var model tea.Model = NewPickerModel(catalogFixture(), nil, HeaderConfig{App: "entwine", Version: "1.0.0"})

	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, _ = model.Update(keyPress("down"))
	model, cmd := model.Update(keyPress("enter"))

	assert.True(t, isQuit(t, cmd))
	mod, ok := model.(PickerModel).Selected()
	require.True(t, ok)
	assert.Equal(t, "speed", mod.ID)
	assert.Empty(t, model.View())
}

func TestPickerQuitWithoutSelection(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	var model tea.Model = NewPickerModel(catalogFixture(), nil, HeaderConfig{App: "entwine", Version: "1.0.0"})

	model, cmd := model.Update(keyPress("q"))

	assert.True(t, isQuit(t, cmd))
	_, ok := model.(PickerModel).Selected()
	assert.False(t, ok)
}

func TestPickerEnterOnEmptyCatalogDoesNothing(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	var model tea.Model = NewPickerModel(nil, nil, HeaderConfig{App: "entwine", Version: "1.0.0"})

	model, _ = model.Update(keyPress("enter"))

	_, ok := model.(PickerModel).Selected()
	assert.False(t, ok)
}

func TestModItemFilterValueAndFirstLine(t *testing.T) {
	item := ModItem{Mod: catalogFixture()[0]}
	assert.Equal(t, "Hat Pack milo", item.FilterValue())
	assert.Equal(t, "Hats", firstLine(item.Mod.Description))
	assert.Equal(t, "", firstLine("  "))
}

func TestClipTruncatesToWidth(t *testing.T) {
	assert.Equal(t, "Adds hats…", clip("Adds hats to every spider", 10))
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "unsized list", clip("unsized list", 0))
}

func TestPickerRendersCatalogAndInstalledMarker(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	model := NewPickerModel(catalogFixture(), map[string]bool{"hats": true}, HeaderConfig{App: "entwine", Version: "1.0.0"})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(output []byte) bool {
		return bytes.Contains(output, []byte("Speedrun Timer")) && bytes.Contains(output, []byte(SuccessIcon(false)))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyPress("enter"))
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(PickerModel)
	require.True(t, ok)
	mod, chosen := final.Selected()
	assert.True(t, chosen)
	assert.Equal(t, "hats", mod.ID)
}
