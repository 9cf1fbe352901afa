package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/models"
)

const pickerHeaderHeight = 2

// ModItem is one catalog entry in the browser.
type ModItem struct {
	Mod       models.CatalogMod
	Installed bool
}

func (item ModItem) FilterValue() string {
	return item.Mod.Name + " " + item.Mod.Author
}

type modDelegate struct{}

func (d modDelegate) Height() int                             { return 2 }
func (d modDelegate) Spacing() int                            { return 0 }
func (d modDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d modDelegate) Render(w io.Writer, m list.Model, itemIndex int, listItem list.Item) {
	item, ok := listItem.(ModItem)
	if !ok {
		return
	}

	title := fmt.Sprintf("%s %s", item.Mod.Name, item.Mod.Version)
	if item.Mod.Author != "" {
		title += " · " + item.Mod.Author
	}
	if item.Installed {
		title += " " + SuccessIcon(false)
	}
	description := DescriptionStyle.Render("  " + clip(firstLine(item.Mod.Description), m.Width()-2))

	if itemIndex == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("❯ "+title)+"\n"+description)
		return
	}
	fmt.Fprint(w, ItemStyle.Render(title)+"\n"+description)
}

// clip shortens text to width cells. A non-positive width means the list has not been sized yet.
func clip(text string, width int) string {
	if width <= 0 {
		return text
	}
	return ansi.Truncate(text, width, "…")
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if index := strings.IndexAny(text, "\r\n"); index >= 0 {
		return text[:index]
	}
	return text
}

// PickerModel lets the user choose one catalog mod to install.
type PickerModel struct {
	list     list.Model
	header   HeaderConfig
	width    int
	selected *models.CatalogMod
}

func NewPickerModel(mods []models.CatalogMod, installedIDs map[string]bool, header HeaderConfig) PickerModel {
	items := make([]list.Item, 0, len(mods))
	for _, mod := range mods {
		items = append(items, ModItem{Mod: mod, Installed: installedIDs[mod.ID]})
	}

	listModel := list.New(items, modDelegate{}, 0, 14)
	listModel.Title = i18n.T("tui.browse.title")
	listModel.SetShowStatusBar(false)
	listModel.Styles.Title = TitleStyle
	listModel.Styles.TitleBar = TitleStyle
	listModel.Styles.PaginationStyle = PaginationStyle
	listModel.Styles.HelpStyle = HelpStyle
	listModel.KeyMap = ListKeyMap()
	listModel.AdditionalShortHelpKeys = pickerHelpKeys
	listModel.AdditionalFullHelpKeys = pickerHelpKeys
	listModel.SetStatusBarItemName(i18n.T("tui.browse.item_singular"), i18n.T("tui.browse.item_plural"))

	return PickerModel{list: listModel, header: header}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(msg.Width, max(msg.Height-pickerHeaderHeight, 1))
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() != list.Filtering && key.Matches(msg, Accept()) {
			if item, ok := m.list.SelectedItem().(ModItem); ok {
				mod := item.Mod
				m.selected = &mod
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	if m.selected != nil {
		return ""
	}
	return Header(m.header, m.width) + "\n\n" + m.list.View()
}

// Selected returns the chosen mod, or false when the user quit without choosing.
func (m PickerModel) Selected() (models.CatalogMod, bool) {
	if m.selected == nil {
		return models.CatalogMod{}, false
	}
	return *m.selected, true
}

// Pick runs the browser and returns the chosen mod.
func Pick(in io.Reader, out io.Writer, model PickerModel) (models.CatalogMod, bool, error) {
	final, err := tea.NewProgram(model, append(ProgramOptions(in, out), tea.WithAltScreen())...).Run()
	if err != nil {
		return models.CatalogMod{}, false, err
	}
	picker, ok := final.(PickerModel)
	if !ok {
		return models.CatalogMod{}, false, nil
	}
	mod, chosen := picker.Selected()
	return mod, chosen, nil
}
