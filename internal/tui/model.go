package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gestaozabele/cultura/internal/mapping"
)

const fetchTimeout = 30 * time.Second

// fetchedMsg carrega o resultado de uma busca junto do ticket que a iniciou.
type fetchedMsg struct {
	ticket mapping.Ticket
	data   mapping.Collections
	err    error
}

type focus int

const (
	focusTable focus = iota
	focusFilter
	focusCity
)

// Model é a tela de mapeamento: três abas com tabela, busca por aba e
// seleção de município.
type Model struct {
	ctx     context.Context
	browser *mapping.Browser

	tab    int
	focus  focus
	table  table.Model
	filter textinput.Model
	city   textinput.Model

	width  int
	height int
	styles Styles
}

// New cria o modelo. Com cityID vazio a tela abre pedindo o município.
func New(ctx context.Context, browser *mapping.Browser, cityID string) Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	fi := textinput.New()
	fi.Placeholder = "Buscar por nome ou e-mail..."
	fi.CharLimit = 80
	fi.Width = 40

	ci := textinput.New()
	ci.Placeholder = "Código IBGE do município"
	ci.CharLimit = 7
	ci.Width = 20
	ci.SetValue(strings.TrimSpace(cityID))

	m := Model{
		ctx:     ctx,
		browser: browser,
		table:   t,
		filter:  fi,
		city:    ci,
		styles:  DefaultStyles(),
	}
	if ci.Value() == "" {
		m.focus = focusCity
		m.city.Focus()
	}
	return m
}

func columns(width int) []table.Column {
	if width < 60 {
		width = 60
	}
	rest := width - 40
	return []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Nome", Width: rest / 2},
		{Title: "E-mail", Width: rest / 2},
		{Title: "Telefone", Width: 18},
	}
}

// Init dispara a primeira busca quando o município já veio informado.
func (m Model) Init() tea.Cmd {
	if m.city.Value() == "" {
		return textinput.Blink
	}
	return m.fetch(m.browser.Select(m.city.Value()))
}

func (m Model) fetch(t mapping.Ticket) tea.Cmd {
	if t.CityID == "" {
		return nil
	}
	browser, parent := m.browser, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		data, err := browser.Fetch(ctx, t)
		return fetchedMsg{ticket: t, data: data, err: err}
	}
}

func (m Model) category() mapping.Categoria {
	return mapping.Categorias[m.tab]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width - 4))
		if msg.Height > 12 {
			m.table.SetHeight(msg.Height - 12)
		}
		return m, nil

	case fetchedMsg:
		// resposta de município anterior ou de busca substituída é descartada
		m.browser.Commit(msg.ticket, msg.data, msg.err)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.focus {
		case focusCity:
			return m.updateCity(msg)
		case focusFilter:
			return m.updateFilter(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m Model) updateCity(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.focus = focusTable
		m.city.Blur()
		t := m.browser.Select(m.city.Value())
		m.refresh()
		return m, m.fetch(t)
	case tea.KeyEsc:
		if m.browser.CityID() != "" {
			m.city.SetValue(m.browser.CityID())
			m.focus = focusTable
			m.city.Blur()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.city, cmd = m.city.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.SetValue("")
		m.filter.Blur()
		m.focus = focusTable
		m.browser.SetSearch(m.category(), "")
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.filter.Blur()
		m.focus = focusTable
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	// filtro ao vivo, em memória
	m.browser.SetSearch(m.category(), m.filter.Value())
	m.refresh()
	return m, cmd
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.focus = focusFilter
		m.filter.Focus()
		return m, textinput.Blink
	case "c":
		m.focus = focusCity
		m.city.Focus()
		return m, textinput.Blink
	case "r":
		t := m.browser.Retry()
		m.refresh()
		return m, m.fetch(t)
	case "tab", "right", "l":
		m.switchTab((m.tab + 1) % len(mapping.Categorias))
		return m, nil
	case "shift+tab", "left", "h":
		m.switchTab((m.tab + len(mapping.Categorias) - 1) % len(mapping.Categorias))
		return m, nil
	case "1", "2", "3":
		m.switchTab(int(msg.String()[0] - '1'))
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(i int) {
	m.tab = i
	m.filter.SetValue(m.browser.Search(m.category()))
	m.refresh()
}

// refresh recalcula as linhas da aba atual.
func (m *Model) refresh() {
	view := m.browser.View(m.category())
	rows := make([]table.Row, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, table.Row{r.ID, r.Nome, r.Email, r.Telefone})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m Model) View() string {
	var sb strings.Builder

	city := m.browser.CityID()
	if city == "" {
		city = "nenhum município"
	}
	sb.WriteString(m.styles.Header.Render(" Mapeamento Cultural · "+city+" ") + "\n\n")

	if m.focus == focusCity {
		sb.WriteString("Município: " + m.city.View() + "\n")
		sb.WriteString(m.styles.Muted.Render("enter confirma · esc cancela") + "\n")
		return sb.String()
	}

	sb.WriteString(m.renderTabs() + "\n\n")

	filterStyle := m.styles.Filter
	if m.focus == focusFilter {
		filterStyle = m.styles.FilterOn
	}
	sb.WriteString(filterStyle.Render(m.filter.View()) + "\n\n")

	view := m.browser.View(m.category())
	switch view.State {
	case mapping.StateLoading:
		sb.WriteString(m.styles.Muted.Render("Carregando "+strings.ToLower(view.Title)+"...") + "\n")
	case mapping.StateError:
		sb.WriteString(m.styles.Error.Render(view.Error) + "\n")
		sb.WriteString(m.styles.Muted.Render("pressione r para tentar novamente") + "\n")
	default:
		if view.Message != "" {
			sb.WriteString(m.styles.Muted.Render(view.Message) + "\n")
		} else {
			sb.WriteString(m.styles.Content.Render(m.table.View()) + "\n")
		}
		if len(view.Rows) != view.Total {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Mostrando %d de %d", len(view.Rows), view.Total)) + "\n")
		}
	}

	sb.WriteString("\n" + m.styles.Muted.Render("tab aba · / buscar · c município · r recarregar · q sair"))
	return sb.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(mapping.Categorias))
	for i, cat := range mapping.Categorias {
		label := fmt.Sprintf("%d %s", i+1, cat.Title())
		if i == m.tab {
			tabs = append(tabs, m.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}
