package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-shellwords"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

type focus int

const (
	focusDevices focus = iota
	focusFolders
	focusInput
)

type folderEntry struct {
	path  string
	size  int64
	sized bool
}

type devicesMsg struct {
	devices []domain.ExternalDevice
	err     error
}

type folderSizedMsg struct {
	path string
	size int64
	err  error
}

// Model is the configuration form: pick one device, add up to
// domain.MaxFolders folders, save.
type Model struct {
	ctx     context.Context
	lister  domain.DeviceLister
	fsm     domain.FileSystemManager
	styles  *Styles
	focus   focus
	devices []domain.ExternalDevice
	cursor  int

	// device is the chosen device name; it may name a device not mounted yet.
	device       string
	folders      []folderEntry
	folderCursor int
	input        string
	status       string
	statusErr    bool

	outcome domain.UIOutcome
	result  *domain.AgentConfiguration
}

// NewModel creates the form, pre-filled from existing when it is not nil.
func NewModel(ctx context.Context, lister domain.DeviceLister, fsm domain.FileSystemManager, existing *domain.AgentConfiguration) Model {
	m := Model{
		ctx:     ctx,
		lister:  lister,
		fsm:     fsm,
		styles:  DefaultStyles(),
		outcome: domain.UICancelled,
	}
	if existing != nil {
		m.device = existing.DeviceName
		for _, p := range existing.FolderPaths {
			m.folders = append(m.folders, folderEntry{path: p})
		}
	}
	return m
}

// Outcome returns how the form was closed and, when saved, the configuration.
func (m Model) Outcome() (domain.UIOutcome, *domain.AgentConfiguration) {
	return m.outcome, m.result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadDevices()}
	for _, f := range m.folders {
		cmds = append(cmds, m.sizeFolder(f.path))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesMsg:
		if msg.err != nil {
			m.setError("cannot list devices: %v", msg.err)
			return m, nil
		}
		m.devices = msg.devices
		m.cursor = 0
		for i, d := range m.devices {
			if d.Name == m.device {
				m.cursor = i
			}
		}
		return m, nil

	case folderSizedMsg:
		for i := range m.folders {
			if m.folders[i].path != msg.path {
				continue
			}
			if msg.err != nil {
				m.setError("cannot read %s: %v", msg.path, msg.err)
				m.folders = append(m.folders[:i], m.folders[i+1:]...)
				m.clampFolderCursor()
			} else {
				m.folders[i].size = msg.size
				m.folders[i].sized = true
			}
			break
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab":
		if m.focus == focusDevices && len(m.folders) > 0 {
			m.focus = focusFolders
		} else {
			m.focus = focusDevices
		}
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		if m.focus == focusDevices && len(m.devices) > 0 {
			m.device = m.devices[m.cursor].Name
			m.setInfo("backups will go to %s", m.device)
		}
	case "a":
		if len(m.folders) >= domain.MaxFolders {
			m.setError("at most %d folders", domain.MaxFolders)
			break
		}
		m.focus = focusInput
		m.input = ""
	case "d", "x", "backspace":
		if m.focus == focusFolders && len(m.folders) > 0 {
			removed := m.folders[m.folderCursor].path
			m.folders = append(m.folders[:m.folderCursor], m.folders[m.folderCursor+1:]...)
			m.clampFolderCursor()
			if len(m.folders) == 0 {
				m.focus = focusDevices
			}
			m.setInfo("removed %s", removed)
		}
	case "r":
		return m, m.loadDevices()
	case "s":
		return m.save()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusDevices
		m.input = ""
	case tea.KeyEnter:
		m.focus = focusDevices
		cmd := m.addFolders(m.input)
		m.input = ""
		return m, cmd
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// addFolders parses one input line that may carry several quoted paths.
func (m *Model) addFolders(line string) tea.Cmd {
	paths, err := shellwords.Parse(line)
	if err != nil {
		m.setError("cannot parse %q: %v", line, err)
		return nil
	}

	var cmds []tea.Cmd
	for _, raw := range paths {
		if len(m.folders) >= domain.MaxFolders {
			m.setError("at most %d folders; ignored %s", domain.MaxFolders, raw)
			break
		}
		path := m.fsm.ExpandHome(raw)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !m.fsm.Exists(path) {
			m.setError("%s does not exist", path)
			continue
		}
		if m.hasFolder(path) {
			m.setError("%s is already selected", path)
			continue
		}
		m.folders = append(m.folders, folderEntry{path: path})
		m.setInfo("added %s", path)
		cmds = append(cmds, m.sizeFolder(path))
	}
	return tea.Batch(cmds...)
}

func (m Model) save() (tea.Model, tea.Cmd) {
	cfg := &domain.AgentConfiguration{DeviceName: m.device}
	for _, f := range m.folders {
		cfg.FolderPaths = append(cfg.FolderPaths, f.path)
	}
	if err := cfg.Validate(); err != nil {
		m.setError("%v", err)
		return m, nil
	}

	dev, ok := m.selectedDevice()
	if !ok {
		m.setError("device %s is not mounted", m.device)
		return m, nil
	}
	needed, ok := m.totalSize()
	if !ok {
		m.setError("still measuring folders, try again")
		return m, nil
	}
	if uint64(needed) >= dev.FreeBytes {
		m.setError("%s has %s free but the folders need %s",
			dev.Name, humanize.IBytes(dev.FreeBytes), humanize.IBytes(uint64(needed)))
		return m, nil
	}

	m.outcome = domain.UICompleted
	m.result = cfg
	return m, tea.Quit
}

func (m *Model) move(delta int) {
	if m.focus == focusFolders {
		m.folderCursor += delta
		m.clampFolderCursor()
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.devices) {
		m.cursor = max(len(m.devices)-1, 0)
	}
}

func (m *Model) clampFolderCursor() {
	if m.folderCursor >= len(m.folders) {
		m.folderCursor = len(m.folders) - 1
	}
	if m.folderCursor < 0 {
		m.folderCursor = 0
	}
}

func (m Model) hasFolder(path string) bool {
	for _, f := range m.folders {
		if f.path == path {
			return true
		}
	}
	return false
}

func (m Model) selectedDevice() (domain.ExternalDevice, bool) {
	for _, d := range m.devices {
		if d.Name == m.device {
			return d, true
		}
	}
	return domain.ExternalDevice{}, false
}

// totalSize is false until every folder has been measured.
func (m Model) totalSize() (int64, bool) {
	var total int64
	for _, f := range m.folders {
		if !f.sized {
			return 0, false
		}
		total += f.size
	}
	return total, true
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

func (m *Model) setInfo(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m Model) loadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.lister.List(m.ctx)
		return devicesMsg{devices: devices, err: err}
	}
}

func (m Model) sizeFolder(path string) tea.Cmd {
	return func() tea.Msg {
		size, err := m.fsm.DirSize(path)
		return folderSizedMsg{path: path, size: size, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("eb-agent backup configuration"))
	b.WriteString("\n")

	b.WriteString(s.Section.Render("Device"))
	b.WriteString("\n")
	if len(m.devices) == 0 {
		b.WriteString(s.Dimmed.Render("  no external devices mounted (r to refresh)"))
		b.WriteString("\n")
	}
	for i, d := range m.devices {
		line := fmt.Sprintf("%s  %s free of %s", d.Name, humanize.IBytes(d.FreeBytes), humanize.IBytes(d.TotalBytes))
		b.WriteString(m.row(m.focus == focusDevices && i == m.cursor, d.Name == m.device, line))
	}
	if m.device != "" {
		if _, ok := m.selectedDevice(); !ok && len(m.devices) > 0 {
			b.WriteString(s.Dimmed.Render(fmt.Sprintf("  %s (not mounted)", m.device)))
			b.WriteString("\n")
		}
	}

	b.WriteString(s.Section.Render(fmt.Sprintf("Folders (%d/%d)", len(m.folders), domain.MaxFolders)))
	b.WriteString("\n")
	if len(m.folders) == 0 {
		b.WriteString(s.Dimmed.Render("  none yet (a to add)"))
		b.WriteString("\n")
	}
	for i, f := range m.folders {
		size := "measuring..."
		if f.sized {
			size = humanize.IBytes(uint64(f.size))
		}
		b.WriteString(m.row(m.focus == focusFolders && i == m.folderCursor, false, fmt.Sprintf("%s  %s", f.path, size)))
	}
	if total, ok := m.totalSize(); ok && len(m.folders) > 0 {
		b.WriteString(s.Dimmed.Render("  total " + humanize.IBytes(uint64(total))))
		b.WriteString("\n")
	}

	if m.focus == focusInput {
		b.WriteString("\n")
		b.WriteString(s.Input.Render("path(s): " + m.input + "_"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(s.Error.Render(m.status))
		} else {
			b.WriteString(s.OK.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Dimmed.Render(m.help()))
	return s.Panel.Render(b.String())
}

func (m Model) row(cursor, selected bool, text string) string {
	s := m.styles
	prefix := "  "
	if cursor {
		prefix = s.Cursor.Render("> ")
	}
	if selected {
		return prefix + s.Selected.Render(text+" *") + "\n"
	}
	return prefix + s.Normal.Render(text) + "\n"
}

func (m Model) help() string {
	if m.focus == focusInput {
		return "enter add  esc cancel  quote paths containing spaces"
	}
	return "up/down move  enter pick device  tab switch list  a add  d remove  r refresh  s save  q quit"
}

var errNotModel = errors.New("unexpected final model")
