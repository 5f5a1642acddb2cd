package components

import (
	tea "charm.land/bubbletea/v2"
)

// MenuItem is one entry of a Menu. Disabled items are skipped by the cursor
// and cannot be activated.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu tracks the cursor over a vertical list of actions. Rendering is left
// to the screen that owns it.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu places the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// Update moves the cursor with arrows or j/k and runs the item's action on
// enter. Digits 1-9 jump straight to an item and run it.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter":
		return m, m.activate(m.Selected)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if m.enabled(i) {
				m.Selected = i
				return m, m.activate(i)
			}
		}
	}
	return m, nil
}

// move steps the cursor to the next enabled item in direction dir, staying
// put at either end.
func (m *Menu) move(dir int) {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) enabled(i int) bool {
	return i >= 0 && i < len(m.Items) && !m.Items[i].Disabled
}

func (m Menu) activate(i int) tea.Cmd {
	if !m.enabled(i) || m.Items[i].Action == nil {
		return nil
	}
	return m.Items[i].Action()
}
