package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// focusInput переводит фокус на поле idx, снимая его с остальных.
func focusInput(inputs []textinput.Model, idx int) tea.Cmd {
	for i := range inputs {
		if i == idx {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
	return textinput.Blink
}

// blurInputs снимает фокус со всех полей.
func blurInputs(inputs []textinput.Model) {
	for i := range inputs {
		inputs[i].Blur()
	}
}

// resetInputs очищает поля и ставит фокус на первое.
func resetInputs(inputs []textinput.Model) tea.Cmd {
	for i := range inputs {
		inputs[i].Reset()
	}
	return focusInput(inputs, 0)
}

// handleFormKeys обрабатывает Tab, Shift+Tab, стрелки и Enter в полях формы.
// Возвращает модель, команду и флаг, указывающий, была ли клавиша обработана.
func (m *model) handleFormKeys(
	keyMsg tea.KeyMsg,
	inputs []textinput.Model,
	onSubmit func() (tea.Model, tea.Cmd),
) (tea.Model, tea.Cmd, bool) {
	n := len(inputs)
	switch keyMsg.String() {
	case keyTab, keyDown:
		m.focusedField = (m.focusedField + 1) % n
		return m, focusInput(inputs, m.focusedField), true
	case keyShiftTab, keyUp:
		m.focusedField = (m.focusedField + n - 1) % n
		return m, focusInput(inputs, m.focusedField), true
	case keyEnter:
		if m.focusedField < n-1 {
			m.focusedField++
			return m, focusInput(inputs, m.focusedField), true
		}
		model, cmd := onSubmit()
		return model, cmd, true
	default:
		return m, nil, false
	}
}

// handleFormInput обрабатывает ввод в полях формы,
// переключение фокуса между ними и действия по Enter/Esc.
func (m *model) handleFormInput(
	msg tea.Msg,
	inputs []textinput.Model,
	onSubmit func() (tea.Model, tea.Cmd),
	previousState screenState,
) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == keyEsc {
			m.state = previousState
			m.err = nil
			blurInputs(inputs)
			return m, tea.ClearScreen
		}
		if m.loading {
			return m, nil
		}
		newModel, keyCmd, handled := m.handleFormKeys(keyMsg, inputs, onSubmit)
		if handled {
			return newModel, keyCmd
		}
	}

	if m.focusedField < 0 || m.focusedField >= len(inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	inputs[m.focusedField], cmd = inputs[m.focusedField].Update(msg)
	return m, cmd
}

// viewForm отображает заголовок, поля формы, ошибку и подсказку.
func (m *model) viewForm(title, hint string, inputs []textinput.Model, extra string) string {
	s := titleStyle.Render(title) + "\n\n"
	for i := range inputs {
		s += inputs[i].View() + "\n"
	}
	if extra != "" {
		s += "\n" + extra + "\n"
	}
	if m.err != nil {
		s += "\n" + errorStyle.Render(m.err.Error()) + "\n"
	}
	if m.loading {
		s += "\n" + subtleStyle.Render("Запрос к серверу...") + "\n"
	}
	s += "\n" + subtleStyle.Render(hint)
	return s
}
