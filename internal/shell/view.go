package shell

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("animatedimage"))
	b.WriteString("\n")
	b.WriteString(m.stateText())
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render(m.help()))
	b.WriteString("\n")

	return BoxStyle.Render(b.String())
}

func (m Model) stateText() string {
	switch m.State {
	case StateRunning:
		return m.spinner.View() + " " + StatusStyle.Render("Rendering video...")
	case StateReady:
		s := StatusStyle.Render("Video ready: ") + m.Result.OutputPath
		if m.Err != nil {
			s += "\n" + ErrorStyle.Render(m.Err.Error())
		}
		return s
	case StateConfirm:
		return PromptStyle.Render("Save video to the library? (y/n)")
	case StateSaving:
		return m.spinner.View() + " " + StatusStyle.Render("Saving...")
	case StateSaved:
		return StatusStyle.Render("Saved: ") + m.SavedTo
	case StateError:
		errMsg := "Unknown error"
		if m.Err != nil {
			errMsg = m.Err.Error()
		}
		return ErrorStyle.Render(fmt.Sprintf("Error: %s", errMsg))
	default:
		return ""
	}
}

func (m Model) help() string {
	switch m.State {
	case StateReady, StateSaved:
		return "s: save • r: render again • q: quit"
	case StateConfirm:
		return "y: save • n: cancel"
	case StateError:
		return "r: retry • q: quit"
	default:
		return "q: quit"
	}
}
