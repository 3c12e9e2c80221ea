package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorBad    = lipgloss.Color("167")
	colorCmd    = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

// Styles shared by the report, the tables and the interactive browser.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue   = lipgloss.NewStyle().Foreground(colorText)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorAccent)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorOK)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)
	// StyleDanger marks unbounded results and budget violations.
	StyleDanger = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
)

var (
	styleHeader  = lipgloss.NewStyle().Foreground(colorLabel).Bold(true)
	styleBorder  = lipgloss.NewStyle().Foreground(colorMuted)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)
	styleKey     = lipgloss.NewStyle().Foreground(colorLabel).Width(14)
)

// A marker prefixes a status line.
type marker struct {
	glyph string
	style lipgloss.Style
	body  *lipgloss.Style // nil leaves the message unstyled
}

var (
	markOK   = marker{"✓", StyleSuccess, nil}
	markFail = marker{"✗", lipgloss.NewStyle().Foreground(colorBad), &StyleDanger}
	markWarn = marker{"!", StyleWarning, &StyleWarning}
	markInfo = marker{"›", lipgloss.NewStyle().Foreground(colorLabel), nil}
)

func (m marker) println(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if m.body != nil {
		msg = m.body.Render(msg)
	}
	fmt.Fprintln(stdout, m.style.Render(m.glyph), msg)
}

func printSuccess(format string, args ...any) { markOK.println(format, args...) }
func printError(format string, args ...any)   { markFail.println(format, args...) }
func printWarning(format string, args ...any) { markWarn.println(format, args...) }
func printInfo(format string, args ...any)    { markInfo.println(format, args...) }

// printDetail prints a dimmed line under the previous status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, " ", StyleDim.Render(fmt.Sprintf(format, args...)))
}

const sectionWidth = 70

// printSection prints title centered between two rules of '='.
func printSection(title string) {
	rule := StyleDim.Render(strings.Repeat("=", sectionWidth))
	fmt.Fprintf(stdout, "\n%s\n%s\n%s\n", rule,
		lipgloss.PlaceHorizontal(sectionWidth, lipgloss.Center, StyleTitle.Render(title)), rule)
}

func printFile(path string) {
	fmt.Fprintln(stdout, " ", StyleDim.Render("→"), StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key), StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }
