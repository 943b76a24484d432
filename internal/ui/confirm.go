package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AgreePhrase must be typed to confirm a destructive operation
const AgreePhrase = "I AGREE"

// Confirmation describes a destructive operation to confirm
type Confirmation struct {
	Title      string
	Warnings   []string
	Disclaimer string
}

// Confirm shows the warning box on out and reads one line from in.
// It returns true only if the line is exactly AgreePhrase.
func Confirm(in io.Reader, out io.Writer, c Confirmation) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)), ""}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, w := range c.Warnings {
		lines = append(lines, bullet.Render("   • "+w))
	}
	lines = append(lines, "")

	if c.Disclaimer != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width-12).
			PaddingLeft(3).
			Render(c.Disclaimer), "")
	}

	_, _ = fmt.Fprintln(out, boxStyle(WarningColor, width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", AgreePhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == AgreePhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}

// ProvisionConfirmation warns that the device password and settings will be replaced
func ProvisionConfirmation(address string) Confirmation {
	return Confirmation{
		Title: "DEVICE PROVISIONING",
		Warnings: []string{
			"The admin password of the device at " + address + " will be set",
			"All device settings will be replaced by the settings file",
			"The device restarts after the import",
			"A run that stops part way can leave the password changed but the settings not imported",
		},
		Disclaimer: "DISCLAIMER: This software is provided as-is, without warranty of any kind. " +
			"Only the FRITZ!Box 3490 with FRITZ!OS 6 has been verified.",
	}
}
