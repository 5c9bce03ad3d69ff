package main

import (
	"fmt"
	"strings"

	"sunclock/internal/solar"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorDay   = lipgloss.Color("#DEB841")
	colorNight = lipgloss.Color("#7D8491")

	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14)
	valueStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderReport draws the report as a bordered card, gold by day and grey
// by night.
func renderReport(r *solar.Report) string {
	accent := colorNight
	state := "night"
	if r.IsDay {
		accent = colorDay
		state = "day"
	}

	title := titleStyle.Foreground(accent).Render(
		fmt.Sprintf("%.4f, %.4f  %s", r.Latitude, r.Longitude, r.Date))

	rows := []struct{ label, value string }{
		{strings.ToUpper(r.SunriseLabel()[:1]) + r.SunriseLabel()[1:], solar.FormatTime(r.NextSunrise)},
		{"Sunset", solar.FormatTime(r.Sunset)},
		{"Day length", r.DayLength},
		{"Now", fmt.Sprintf("%s (%s)", solar.FormatTime(r.Now), state)},
	}

	lines := []string{title, ""}
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row.label)+valueStyle.Render(row.value))
	}
	lines = append(lines, "", valueStyle.Foreground(accent).Render(r.TimeToChange))
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("zenith %.6g°, %s", r.Zenith, solar.Zone(r.UTCOffset))))

	return boxStyle.BorderForeground(accent).Render(strings.Join(lines, "\n"))
}
