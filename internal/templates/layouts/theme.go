package layouts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

const (
	darkText  = "#111827"
	lightText = "#ffffff"
)

// Theme holds the board's group colours.
type Theme struct {
	TeamAColor   string
	TeamBColor   string
	ReserveColor string
	AccentColor  string
}

func DefaultTheme() Theme {
	return Theme{
		TeamAColor:   "#1d4ed8",
		TeamBColor:   "#dc2626",
		ReserveColor: "#6b7280",
		AccentColor:  "#16a34a",
	}
}

func IsHexColor(value string) bool {
	return hexColorPattern.MatchString(value)
}

// ContrastText picks dark or light text for a background colour using its
// CIE L* lightness. Unparseable colours get dark text.
func ContrastText(background string) string {
	c, err := colorful.Hex(expandShortHex(background))
	if err != nil {
		return darkText
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return darkText
	}
	return lightText
}

func expandShortHex(value string) string {
	if len(value) != 4 || value[0] != '#' {
		return value
	}
	return string([]byte{'#', value[1], value[1], value[2], value[2], value[3], value[3]})
}

func getThemeCssVars(theme *Theme) string {
	defaultTheme := DefaultTheme()
	teamA := defaultTheme.TeamAColor
	teamB := defaultTheme.TeamBColor
	reserve := defaultTheme.ReserveColor
	accent := defaultTheme.AccentColor

	if theme != nil {
		teamA = themeColorOrDefault(theme.TeamAColor, teamA)
		teamB = themeColorOrDefault(theme.TeamBColor, teamB)
		reserve = themeColorOrDefault(theme.ReserveColor, reserve)
		accent = themeColorOrDefault(theme.AccentColor, accent)
	}

	return fmt.Sprintf(
		":root{--team-a:%s;--team-a-text:%s;--team-b:%s;--team-b-text:%s;--reserve:%s;--reserve-text:%s;--accent:%s;}",
		teamA, ContrastText(teamA),
		teamB, ContrastText(teamB),
		reserve, ContrastText(reserve),
		accent,
	)
}

func themeColorOrDefault(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	if !IsHexColor(trimmed) {
		return fallback
	}
	return trimmed
}
