package base

import "github.com/charmbracelet/lipgloss"

// ColorPalette is a consistent color scheme shared by the shell's editor,
// result table, and query highlighter. NodeAccent and RelAccent are split
// out from Primary/Secondary so a MATCH pattern's node and relationship
// tokens render in visibly distinct colors rather than sharing one
// generic "keyword" color.
type ColorPalette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Muted      lipgloss.Color
	NodeAccent lipgloss.Color
	RelAccent  lipgloss.Color
}

// DarkPalette is the default dark theme palette
var DarkPalette = ColorPalette{
	Primary:    lipgloss.Color("#7C3AED"), // Purple
	Secondary:  lipgloss.Color("#06B6D4"), // Cyan
	Accent:     lipgloss.Color("#10B981"), // Emerald
	Success:    lipgloss.Color("#10B981"), // Emerald
	Warning:    lipgloss.Color("#F59E0B"), // Amber
	Error:      lipgloss.Color("#EF4444"), // Red
	Muted:      lipgloss.Color("#94A3B8"), // Slate
	NodeAccent: lipgloss.Color("#FF79C6"), // Pink, node labels and patterns
	RelAccent:  lipgloss.Color("#8BE9FD"), // Sky, relationship labels and patterns
}

// LightPalette is an optional light theme palette
var LightPalette = ColorPalette{
	Primary:    lipgloss.Color("#5A56E0"), // Lighter Purple
	Secondary:  lipgloss.Color("#EE6FF8"), // Pink
	Accent:     lipgloss.Color("#02BA84"), // Green
	Success:    lipgloss.Color("#02BA84"), // Green
	Warning:    lipgloss.Color("#FF8C00"), // Orange
	Error:      lipgloss.Color("#FF5F56"), // Red
	Muted:      lipgloss.Color("#9B9B9B"), // Gray
	NodeAccent: lipgloss.Color("#D6409F"),
	RelAccent:  lipgloss.Color("#1CA3C9"),
}

// AdaptiveColor provides light/dark variants
type AdaptiveColor = lipgloss.AdaptiveColor

// Common adaptive colors used across the application
var (
	AdaptivePrimary = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Primary),
		Dark:  string(DarkPalette.Primary),
	}
	AdaptiveSecondary = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Secondary),
		Dark:  string(DarkPalette.Secondary),
	}
	AdaptiveSuccess = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Success),
		Dark:  string(DarkPalette.Success),
	}
	AdaptiveWarning = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Warning),
		Dark:  string(DarkPalette.Warning),
	}
	AdaptiveError = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Error),
		Dark:  string(DarkPalette.Error),
	}
	AdaptiveMuted = lipgloss.AdaptiveColor{
		Light: string(LightPalette.Muted),
		Dark:  string(DarkPalette.Muted),
	}
	AdaptiveNode = lipgloss.AdaptiveColor{
		Light: string(LightPalette.NodeAccent),
		Dark:  string(DarkPalette.NodeAccent),
	}
	AdaptiveRel = lipgloss.AdaptiveColor{
		Light: string(LightPalette.RelAccent),
		Dark:  string(DarkPalette.RelAccent),
	}
)
