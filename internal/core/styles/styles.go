// Package styles holds the viewer's theme palettes and the shared lipgloss
// styles derived from the active one.
package styles

import (
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style
	MutedStyle         lipgloss.Style

	// Transcript view.
	SpeakerStyle        lipgloss.Style
	UserSpeakerStyle    lipgloss.Style
	SystemSpeakerStyle  lipgloss.Style
	SelectedBorderStyle lipgloss.Style
	NormalBorderStyle   lipgloss.Style
	UnlockedBorderStyle lipgloss.Style

	// Swipe label, highlighted while on the original alternative.
	LabelStyle         lipgloss.Style
	LabelOriginalStyle lipgloss.Style
	TranslatedStyle    lipgloss.Style
	DegradedStyle      lipgloss.Style

	// Status bar and toasts.
	StatusBarStyle    lipgloss.Style
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
	ToastBorderStyle  lipgloss.Style
	HelpStyle         lipgloss.Style
	CopiedStyle       lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	SpeakerStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	UserSpeakerStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	SystemSpeakerStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)
	SelectedBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	NormalBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.HiddenBorder(), false, false, false, true).
		PaddingLeft(1)
	UnlockedBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Warning).
		PaddingLeft(1)

	LabelStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	LabelOriginalStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	TranslatedStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Italic(true)
	DegradedStyle = lipgloss.NewStyle().
		Foreground(p.Warning)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Background(p.Surface).
		Padding(0, 1)
	ToastBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	ToastInfoStyle = ToastBorderStyle.
		BorderForeground(p.Primary).
		Foreground(p.Foreground)
	ToastWarningStyle = ToastBorderStyle.
		BorderForeground(p.Warning).
		Foreground(p.Warning)
	ToastErrorStyle = ToastBorderStyle.
		BorderForeground(p.Error).
		Foreground(p.Error)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	CopiedStyle = lipgloss.NewStyle().
		Foreground(p.Success)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func colorHexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	cc, err := colorful.Hex(string(c))
	if err != nil {
		return nil
	}
	hex := cc.Hex()
	return &hex
}

// IsDark reports whether the active palette has a dark background.
func IsDark() bool {
	cc, err := colorful.Hex(string(CurrentPalette.Background))
	if err != nil {
		return true
	}
	l, _, _ := cc.Lab()
	return l < 0.5
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	if !IsDark() {
		cfg = glamourstyles.LightStyleConfig
	}

	p := CurrentPalette
	fg := colorHexPtr(p.Foreground)
	primary := colorHexPtr(p.Primary)
	secondary := colorHexPtr(p.Secondary)
	muted := colorHexPtr(p.Muted)
	surface := colorHexPtr(p.Surface)

	noMargin := uint(0)
	cfg.Document.Margin = &noMargin
	cfg.Document.Color = fg

	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	// roleplay text marks actions with *asterisks*
	cfg.Emph.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}
