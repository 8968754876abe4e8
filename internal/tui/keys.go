package tui

// Keybinding constants
const (
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyQuit     = "q"
	KeyCtrlC    = "ctrl+c"
	KeyUp       = "up"
	KeyDown     = "down"
	KeyJ        = "j"
	KeyK        = "k"
	KeyApprove  = "a"
	KeyReject   = "r"
	KeyFeedback = "f"
	KeyEnter    = "enter"
	KeyEsc      = "esc"
)

// HelpView returns a one-line help bar for the given mode.
func HelpView(mode Mode) string {
	switch mode {
	case ModeReview:
		return StyleHelp.Render("a: approve | r: reject | f: feedback | Tab: cycle focus | j/k: scroll | q: quit")
	case ModeFeedback:
		return StyleHelp.Render("Enter: send feedback | Esc: back to review")
	case ModeDone:
		return StyleHelp.Render("q: quit")
	default:
		return StyleHelp.Render("Tab: cycle focus | j/k: scroll | ctrl+c: abort")
	}
}
