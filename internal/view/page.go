package view

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

type Menu struct {
	SignedIn bool
	IsAdmin  bool
	Email    string
	UserID   string
}

type Flash struct {
	Text  string
	Level string
}

// Page is the data of every full page template.
type Page struct {
	Title  string
	Menu   Menu
	Flash  Flash
	Values map[string]string
	// Redirect is followed by the browser two seconds after rendering.
	Redirect string
}

func NewPage(title string, menu Menu) *Page {
	return &Page{Title: title, Menu: menu, Values: map[string]string{}}
}

func (p *Page) WithFlash(level, text string) *Page {
	p.Flash = Flash{Text: text, Level: level}
	return p
}
