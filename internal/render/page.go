package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"TradeLens/internal/model"
	"TradeLens/internal/trades"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	pageTemplate   = template.Must(template.ParseFS(templateFS, "templates/page.html"))
	tradesTemplate = template.Must(template.ParseFS(templateFS, "templates/trades.html"))
)

// Page is the data behind a chart page.
type Page struct {
	Title  string
	Form   bool
	Inputs model.Inputs
	Error  string
	Charts []Mounted
}

// WritePage renders p as HTML. Chart options are emitted as JSON inside
// script blocks by html/template's JS context escaping.
func WritePage(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "TradeLens"
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// WriteIndex writes <dir>/index.html showing every chart on the board.
func (b *DirBoard) WriteIndex(title string) error {
	f, err := os.Create(filepath.Join(b.Dir, "index.html"))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := WritePage(f, Page{Title: title, Charts: b.Charts()}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// TradesPage lists imported trades with a link to each trade's charts.
type TradesPage struct {
	Title  string
	Error  string
	Orders []*trades.Order
}

// WriteTrades renders the upload form and p's trade table.
func WriteTrades(w io.Writer, p TradesPage) error {
	if p.Title == "" {
		p.Title = "Trades"
	}
	if err := tradesTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render trades: %w", err)
	}
	return nil
}
