package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableColumn describes one column. Cells wider than width, when set, are
// trimmed.
type tableColumn struct {
	title string
	align columnAlignment
	width int
}

func leftColumns(titles ...string) []tableColumn {
	cols := make([]tableColumn, len(titles))
	for i, t := range titles {
		cols[i] = tableColumn{title: t}
	}
	return cols
}

// renderTable renders rows under columns, padding short rows. A non-empty
// footer is rendered below the rows. Titles keep their case.
func renderTable(columns []tableColumn, rows [][]string, footer ...string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	configs := make([]table.ColumnConfig, len(columns))
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.align == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft, AlignFooter: align}
		if c.width > 0 {
			configs[i].WidthMax = c.width
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		tw.AppendRow(padRow(row, len(columns)))
	}
	if len(footer) > 0 {
		tw.AppendFooter(padRow(footer, len(columns)))
	}
	return tw.Render()
}

func padRow(cells []string, n int) table.Row {
	r := make(table.Row, n)
	for i := range r {
		r[i] = ""
		if i < len(cells) {
			r[i] = cells[i]
		}
	}
	return r
}

// fileSize renders the size of path, or "-" when it does not exist.
func fileSize(path string) string {
	if path == "" {
		return "-"
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter rewrites one status line on terminals and prints one line
// per stage change otherwise.
type progressPrinter struct {
	out   io.Writer
	tty   bool
	open  bool // status line awaiting a newline
	stage string
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, tty: isTerminal(out)}
}

func (p *progressPrinter) update(stage string, percent int, message string) {
	if p.tty {
		fmt.Fprintf(p.out, "\r\033[K[%3d%%] %s: %s", percent, stage, message)
		p.open = true
		if percent >= 100 {
			p.finish()
		}
		return
	}
	if stage != p.stage || percent >= 100 {
		fmt.Fprintf(p.out, "[%3d%%] %s: %s\n", percent, stage, message)
	}
	p.stage = stage
}

// finish terminates a pending status line.
func (p *progressPrinter) finish() {
	if p.open {
		fmt.Fprintln(p.out)
		p.open = false
	}
}
