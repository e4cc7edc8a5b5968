package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

type styles struct {
	renderer *lipgloss.Renderer
	title    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	fault    lipgloss.Style
	border   lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		renderer: r,
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		fault:    r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("9")),
		border:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (st styles) table(headers []string, rows [][]string, faultCol int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			if col == faultCol && row >= 0 && row < len(rows) && strings.HasPrefix(rows[row][col], "!") {
				return st.fault
			}
			return st.cell
		})
}

// Render writes every component and multimethod of s as tables.
func Render(w io.Writer, s *Snapshot, color bool) error {
	st := newStyles(w, color)
	for _, comp := range s.Components {
		rows := make([][]string, len(comp.Nodes))
		for i, n := range comp.Nodes {
			rows[i] = []string{strconv.Itoa(i), n.Class, strings.Join(n.Bases, ", "), n.Mask, formatInts(n.Slots)}
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", st.title.Render("component "+comp.Root),
			st.table([]string{"#", "class", "bases", "mask", "slots"}, rows, -1).Render()); err != nil {
			return err
		}
	}
	for _, m := range s.Methods {
		if err := renderMethod(w, st, m); err != nil {
			return err
		}
	}
	return nil
}

func renderMethod(w io.Writer, st styles, m Method) error {
	title := fmt.Sprintf("%s(%s)", m.Name, strings.Join(m.Params, ", "))
	if _, err := fmt.Fprintln(w, st.title.Render(title)); err != nil {
		return err
	}

	rows := make([][]string, len(m.Specializations))
	for i, s := range m.Specializations {
		rows[i] = []string{strconv.Itoa(i), s.Label, strings.Join(s.Classes, ", ")}
	}
	if _, err := fmt.Fprintln(w, st.table([]string{"#", "specialization", "classes"}, rows, -1).Render()); err != nil {
		return err
	}

	for i, pos := range m.Positions {
		rows := make([][]string, len(pos.Groups))
		for j, g := range pos.Groups {
			rows[j] = []string{strconv.Itoa(g.Index), strings.Join(g.Classes, ", "), strings.Join(g.Applicable, ", ")}
		}
		header := fmt.Sprintf("position %d: %s, slot %d", i, pos.Class, pos.Slot)
		if _, err := fmt.Fprintf(w, "%s\n%s\n", header,
			st.table([]string{"group", "classes", "applicable"}, rows, -1).Render()); err != nil {
			return err
		}
	}

	if len(m.Cells) > 0 {
		headers := []string{"offset"}
		for i := range m.Positions {
			headers = append(headers, fmt.Sprintf("arg %d", i))
		}
		headers = append(headers, "result", "next chain")
		resultCol := len(headers) - 2
		rows := make([][]string, len(m.Cells))
		for i, c := range m.Cells {
			row := []string{strconv.Itoa(i)}
			row = append(row, c.Groups...)
			row = append(row, CellResult(c), strings.Join(c.Chain, " > "))
			rows[i] = row
		}
		if _, err := fmt.Fprintln(w, st.table(headers, rows, resultCol).Render()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// CellResult is the winner label, or the fault prefixed with "!".
func CellResult(c Cell) string {
	if c.Fault != "" {
		return "!" + c.Fault
	}
	return c.Winner
}

// WriteYAML encodes s as YAML.
func WriteYAML(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

func formatInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
