package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/native-layout/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Padding(0, 1)

	padStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))
)

// row is one line of a layout dump: a field or a run of padding bytes.
type row struct {
	name   string
	typ    string
	offset uint64
	size   uint64
	align  uint64
	pad    bool
}

// rows lists the fields of s in offset order with interior and tail padding
// made explicit.
func rows(s *layout.Struct) []row {
	var out []row
	var end uint64
	for _, f := range s.Fields {
		if f.Offset > end {
			out = append(out, row{offset: end, size: f.Offset - end, pad: true})
		}
		out = append(out, row{
			name:   f.Name,
			typ:    f.Type.String(),
			offset: f.Offset,
			size:   f.Size,
			align:  f.Align,
		})
		end = f.End()
	}
	if s.Size > end {
		out = append(out, row{offset: end, size: s.Size - end, pad: true})
	}
	return out
}

func (r row) cells() []string {
	if r.pad {
		return []string{strconv.FormatUint(r.offset, 10), strconv.FormatUint(r.size, 10), "", "(padding)", ""}
	}
	return []string{
		strconv.FormatUint(r.offset, 10),
		strconv.FormatUint(r.size, 10),
		strconv.FormatUint(r.align, 10),
		r.name,
		r.typ,
	}
}

var columns = []string{"OFFSET", "SIZE", "ALIGN", "FIELD", "TYPE"}

func summary(s *layout.Struct) string {
	return fmt.Sprintf("size=%d align=%d platform=%s", s.Size, s.Align, s.Platform.Name)
}

func renderPlain(w io.Writer, s *layout.Struct) {
	fmt.Fprintf(w, "%s  %s\n", s.Name, summary(s))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", columns[0], columns[1], columns[2], columns[3], columns[4])
	for _, r := range rows(s) {
		c := r.cells()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c[0], c[1], c[2], c[3], c[4])
	}
	tw.Flush()
}

func renderStyled(s *layout.Struct, width int) string {
	rs := rows(s)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		StyleFunc(func(r, col int) lipgloss.Style {
			switch {
			case r == table.HeaderRow:
				return headerStyle
			case r >= 0 && r < len(rs) && rs[r].pad:
				return padStyle
			case col == 4:
				return typeStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rs {
		t.Row(r.cells()...)
	}
	out := t.Render()
	if width > 0 && lipgloss.Width(out) > width {
		out = t.Width(width).Render()
	}
	return titleStyle.Render(s.Name) + " " + summary(s) + "\n" + out
}
