// Package artifact rewrites generated SystemVerilog ROM sources. A template
// carries one hex-valued size parameter and a data block framed by two
// marker lines; everything else passes through untouched.
package artifact

import (
	"fmt"
	"iter"
	"strings"

	"github.com/anupcshan/romgen/wordenc"
	"github.com/pkg/errors"
)

var ErrTemplateStructure = errors.New("template structure error")

const WordsPerRow = 4

type Markers struct {
	// SizeParam restricts the size declaration to this parameter name.
	// Empty matches any parameter assigned a hex literal.
	SizeParam string `yaml:"size_param"`
	Begin     string `yaml:"begin"`
	End       string `yaml:"end"`
}

var DefaultMarkers = Markers{
	Begin: "// ROM_DATA_BEGIN",
	End:   "// ROM_DATA_END",
}

// sizeDecl locates the hex digits of a size declaration inside one line.
type sizeDecl struct {
	line       int
	name       string
	digitStart int
	digitEnd   int
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isHexByte(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F') || c == '_'
}

// parseSizeDecl recognizes
//
//	localparam [type] NAME = [width]'hDIGITS <; , ) or end of line>
//
// and the same with "parameter".
func parseSizeDecl(line string) (name string, start, end int, ok bool) {
	body := strings.TrimLeft(line, " \t")
	indent := len(line) - len(body)

	keyword := ""
	for _, kw := range []string{"localparam", "parameter"} {
		if strings.HasPrefix(body, kw) && len(body) > len(kw) && (body[len(kw)] == ' ' || body[len(kw)] == '\t') {
			keyword = kw
			break
		}
	}
	if keyword == "" {
		return "", 0, 0, false
	}

	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return "", 0, 0, false
	}
	lhs := strings.TrimRight(body[len(keyword):eq], " \t")
	i := len(lhs)
	for i > 0 && isIdentByte(lhs[i-1]) {
		i--
	}
	name = lhs[i:]
	if name == "" || i == 0 {
		return "", 0, 0, false
	}

	pos := eq + 1
	for pos < len(body) && (body[pos] == ' ' || body[pos] == '\t') {
		pos++
	}
	for pos < len(body) && '0' <= body[pos] && body[pos] <= '9' {
		pos++
	}
	if !strings.HasPrefix(body[pos:], "'h") && !strings.HasPrefix(body[pos:], "'H") {
		return "", 0, 0, false
	}
	start = pos + 2
	end = start
	for end < len(body) && isHexByte(body[end]) {
		end++
	}
	if end == start {
		return "", 0, 0, false
	}

	rest := strings.TrimLeft(body[end:], " \t\r\n")
	if rest != "" && rest[0] != ';' && rest[0] != ',' && rest[0] != ')' && !strings.HasPrefix(rest, "//") {
		return "", 0, 0, false
	}
	return name, indent + start, indent + end, true
}

// splitLines splits text after every '\n', keeping the terminators so the
// pieces concatenate back to the original.
func splitLines(text string) []string {
	return strings.SplitAfter(text, "\n")
}

func lineIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func lineEnding(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	}
	return ""
}

type layout struct {
	size  sizeDecl
	begin int
	end   int
}

func scan(lines []string, m Markers) (layout, error) {
	var l layout
	var decls []sizeDecl
	begins, ends := []int{}, []int{}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case m.Begin:
			begins = append(begins, i)
			continue
		case m.End:
			ends = append(ends, i)
			continue
		}
		name, start, end, ok := parseSizeDecl(line)
		if !ok || (m.SizeParam != "" && name != m.SizeParam) {
			continue
		}
		decls = append(decls, sizeDecl{line: i, name: name, digitStart: start, digitEnd: end})
	}

	switch {
	case len(begins) != 1:
		return l, errors.Wrapf(ErrTemplateStructure, "found %d %q markers, want 1", len(begins), m.Begin)
	case len(ends) != 1:
		return l, errors.Wrapf(ErrTemplateStructure, "found %d %q markers, want 1", len(ends), m.End)
	case begins[0] > ends[0]:
		return l, errors.Wrapf(ErrTemplateStructure, "%q marker precedes %q marker", m.End, m.Begin)
	}
	l.begin, l.end = begins[0], ends[0]

	var outside []sizeDecl
	for _, d := range decls {
		if d.line < l.begin || d.line > l.end {
			outside = append(outside, d)
		}
	}
	if len(outside) != 1 {
		what := "hex size declaration"
		if m.SizeParam != "" {
			what = fmt.Sprintf("hex declaration of %s", m.SizeParam)
		}
		return l, errors.Wrapf(ErrTemplateStructure, "found %d %s lines outside the data block, want 1", len(outside), what)
	}
	l.size = outside[0]
	return l, nil
}

// Patch returns template with the size declaration set to size and the data
// block replaced by words. The template is left as is on error.
func Patch(template []byte, size int64, words iter.Seq[wordenc.Word], m Markers) ([]byte, error) {
	if m.Begin == "" || m.End == "" {
		return nil, errors.Wrap(ErrTemplateStructure, "empty data markers")
	}
	lines := splitLines(string(template))
	l, err := scan(lines, m)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.Grow(len(template))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case i == l.size.line:
			sb.WriteString(line[:l.size.digitStart])
			fmt.Fprintf(&sb, "%04X", size)
			sb.WriteString(line[l.size.digitEnd:])
		case i == l.begin:
			sb.WriteString(line)
			eol := lineEnding(line)
			if eol == "" {
				eol = "\n"
			}
			sb.WriteString(RenderData(words, lineIndent(line), eol))
			i = l.end - 1
		default:
			sb.WriteString(line)
		}
	}
	return []byte(sb.String()), nil
}

func writeRow(sb *strings.Builder, row []wordenc.Word, first int, last bool, indent, eol string) {
	sb.WriteString(indent)
	for j, w := range row {
		if j > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(w.Literal())
	}
	if !last {
		sb.WriteByte(',')
	}
	fmt.Fprintf(sb, " // 0x%04X - 0x%04X%s", first, first+len(row)-1, eol)
}

// RenderData renders words as rows of WordsPerRow literals. Every row ends
// with a comment holding the word indexes it covers. An empty sequence
// renders a single zero word so the array is never empty.
func RenderData(words iter.Seq[wordenc.Word], indent, eol string) string {
	var sb strings.Builder
	var row []wordenc.Word
	first := 0
	for w := range words {
		if len(row) == WordsPerRow {
			writeRow(&sb, row, first, false, indent, eol)
			first += len(row)
			row = row[:0]
		}
		row = append(row, w)
	}
	if len(row) == 0 {
		row = append(row, wordenc.Word{})
	}
	writeRow(&sb, row, first, true, indent, eol)
	return sb.String()
}
