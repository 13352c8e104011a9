package artifact

import (
	"bytes"
	"embed"
	"fmt"
	"math/bits"
	"text/template"

	"github.com/anupcshan/romgen/wordenc"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var romTemplate *template.Template

func init() {
	var err error

	romTemplate, err = template.ParseFS(templateFS, "templates/rom.sv.tmpl")
	if err != nil {
		panic(fmt.Sprintf("failed to parse rom template: %v", err))
	}
}

// TemplateData holds data for the default ROM module template
type TemplateData struct {
	Module   string
	Capacity int64
	Markers  Markers
}

type romTemplateData struct {
	TemplateData
	SizeName  string
	AddrWidth int
	Data      string
}

// NewTemplate renders a SystemVerilog ROM module that Patch accepts.
func NewTemplate(d TemplateData) ([]byte, error) {
	if d.Markers.Begin == "" || d.Markers.End == "" {
		d.Markers.Begin, d.Markers.End = DefaultMarkers.Begin, DefaultMarkers.End
	}
	td := romTemplateData{
		TemplateData: d,
		SizeName:     d.Markers.SizeParam,
		AddrWidth:    max(bits.Len64(uint64(max(d.Capacity-1, 1))), 2),
		Data:         RenderData(func(func(w wordenc.Word) bool) {}, "    ", "\n"),
	}
	if td.SizeName == "" {
		td.SizeName = "RomSize"
	}

	var buf bytes.Buffer
	if err := romTemplate.Execute(&buf, td); err != nil {
		return nil, fmt.Errorf("failed to execute rom template: %w", err)
	}
	return buf.Bytes(), nil
}
