// Package pdf renders diet plan documents in-process with fpdf
package pdf

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const (
	fontFamily = "DejaVu"
	creator    = "Nutriplan"
)

//go:embed fonts/*.ttf
var fontFiles embed.FS

// fontStyles maps fpdf style strings to the embedded TrueType files
var fontStyles = map[string]string{
	"":  "fonts/DejaVuSansCondensed.ttf",
	"B": "fonts/DejaVuSansCondensed-Bold.ttf",
	"I": "fonts/DejaVuSansCondensed-Oblique.ttf",
}

var _ outbound.DocumentRenderer = (*Renderer)(nil)

// Renderer implements outbound.DocumentRenderer. Each call builds its own
// document, so a Renderer is safe for concurrent use.
type Renderer struct {
	pageSize    string
	fontSize    float64
	compression bool
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithCompression toggles stream compression. Uncompressed output is handy
// when the text needs to be inspected.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) { r.compression = enabled }
}

// WithClock fixes the creation date written into the document
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer creates a PDF renderer
func NewRenderer(cfg config.DocumentConfig, logger *zap.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		pageSize:    cfg.PageSize,
		fontSize:    cfg.FontSize,
		compression: true,
		now:         time.Now,
		logger:      logger.Named("pdf"),
	}
	if r.pageSize == "" {
		r.pageSize = "Letter"
	}
	if r.fontSize <= 0 {
		r.fontSize = 12
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays out the document content and returns the complete PDF. No
// partial output is returned on failure.
func (r *Renderer) Render(ctx context.Context, in plan.DocumentInput) (*plan.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRenderError(err)
	}
	if in.Profile == nil {
		return nil, apperrors.NewRenderError(errors.New("document input has no profile"))
	}

	start := time.Now()
	blocks := plan.BuildContent(in)

	pdf := fpdf.New("P", "mm", r.pageSize, "")
	pdf.SetCompression(r.compression)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(r.now())
	pdf.SetCreator(creator, true)
	pdf.SetTitle("Personalized Diet Plan for "+in.Profile.Name(), true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	if err := addFonts(pdf); err != nil {
		return nil, apperrors.NewRenderError(err)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", r.fontSize-4)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	lineHeight := r.fontSize * 0.5
	replaced := 0
	tr := func(text string) string {
		out, n := bmpOnly(text)
		replaced += n
		return out
	}

	for _, b := range blocks {
		pdf.SetTextColor(0, 0, 0)
		switch b.Kind {
		case plan.BlockTitle:
			pdf.SetFont(fontFamily, "B", r.fontSize+4)
			pdf.MultiCell(0, lineHeight+2, tr(b.Text), "", "C", false)
			pdf.Ln(4)
		case plan.BlockHeading:
			pdf.Ln(4)
			pdf.SetFont(fontFamily, "B", r.fontSize+2)
			pdf.MultiCell(0, lineHeight+1, tr(b.Text), "", "L", false)
			pdf.Ln(1)
		case plan.BlockItem:
			pdf.SetFont(fontFamily, "", r.fontSize)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
		default:
			pdf.SetFont(fontFamily, "", r.fontSize)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		r.logger.Error("Failed to lay out document", zap.Error(err))
		return nil, apperrors.NewRenderError(err)
	}
	if replaced > 0 {
		r.logger.Warn("Replaced characters the document font cannot encode",
			zap.Int("count", replaced),
		)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.logger.Error("Failed to write document", zap.Error(err))
		return nil, apperrors.NewRenderError(err)
	}

	r.logger.Debug("Document rendered",
		zap.Int("bytes", buf.Len()),
		zap.Int("pages", pdf.PageCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &plan.Document{
		Filename:    plan.Filename(in.Profile.Name()),
		ContentType: plan.ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

func addFonts(pdf *fpdf.Fpdf) error {
	for style, name := range fontStyles {
		data, err := fontFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("load font %s: %w", name, err)
		}
		pdf.AddUTF8FontFromBytes(fontFamily, style, data)
	}
	return pdf.Error()
}

// bmpOnly replaces runes outside the Basic Multilingual Plane with U+FFFD.
// fpdf writes text as UTF-16 code units without surrogate pairs, so those
// runes would otherwise corrupt the content stream.
func bmpOnly(s string) (string, int) {
	n := 0
	for _, c := range s {
		if c > 0xFFFF {
			n++
		}
	}
	if n == 0 {
		return s, 0
	}
	return strings.Map(func(c rune) rune {
		if c > 0xFFFF {
			return utf8.RuneError
		}
		return c
	}, s), n
}
