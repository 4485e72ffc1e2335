package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Color is an RGB color.
type Color struct {
	R, G, B int
}

// Hex parses "#rrggbb".
func Hex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("pdf: invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("pdf: invalid color %q: %w", s, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// MustHex is Hex for package level constants.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Image is an encoded raster ready to be placed on a page.
type Image struct {
	Name string
	Data []byte
	Type string // PNG, JPG or GIF
}

// DetectImage validates data and fills in its gofpdf image type.
func DetectImage(name string, data []byte) (*Image, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pdf: unreadable image %s: %w", name, err)
	}
	typ := strings.ToUpper(format)
	if typ == "JPEG" {
		typ = "JPG"
	}
	return &Image{Name: name, Data: data, Type: typ}, nil
}

// Canvas wraps a single page gofpdf document in points with a top-left
// origin. Text passed in is UTF-8 and translated to the core font encoding.
type Canvas struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	family string
	style  string
	size   float64
}

// NewCanvas creates a canvas with one blank page using the core Helvetica
// family.
func NewCanvas(orientation, pageSize string) *Canvas {
	doc := gofpdf.New(orientation, "pt", pageSize, "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	c := &Canvas{
		pdf:    doc,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
		family: "Helvetica",
	}
	c.SetFont("", 12)
	return c
}

// PageSize returns the page width and height.
func (c *Canvas) PageSize() (float64, float64) {
	return c.pdf.GetPageSize()
}

// SetMetadata sets document title and author.
func (c *Canvas) SetMetadata(title, author string) {
	c.pdf.SetTitle(title, true)
	c.pdf.SetAuthor(author, true)
	c.pdf.SetCreator(author, true)
}

// SetFont selects the style ("", "B", "I", "BI") and size.
func (c *Canvas) SetFont(style string, size float64) {
	c.style = style
	c.size = size
	c.pdf.SetFont(c.family, style, size)
}

// FontSize returns the active font size.
func (c *Canvas) FontSize() float64 {
	return c.size
}

// SetTextColor sets the fill color for text.
func (c *Canvas) SetTextColor(col Color) {
	c.pdf.SetTextColor(col.R, col.G, col.B)
}

// Width measures text in the active font.
func (c *Canvas) Width(text string) float64 {
	return c.pdf.GetStringWidth(c.tr(text))
}

// WidthWith measures text in the given style and size, restoring the active
// font afterwards.
func (c *Canvas) WidthWith(text, style string, size float64) float64 {
	prevStyle, prevSize := c.style, c.size
	c.pdf.SetFont(c.family, style, size)
	w := c.pdf.GetStringWidth(c.tr(text))
	c.pdf.SetFont(c.family, prevStyle, prevSize)
	return w
}

// FitFontSize steps the size down from start until the text fits maxWidth or
// floor is reached.
func (c *Canvas) FitFontSize(text, style string, start, floor, step, maxWidth float64) float64 {
	size := start
	for size > floor && c.WidthWith(text, style, size) > maxWidth {
		size -= step
	}
	if size < floor {
		size = floor
	}
	return size
}

// Text draws text with its baseline at y.
func (c *Canvas) Text(x, y float64, text string) {
	c.pdf.Text(x, y, c.tr(text))
}

// CenteredText draws text centered on cx.
func (c *Canvas) CenteredText(cx, y float64, text string) {
	c.Text(cx-c.Width(text)/2, y, text)
}

// SpacedText draws text centered on cx with extra spacing between glyphs.
func (c *Canvas) SpacedText(cx, y float64, text string, spacing float64) {
	runes := []rune(text)
	if len(runes) == 0 {
		return
	}
	total := c.Width(text) + spacing*float64(len(runes)-1)
	x := cx - total/2
	for _, r := range runes {
		ch := string(r)
		c.Text(x, y, ch)
		x += c.Width(ch) + spacing
	}
}

// WrapLines breaks text into lines no wider than maxWidth in the active
// font. A single word wider than maxWidth gets a line of its own.
func (c *Canvas) WrapLines(text string, maxWidth float64) []string {
	words := strings.Fields(text)
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && c.Width(candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// WrappedCentered draws wrapped lines centered on cx starting at baseline y
// and returns the baseline following the last line.
func (c *Canvas) WrappedCentered(cx, y float64, text string, maxWidth, lineHeight float64) float64 {
	for _, line := range c.WrapLines(text, maxWidth) {
		c.CenteredText(cx, y, line)
		y += lineHeight
	}
	return y
}

// FillRect paints a filled rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, col Color) {
	c.pdf.SetFillColor(col.R, col.G, col.B)
	c.pdf.Rect(x, y, w, h, "F")
}

// Line strokes a line.
func (c *Canvas) Line(x1, y1, x2, y2, width float64, col Color) {
	c.pdf.SetDrawColor(col.R, col.G, col.B)
	c.pdf.SetLineWidth(width)
	c.pdf.Line(x1, y1, x2, y2)
}

// DrawImage fits img inside the box (x, y, w, h) keeping its aspect ratio
// and centers it. A nil image draws nothing.
func (c *Canvas) DrawImage(img *Image, x, y, w, h float64) {
	if img == nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: img.Type, ReadDpi: false}
	info := c.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
	if info == nil || c.pdf.Err() {
		return
	}

	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 {
		return
	}
	scale := w / iw
	if h/ih < scale {
		scale = h / ih
	}
	dw, dh := iw*scale, ih*scale
	c.pdf.ImageOptions(img.Name, x+(w-dw)/2, y+(h-dh)/2, dw, dh, false, opts, 0, "")
}

// Bytes closes the document and returns the encoded PDF.
func (c *Canvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to output PDF: %w", err)
	}
	return buf.Bytes(), nil
}
