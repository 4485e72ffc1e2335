package export

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"msc-cert/portal-backend/internal/certificates"
	"msc-cert/portal-backend/pkg/pdf"
)

var (
	colorBlack = pdf.Color{}
	colorTeal  = pdf.MustHex("#01434f")
	colorCyan  = pdf.MustHex("#2abad4")
)

// Layout constants in points from the top-left corner of an A4 page.
const (
	contentLeft  = 50.0
	contentRight = 545.0
	contentWidth = contentRight - contentLeft

	headerTop  = 60.0
	logoHeight = 38.0

	qrSize       = 65.0
	badgeWidth   = 70.0
	footerBottom = 20.0

	scopeMaxHeight = 110.0
	missingDate    = "—"
)

// PDFGenerator renders a certificate onto a single A4 page.
type PDFGenerator struct {
	assets *AssetLoader
	lang   Language
	logger *zap.Logger
}

func NewPDFGenerator(assets *AssetLoader, language string, logger *zap.Logger) *PDFGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFGenerator{
		assets: assets,
		lang:   LookupLanguage(language),
		logger: logger,
	}
}

// Render composes the certificate. qrPNG may be nil, in which case the QR
// code and its caption are left out.
func (g *PDFGenerator) Render(cert *certificates.Certificate, qrPNG []byte) ([]byte, error) {
	if cert == nil {
		return nil, fmt.Errorf("render: nil certificate")
	}

	var qr *pdf.Image
	if len(qrPNG) > 0 {
		img, err := NormalizeImage("qr_"+cert.CertificateNumber+".png", qrPNG)
		if err != nil {
			g.logger.Warn("Skipping unreadable QR code", zap.Uint("certificate_id", cert.ID), zap.Error(err))
		} else {
			qr = img
		}
	}

	p := &page{
		canvas: pdf.NewCanvas("P", "A4"),
		cert:   cert,
		lang:   g.lang,
		text:   g.lang.Text(cert.Standard),
		assets: g.assets.Load(),
		qr:     qr,
	}
	p.width, p.height = p.canvas.PageSize()
	p.canvas.SetMetadata("Certificate - "+cert.CertificateNumber, brand.Name)

	p.drawStripe()
	p.drawHeader()
	p.drawTitle()
	p.drawBody()
	p.drawDates()
	p.drawSignature()
	p.drawFooter()

	return p.canvas.Bytes()
}

type page struct {
	canvas        *pdf.Canvas
	cert          *certificates.Certificate
	lang          Language
	text          StandardText
	assets        AssetSet
	qr            *pdf.Image
	width, height float64
}

func (p *page) centerX() float64 { return p.width / 2 }

func (p *page) drawStripe() {
	p.canvas.FillRect(0, 0, 28, p.height, colorTeal)
	p.canvas.FillRect(28, 0, 4, p.height, colorCyan)
}

func (p *page) drawHeader() {
	c := p.canvas
	if p.assets.Logo != nil {
		c.DrawImage(p.assets.Logo, contentLeft, headerTop, 120, logoHeight)
	} else {
		c.SetTextColor(colorCyan)
		c.SetFont("B", 26)
		c.Text(contentLeft, headerTop+24, "MSC")
		c.SetTextColor(colorTeal)
		c.SetFont("", 7.5)
		c.Text(contentLeft, headerTop+35, "CERTIFICATIONS")
	}
	c.DrawImage(p.assets.DABadge, contentRight-120, headerTop, 55, logoHeight)
	c.DrawImage(p.assets.IAFLogo, contentRight-55, headerTop, 55, logoHeight)
}

func (p *page) drawTitle() {
	c := p.canvas
	c.SetTextColor(colorBlack)
	c.SetFont("B", 36)
	c.SpacedText(p.centerX(), 180, p.lang.Labels.Title, 5)

	c.SetFont("I", 13)
	c.CenteredText(p.centerX(), 210, p.lang.Labels.Number+" "+p.cert.CertificateNumber)
}

func (p *page) drawBody() {
	c := p.canvas
	cx := p.centerX()
	c.SetTextColor(colorBlack)

	y := 260.0
	p.fitted(cx, y, p.text.CertText, "", 11, 7, 0.5)

	y += 48
	p.fitted(cx, y, strings.ToUpper(p.cert.CompanyName), "B", 30, 14, 1)

	y += 30
	if address := strings.TrimSpace(p.cert.Address); address != "" {
		p.fitted(cx, y, p.lang.Labels.Address+" "+address, "", 11, 7, 0.5)
	}

	y += 35
	c.SetFont("", 11)
	c.CenteredText(cx, y, p.lang.Labels.Conformity)

	y += 35
	p.fitted(cx, y, p.cert.Standard.Display(), "B", 24, 14, 1)

	y += 32
	c.SetFont("", 10.5)
	c.CenteredText(cx, y, p.lang.Labels.Activities)

	y += 20
	c.SetFont("", 10)
	c.CenteredText(cx, y, p.lang.Labels.IAFCode+" "+p.cert.IAFCode)

	y += 30
	p.drawScope(cx, y)
}

// fitted draws a single centered line shrunk until it fits the content width.
func (p *page) fitted(cx, y float64, text, style string, start, floor, step float64) {
	size := p.canvas.FitFontSize(text, style, start, floor, step, contentWidth)
	p.canvas.SetFont(style, size)
	p.canvas.CenteredText(cx, y, text)
}

// drawScope wraps the scope of activity. The size is picked from the total
// text length and then reduced so the block stays above the dates row.
func (p *page) drawScope(cx, y float64) {
	c := p.canvas
	scope := strings.ToUpper(strings.TrimSpace(p.cert.ScopeActivity))
	if scope == "" {
		return
	}
	maxWidth := contentWidth - 20

	size := 12.0
	switch w := c.WidthWith(scope, "B", size); {
	case w > maxWidth*3:
		size = 10
	case w > maxWidth*2:
		size = 11
	}

	c.SetFont("B", size)
	for size > 7 && float64(len(c.WrapLines(scope, maxWidth)))*(size+3) > scopeMaxHeight {
		size -= 0.5
		c.SetFont("B", size)
	}
	c.WrappedCentered(cx, y, scope, maxWidth, size+3)
}

func (p *page) drawDates() {
	c := p.canvas
	columns := []struct {
		x     float64
		label string
		value string
	}{
		{p.width * 0.22, p.lang.Labels.FirstIssue, formatDate(&p.cert.FirstIssueDate)},
		{p.width * 0.50, p.lang.Labels.Modification, formatDate(p.cert.ModificationDate)},
		{p.width * 0.78, p.lang.Labels.Expiry, formatDate(&p.cert.ExpiryDate)},
	}

	c.SetTextColor(colorBlack)
	for _, col := range columns {
		c.SetFont("", 9)
		c.CenteredText(col.x, 620, col.label)
		c.SetFont("B", 11)
		c.CenteredText(col.x, 636, col.value)
	}
}

func (p *page) drawSignature() {
	c := p.canvas
	cx := p.centerX()

	c.DrawImage(p.assets.Signature, cx-50, 640, 100, 40)
	c.Line(cx-55, 683, cx+55, 683, 0.5, colorBlack)

	c.SetTextColor(colorBlack)
	c.SetFont("B", 9)
	c.CenteredText(cx, 696, p.lang.Labels.Signatory)
	c.SetFont("", 8)
	c.CenteredText(cx, 708, brand.Name)
}

func (p *page) drawFooter() {
	c := p.canvas
	bottom := p.height - footerBottom

	separator := bottom - qrSize - 12
	c.Line(contentLeft, separator, contentRight, separator, 0.8, colorCyan)

	p.drawQRCode(contentLeft+5, bottom)
	p.drawApprovedBadge(contentRight-badgeWidth-5, bottom)

	left := contentLeft + qrSize + 18
	right := contentRight - badgeWidth - 12
	cx := (left + right) / 2
	maxWidth := right - left

	c.SetTextColor(colorBlack)
	c.SetFont("", 5.5)
	y := c.WrappedCentered(cx, bottom-qrSize+8, p.lang.Disclaimer(p.cert.Standard), maxWidth, 5.5+3)

	y += 3
	c.SetFont("B", 6)
	c.CenteredText(cx, y, brand.Tagline)

	y += 8
	c.SetFont("", 5.5)
	c.CenteredText(cx, y, brand.Address)

	y += 8
	c.CenteredText(cx, y, brand.Contacts)
}

// drawQRCode places the QR with its bottom edge on bottom.
func (p *page) drawQRCode(x, bottom float64) {
	if p.qr == nil {
		return
	}
	c := p.canvas
	c.DrawImage(p.qr, x, bottom-qrSize, qrSize, qrSize)
	c.SetTextColor(colorBlack)
	c.SetFont("B", 6.5)
	c.CenteredText(x+qrSize/2, bottom+9, p.lang.Labels.CheckCert)
}

func (p *page) drawApprovedBadge(x, bottom float64) {
	c := p.canvas
	c.DrawImage(p.assets.Approved, x, bottom-70, badgeWidth, 50)

	cx := x + badgeWidth/2
	c.SetTextColor(colorBlack)
	c.SetFont("B", 7)
	c.CenteredText(cx, bottom-10, p.cert.Standard.Display())
	c.SetFont("B", 6.5)
	c.CenteredText(cx, bottom, p.lang.Labels.Approved)
}

func formatDate(d *certificates.Date) string {
	if d == nil || d.IsZero() {
		return missingDate
	}
	return d.Format("02.01.2006")
}
