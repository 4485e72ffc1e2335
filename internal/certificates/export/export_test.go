package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"msc-cert/portal-backend/internal/certificates"
	"msc-cert/portal-backend/pkg/qr"
)

func sampleCertificate() *certificates.Certificate {
	mod := certificates.NewDate(2024, 6, 1)
	return &certificates.Certificate{
		ID:                  7,
		CertificateNumber:   "CERT-2024-1A2B3C4D",
		SecureID:            uuid.MustParse("2f1b7c1e-1f0a-4c55-9d64-0c5cf3a9f7a1"),
		Status:              certificates.StatusValid,
		Standard:            certificates.StandardISO9001,
		CompanyName:         "Ndërtimi Shqiptar sh.p.k.",
		ScopeActivity:       strings.Repeat("Projektim, ndërtim dhe mirëmbajtje e objekteve civile dhe industriale. ", 8),
		Address:             "Rruga e Durrësit, Tiranë",
		IAFCode:             "28",
		FirstIssueDate:      certificates.NewDate(2023, 1, 10),
		ExpiryDate:          certificates.NewDate(2026, 1, 9),
		NextMaintenanceDate: certificates.NewDate(2024, 1, 10),
		ModificationDate:    &mod,
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 1, G: 67, B: 79, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestStandardTablesCoverEveryStandard(t *testing.T) {
	for code, lang := range languages {
		require.NoError(t, lang.validate(), code)
	}

	sq := LookupLanguage("sq")
	assert.Equal(t, "Q", sq.Text(certificates.StandardISO9001).Code)
	assert.Equal(t, "Sistemeve HACCP", sq.Text(certificates.StandardHACCP).ManagementSystem)

	fallback := sq.Text(certificates.Standard("ISO_0000"))
	assert.Equal(t, "", fallback.Code)
	assert.Equal(t, "Sistemeve të Menaxhimit", fallback.ManagementSystem)

	assert.Contains(t, sq.Disclaimer(certificates.StandardISO14001), "Sistemeve të Menaxhimit të Mjedisit çdo tre vjet")
	assert.Equal(t, "CERTIFICATE", LookupLanguage("en").Labels.Title)
	assert.Equal(t, "CERTIFIKATË", LookupLanguage("de").Labels.Title)
}

func TestLanguageValidationRejectsMissingDefault(t *testing.T) {
	lang := Language{Standards: map[certificates.Standard]StandardText{}}
	for _, std := range certificates.Standards() {
		lang.Standards[std] = StandardText{}
	}
	assert.Error(t, lang.validate())

	lang.Standards[defaultStandard] = StandardText{}
	delete(lang.Standards, certificates.StandardHACCP)
	assert.Error(t, lang.validate())
}

func TestRenderWithoutAssets(t *testing.T) {
	gen := NewPDFGenerator(NewAssetLoader(t.TempDir(), nil), "sq", nil)

	out, err := gen.Render(sampleCertificate(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderUnknownStandardAndMissingDates(t *testing.T) {
	cert := sampleCertificate()
	cert.Standard = certificates.Standard("ISO_0000")
	cert.ModificationDate = nil
	cert.Address = ""

	out, err := NewPDFGenerator(nil, "en", nil).Render(cert, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderWithAssetsAndQRCode(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{assetLogo, assetDABadge, assetIAFLogo, assetApproved, assetSignature} {
		writePNG(t, filepath.Join(dir, name), 120, 40)
	}

	qrPNG, err := qr.NewGenerator(qr.DefaultOptions()).Generate("https://msc-cert.com/certificate/abc")
	require.NoError(t, err)

	out, err := NewPDFGenerator(NewAssetLoader(dir, nil), "sq", nil).Render(sampleCertificate(), qrPNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderIgnoresUnreadableQRCode(t *testing.T) {
	out, err := NewPDFGenerator(nil, "sq", nil).Render(sampleCertificate(), []byte("not a png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestAssetLoaderSkipsBadImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, assetLogo), 2400, 300)
	require.NoError(t, os.WriteFile(filepath.Join(dir, assetSignature), []byte("garbage"), 0o644))

	set := NewAssetLoader(dir, nil).Load()
	require.NotNil(t, set.Logo)
	assert.Nil(t, set.Signature)
	assert.Nil(t, set.DABadge)
	assert.Equal(t, "PNG", set.Logo.Type)

	cfg, err := png.DecodeConfig(bytes.NewReader(set.Logo.Data))
	require.NoError(t, err)
	assert.Equal(t, maxAssetSide, cfg.Width)
}

func TestExcelExporter(t *testing.T) {
	today := certificates.NewDate(2024, 1, 11)
	first := *sampleCertificate()
	second := *sampleCertificate()
	second.CertificateNumber = "CERT-2024-00000002"
	second.Status = certificates.StatusSuspended
	second.LastMaintenanceDate = nil
	second.Sites = []certificates.CertificateSite{{SiteNumber: 1}, {SiteNumber: 2}}

	data, err := NewExcelExporter(DefaultExcelOptions()).Export([]certificates.Certificate{first, second}, today)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Certificates")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Certificate Number", rows[0][0])
	assert.Equal(t, "CERT-2024-1A2B3C4D", rows[1][0])
	assert.Equal(t, "Valid/Active", rows[1][3])
	assert.Equal(t, "Suspended", rows[2][3])
	assert.Equal(t, "Yes", rows[1][12])
	assert.Equal(t, "2", rows[2][13])

	panes, err := f.GetPanes("Certificates")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)

	headerStyle, err := f.GetCellStyle("Certificates", "A1")
	require.NoError(t, err)
	textStyle, err := f.GetCellStyle("Certificates", "A2")
	require.NoError(t, err)
	dateStyle, err := f.GetCellStyle("Certificates", "H2")
	require.NoError(t, err)
	assert.NotZero(t, headerStyle)
	assert.NotZero(t, textStyle)
	assert.NotEqual(t, textStyle, dateStyle)
	assert.NotEqual(t, headerStyle, textStyle)
}

func TestExcelExporterEmptyRegister(t *testing.T) {
	data, err := NewExcelExporter(DefaultExcelOptions()).Export(nil, certificates.NewDate(2024, 1, 1))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Certificates")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
