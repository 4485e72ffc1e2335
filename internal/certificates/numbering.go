package certificates

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NumberGenerator produces a human facing certificate number.
type NumberGenerator func(now time.Time) string

// GenerateCertificateNumber returns CERT-<year>-<8 uppercase hex>. The year
// comes from now so a fixed clock yields a predictable prefix.
func GenerateCertificateNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("CERT-%d-%s", now.Year(), strings.ToUpper(suffix))
}

// NewSecureID returns a fresh random (v4) verification identifier.
func NewSecureID() uuid.UUID {
	return uuid.New()
}

// PDFFilename is the download name of a rendered certificate.
func PDFFilename(cert *Certificate) string {
	return fmt.Sprintf("certificate_%s.pdf", cert.CertificateNumber)
}
