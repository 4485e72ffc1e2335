package certificates

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

const qrDirectory = "certificate_qr_codes"

// QRNamer maps a certificate to the storage key of its QR image.
type QRNamer func(cert *Certificate) string

// QRObjectKey names QR images after the certificate number.
func QRObjectKey(cert *Certificate) string {
	return path.Join(qrDirectory, fmt.Sprintf("qr_%s.png", cert.CertificateNumber))
}

// VerificationURL is the QR payload: the public page for a secure id.
func VerificationURL(frontendURL string, secureID uuid.UUID) string {
	return strings.TrimRight(frontendURL, "/") + "/certificate/" + secureID.String()
}

// SecureURL is the API verification address for a secure id.
func SecureURL(baseURL string, secureID uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/api/certificates/verify/" + secureID.String() + "/"
}
