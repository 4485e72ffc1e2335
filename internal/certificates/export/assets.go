package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"msc-cert/portal-backend/pkg/pdf"
)

// maxAssetSide bounds the longest side of embedded images.
const maxAssetSide = 1200

const (
	assetLogo      = "msc_logo.png"
	assetDABadge   = "da_badge.png"
	assetIAFLogo   = "iaf_logo.png"
	assetApproved  = "approved_badge.png"
	assetSignature = "signature.png"
)

// AssetSet holds the decoded brand images of one render. Nil members are
// skipped by the layout.
type AssetSet struct {
	Logo      *pdf.Image
	DABadge   *pdf.Image
	IAFLogo   *pdf.Image
	Approved  *pdf.Image
	Signature *pdf.Image
}

// AssetLoader reads brand images from a directory.
type AssetLoader struct {
	dir    string
	logger *zap.Logger
}

func NewAssetLoader(dir string, logger *zap.Logger) *AssetLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetLoader{dir: dir, logger: logger}
}

// Load resolves every asset. Absent or undecodable files are left nil.
func (l *AssetLoader) Load() AssetSet {
	if l == nil || l.dir == "" {
		return AssetSet{}
	}
	return AssetSet{
		Logo:      l.load(assetLogo),
		DABadge:   l.load(assetDABadge),
		IAFLogo:   l.load(assetIAFLogo),
		Approved:  l.load(assetApproved),
		Signature: l.load(assetSignature),
	}
}

func (l *AssetLoader) load(name string) *pdf.Image {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to read certificate asset", zap.String("asset", name), zap.Error(err))
		}
		return nil
	}
	img, err := NormalizeImage(name, data)
	if err != nil {
		l.logger.Warn("Skipping certificate asset", zap.String("asset", name), zap.Error(err))
		return nil
	}
	return img
}

// NormalizeImage decodes any supported raster and re-encodes it as an
// 8-bit PNG, the only PNG depth the PDF writer embeds.
func NormalizeImage(name string, data []byte) (*pdf.Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	var dst *image.NRGBA
	if b := src.Bounds(); b.Dx() > maxAssetSide || b.Dy() > maxAssetSide {
		dst = imaging.Fit(src, maxAssetSide, maxAssetSide, imaging.Lanczos)
	} else {
		dst = imaging.Clone(src)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return pdf.DetectImage(name, buf.Bytes())
}
