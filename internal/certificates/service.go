package certificates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"msc-cert/portal-backend/pkg/qr"
	"msc-cert/portal-backend/pkg/storage"
)

const maxNumberAttempts = 5

// Renderer composes the printable certificate document.
type Renderer interface {
	Render(cert *Certificate, qrPNG []byte) ([]byte, error)
}

// RegisterExporter writes the certificate register as a spreadsheet.
type RegisterExporter interface {
	Export(certs []Certificate, today Date) ([]byte, error)
}

type Service interface {
	CreateCertificate(ctx context.Context, req CreateCertificateRequest, actor string) (*Certificate, error)
	GetCertificate(ctx context.Context, id uint) (*Certificate, error)
	ListCertificates(ctx context.Context, filter ListFilter) ([]Certificate, error)
	UpdateCertificate(ctx context.Context, id uint, req UpdateCertificateRequest, actor string) (*Certificate, error)
	PerformMaintenance(ctx context.Context, id uint, actor string) (*Certificate, error)

	QRCodeInfo(ctx context.Context, id uint) (*QRCodeInfo, error)
	RegenerateQRCode(ctx context.Context, id uint, actor string) (*Certificate, error)
	VerifyCertificate(ctx context.Context, secureID string) (*Verification, error)

	ExpiringSoon(ctx context.Context) ([]Certificate, error)
	MaintenanceDue(ctx context.Context) ([]Certificate, error)
	RenderPDF(ctx context.Context, id uint) (*RenderedPDF, error)
	ExportRegister(ctx context.Context, filter ListFilter) ([]byte, error)
	RefreshStatuses(ctx context.Context) (int, error)
	History(ctx context.Context, id uint) ([]CertificateEvent, error)
	Today() Date

	CreateSite(ctx context.Context, req CreateSiteRequest) (*CertificateSite, error)
	GetSite(ctx context.Context, id uint) (*CertificateSite, error)
	ListSites(ctx context.Context, certificateID *uint) ([]CertificateSite, error)
	UpdateSite(ctx context.Context, id uint, req UpdateSiteRequest) (*CertificateSite, error)
	DeleteSite(ctx context.Context, id uint) error
}

// ServiceConfig holds the process wide settings of the pipeline.
type ServiceConfig struct {
	FrontendURL      string
	PublicBaseURL    string
	ExpiringSoonDays int
	Location         *time.Location
}

// Option customizes a service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithNumberGenerator replaces the certificate number generator.
func WithNumberGenerator(gen NumberGenerator) Option {
	return func(s *service) { s.numbers = gen }
}

// WithQRNamer replaces the QR object naming strategy.
func WithQRNamer(namer QRNamer) Option {
	return func(s *service) { s.qrName = namer }
}

type service struct {
	repo     Repository
	store    storage.ObjectStore
	qr       qr.Generator
	renderer Renderer
	exporter RegisterExporter
	cfg      ServiceConfig
	logger   *zap.Logger

	now     func() time.Time
	numbers NumberGenerator
	qrName  QRNamer
}

func NewService(
	repo Repository,
	store storage.ObjectStore,
	qrGen qr.Generator,
	renderer Renderer,
	exporter RegisterExporter,
	cfg ServiceConfig,
	logger *zap.Logger,
	opts ...Option,
) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		repo:     repo,
		store:    store,
		qr:       qrGen,
		renderer: renderer,
		exporter: exporter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		numbers:  GenerateCertificateNumber,
		qrName:   QRObjectKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Today() Date {
	return DateOf(s.now().In(s.cfg.Location))
}

func (s *service) CreateCertificate(ctx context.Context, req CreateCertificateRequest, actor string) (*Certificate, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	next := req.FirstIssueDate.AddYears(1)
	if req.NextMaintenanceDate != nil && !req.NextMaintenanceDate.IsZero() {
		next = *req.NextMaintenanceDate
	}

	cert := &Certificate{
		SecureID:            NewSecureID(),
		Status:              StatusValid,
		Standard:            req.Standard,
		CompanyName:         strings.TrimSpace(req.CompanyName),
		ScopeActivity:       strings.TrimSpace(req.ScopeActivity),
		Address:             strings.TrimSpace(req.Address),
		IAFCode:             strings.TrimSpace(req.IAFCode),
		FirstIssueDate:      req.FirstIssueDate,
		ExpiryDate:          req.ExpiryDate,
		NextMaintenanceDate: next,
		ModificationDate:    nonZero(req.ModificationDate),
	}
	for _, site := range req.Sites {
		cert.Sites = append(cert.Sites, CertificateSite{
			SiteNumber:    site.SiteNumber,
			Name:          strings.TrimSpace(site.Name),
			ScopeActivity: strings.TrimSpace(site.ScopeActivity),
			Address:       strings.TrimSpace(site.Address),
		})
	}
	cert.RecomputeStatus(s.Today())

	if err := s.insertWithNumber(ctx, cert); err != nil {
		return nil, err
	}

	s.logEvent(ctx, cert.ID, EventCreated, actor, map[string]any{
		"certificate_number": cert.CertificateNumber,
		"status":             cert.Status,
	})
	s.logger.Info("Certificate created",
		zap.Uint("certificate_id", cert.ID),
		zap.String("certificate_number", cert.CertificateNumber),
	)

	if err := s.ensureQRCode(ctx, cert, actor); err != nil {
		return cert, err
	}
	return cert, nil
}

// insertWithNumber allocates a certificate number, retrying when the number
// is already taken.
func (s *service) insertWithNumber(ctx context.Context, cert *Certificate) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		cert.CertificateNumber = s.numbers(s.now().In(s.cfg.Location))
		err := s.repo.CreateCertificate(ctx, cert)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("failed to create certificate: %w", err)
		}
		s.logger.Warn("Certificate number collision, regenerating",
			zap.String("certificate_number", cert.CertificateNumber),
			zap.Int("attempt", attempt),
		)
		cert.ID = 0
		for i := range cert.Sites {
			cert.Sites[i].ID = 0
			cert.Sites[i].CertificateID = 0
		}
	}
	return ErrNumberExhausted
}

func (s *service) GetCertificate(ctx context.Context, id uint) (*Certificate, error) {
	cert, err := s.repo.GetCertificateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, fmt.Errorf("certificate %d: %w", id, ErrNotFound)
	}
	return cert, nil
}

func (s *service) ListCertificates(ctx context.Context, filter ListFilter) ([]Certificate, error) {
	return s.repo.ListCertificates(ctx, filter)
}

func (s *service) UpdateCertificate(ctx context.Context, id uint, req UpdateCertificateRequest, actor string) (*Certificate, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := cert.Status

	verr := &ValidationError{}
	if req.Standard != nil {
		if !req.Standard.Known() {
			verr.add("standard", fmt.Sprintf("%q is not a supported standard", *req.Standard))
		}
		cert.Standard = *req.Standard
	}
	applyText(verr, "company_name", req.CompanyName, &cert.CompanyName, true)
	applyText(verr, "scope_activity", req.ScopeActivity, &cert.ScopeActivity, true)
	applyText(verr, "address", req.Address, &cert.Address, false)
	applyText(verr, "iaf_code", req.IAFCode, &cert.IAFCode, true)
	if req.FirstIssueDate != nil {
		cert.FirstIssueDate = *req.FirstIssueDate
	}
	if req.ExpiryDate != nil {
		cert.ExpiryDate = *req.ExpiryDate
	}
	if req.NextMaintenanceDate != nil {
		cert.NextMaintenanceDate = *req.NextMaintenanceDate
	}
	if req.LastMaintenanceDate != nil {
		cert.LastMaintenanceDate = nonZero(req.LastMaintenanceDate)
	}
	if req.ModificationDate != nil {
		cert.ModificationDate = nonZero(req.ModificationDate)
	}
	if req.Status != nil && *req.Status != cert.Status {
		switch {
		case !req.Status.Known():
			verr.add("status", fmt.Sprintf("%q is not a valid status", *req.Status))
		case !CanChangeStatus(cert.Status, *req.Status):
			verr.add("status", fmt.Sprintf("cannot change status from %s to %s", cert.Status, *req.Status))
		default:
			cert.Status = *req.Status
		}
	}
	requireDate(verr, "first_issue_date", cert.FirstIssueDate)
	requireDate(verr, "expiry_date", cert.ExpiryDate)
	requireDate(verr, "next_maintenance_date", cert.NextMaintenanceDate)
	validateDates(verr, cert.FirstIssueDate, cert.ExpiryDate, cert.NextMaintenanceDate)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	cert.RecomputeStatus(s.Today())
	if err := s.repo.UpdateCertificate(ctx, cert); err != nil {
		return nil, fmt.Errorf("failed to update certificate: %w", err)
	}

	s.logEvent(ctx, cert.ID, EventUpdated, actor, nil)
	if cert.Status != previous {
		s.logEvent(ctx, cert.ID, EventStatusChanged, actor, map[string]any{"from": previous, "to": cert.Status})
	}

	if err := s.ensureQRCode(ctx, cert, actor); err != nil {
		return cert, err
	}
	return cert, nil
}

func (s *service) PerformMaintenance(ctx context.Context, id uint, actor string) (*Certificate, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := cert.Status
	today := s.Today()

	cert.PerformMaintenance(today)
	cert.RecomputeStatus(today)
	if err := s.repo.UpdateCertificate(ctx, cert); err != nil {
		return nil, fmt.Errorf("failed to record maintenance: %w", err)
	}

	s.logEvent(ctx, cert.ID, EventMaintenance, actor, map[string]any{
		"last_maintenance_date": today.String(),
		"next_maintenance_date": cert.NextMaintenanceDate.String(),
	})
	if cert.Status != previous {
		s.logEvent(ctx, cert.ID, EventStatusChanged, actor, map[string]any{"from": previous, "to": cert.Status})
	}
	s.logger.Info("Maintenance performed",
		zap.Uint("certificate_id", cert.ID),
		zap.String("next_maintenance_date", cert.NextMaintenanceDate.String()),
	)
	return cert, nil
}

// ensureQRCode generates and stores the QR image when the slot is empty.
func (s *service) ensureQRCode(ctx context.Context, cert *Certificate, actor string) error {
	if cert.QRCode != "" {
		return nil
	}

	payload := VerificationURL(s.cfg.FrontendURL, cert.SecureID)
	key := s.qrName(cert)

	err := s.writeQRCode(ctx, key, payload)
	if err == nil {
		err = s.repo.UpdateQRCode(ctx, cert.ID, key)
	}
	if err != nil {
		s.logger.Error("QR code generation failed", zap.Uint("certificate_id", cert.ID), zap.Error(err))
		s.logEvent(ctx, cert.ID, EventQRFailed, actor, map[string]any{"error": err.Error()})
		return fmt.Errorf("%w: %v", ErrQRGeneration, err)
	}

	cert.QRCode = key
	s.logEvent(ctx, cert.ID, EventQRGenerated, actor, map[string]any{"key": key, "payload": payload})
	return nil
}

func (s *service) writeQRCode(ctx context.Context, key, payload string) error {
	png, err := s.qr.Generate(payload)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, key, bytes.NewReader(png), "image/png")
}

func (s *service) RegenerateQRCode(ctx context.Context, id uint, actor string) (*Certificate, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}

	if cert.QRCode != "" {
		if err := s.store.Delete(ctx, cert.QRCode); err != nil {
			s.logger.Warn("Failed to delete old QR code", zap.String("key", cert.QRCode), zap.Error(err))
		}
		if err := s.repo.UpdateQRCode(ctx, cert.ID, ""); err != nil {
			return nil, fmt.Errorf("failed to clear QR code: %w", err)
		}
		cert.QRCode = ""
	}

	if err := s.ensureQRCode(ctx, cert, actor); err != nil {
		return cert, err
	}
	return cert, nil
}

func (s *service) QRCodeInfo(ctx context.Context, id uint) (*QRCodeInfo, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.QRCode == "" {
		return nil, ErrQRMissing
	}

	url, err := s.store.URL(ctx, cert.QRCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve QR code url: %w", err)
	}

	info := &QRCodeInfo{
		CertificateNumber: cert.CertificateNumber,
		QRCodeURL:         url,
		CompanyName:       cert.CompanyName,
		Status:            cert.Status.Display(),
		VerificationURL:   VerificationURL(s.cfg.FrontendURL, cert.SecureID),
		SecureID:          cert.SecureID,
	}
	if s.cfg.PublicBaseURL != "" {
		info.SecureURL = SecureURL(s.cfg.PublicBaseURL, cert.SecureID)
	}
	return info, nil
}

// VerifyCertificate resolves a public secure id. Malformed and unknown ids
// both yield ErrNotFound.
func (s *service) VerifyCertificate(ctx context.Context, secureID string) (*Verification, error) {
	id, err := uuid.Parse(strings.TrimSpace(secureID))
	if err != nil {
		return nil, ErrNotFound
	}
	cert, err := s.repo.GetCertificateBySecureID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrNotFound
	}

	sites := cert.Sites
	if sites == nil {
		sites = []CertificateSite{}
	}
	return &Verification{
		CertificateNumber: cert.CertificateNumber,
		CompanyName:       cert.CompanyName,
		Standard:          cert.Standard.Display(),
		Status:            cert.Status.Display(),
		FirstIssueDate:    cert.FirstIssueDate,
		ExpiryDate:        cert.ExpiryDate,
		ScopeActivity:     cert.ScopeActivity,
		IAFCode:           cert.IAFCode,
		IsValid:           cert.Status == StatusValid,
		Sites:             sites,
	}, nil
}

func (s *service) ExpiringSoon(ctx context.Context) ([]Certificate, error) {
	today := s.Today()
	return s.repo.ListExpiringBetween(ctx, today, today.AddDays(s.cfg.ExpiringSoonDays))
}

func (s *service) MaintenanceDue(ctx context.Context) ([]Certificate, error) {
	return s.repo.ListMaintenanceDue(ctx, s.Today())
}

// RenderPDF composes the certificate document. A missing or unreadable QR
// image is left out rather than failing the render.
func (s *service) RenderPDF(ctx context.Context, id uint) (*RenderedPDF, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}

	var qrPNG []byte
	if cert.QRCode != "" {
		qrPNG, err = storage.ReadAll(ctx, s.store, cert.QRCode)
		if err != nil {
			s.logger.Warn("QR code unavailable for PDF", zap.Uint("certificate_id", cert.ID), zap.Error(err))
			qrPNG = nil
		}
	}

	content, err := s.renderer.Render(cert, qrPNG)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate PDF: %w", err)
	}
	return &RenderedPDF{Filename: PDFFilename(cert), Content: content}, nil
}

func (s *service) ExportRegister(ctx context.Context, filter ListFilter) ([]byte, error) {
	certs, err := s.repo.ListCertificates(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(certs, s.Today())
}

// RefreshStatuses re-derives the status of every certificate that is not
// already EXPIRED and persists the ones that changed.
func (s *service) RefreshStatuses(ctx context.Context) (int, error) {
	certs, err := s.repo.ListByStatus(ctx, StatusValid, StatusSuspended, StatusWithdrawn)
	if err != nil {
		return 0, fmt.Errorf("failed to load certificates: %w", err)
	}

	today := s.Today()
	changed := 0
	for i := range certs {
		cert := &certs[i]
		previous := cert.Status
		if !cert.RecomputeStatus(today) {
			continue
		}
		if err := s.repo.UpdateCertificate(ctx, cert); err != nil {
			return changed, fmt.Errorf("failed to update certificate %d: %w", cert.ID, err)
		}
		s.logEvent(ctx, cert.ID, EventStatusChanged, "status-worker", map[string]any{"from": previous, "to": cert.Status})
		changed++
	}
	return changed, nil
}

// History returns the audit events of a certificate, oldest first.
func (s *service) History(ctx context.Context, id uint) ([]CertificateEvent, error) {
	if _, err := s.GetCertificate(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, id)
}

func (s *service) CreateSite(ctx context.Context, req CreateSiteRequest) (*CertificateSite, error) {
	if _, err := s.GetCertificate(ctx, req.CertificateID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fieldError("certificate", fmt.Sprintf("certificate %d does not exist", req.CertificateID))
		}
		return nil, err
	}

	verr := &ValidationError{}
	validateSite(verr, "", req.SiteInput)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	site := &CertificateSite{
		CertificateID: req.CertificateID,
		SiteNumber:    req.SiteNumber,
		Name:          strings.TrimSpace(req.Name),
		ScopeActivity: strings.TrimSpace(req.ScopeActivity),
		Address:       strings.TrimSpace(req.Address),
	}
	if err := s.repo.CreateSite(ctx, site); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fieldError("site_number", "site number already exists for this certificate")
		}
		return nil, err
	}
	return site, nil
}

func (s *service) GetSite(ctx context.Context, id uint) (*CertificateSite, error) {
	site, err := s.repo.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %d: %w", id, ErrSiteNotFound)
	}
	return site, nil
}

func (s *service) ListSites(ctx context.Context, certificateID *uint) ([]CertificateSite, error) {
	return s.repo.ListSites(ctx, certificateID)
}

func (s *service) UpdateSite(ctx context.Context, id uint, req UpdateSiteRequest) (*CertificateSite, error) {
	site, err := s.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.SiteNumber != nil {
		site.SiteNumber = *req.SiteNumber
	}
	applyText(verr, "name", req.Name, &site.Name, true)
	applyText(verr, "scope_activity", req.ScopeActivity, &site.ScopeActivity, true)
	applyText(verr, "address", req.Address, &site.Address, true)
	if site.SiteNumber == 0 {
		verr.add("site_number", "must be a positive number")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSite(ctx, site); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fieldError("site_number", "site number already exists for this certificate")
		}
		return nil, err
	}
	return site, nil
}

func (s *service) DeleteSite(ctx context.Context, id uint) error {
	if _, err := s.GetSite(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteSite(ctx, id)
}

func (s *service) logEvent(ctx context.Context, certificateID uint, action EventType, actor string, details map[string]any) {
	event := &CertificateEvent{
		CertificateID: certificateID,
		Action:        action,
		Actor:         actor,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			event.Details = datatypes.JSON(raw)
		}
	}
	if err := s.repo.LogEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to record certificate event",
			zap.Uint("certificate_id", certificateID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func validateCreate(req CreateCertificateRequest) error {
	verr := &ValidationError{}
	if req.Standard == "" {
		verr.add("standard", "this field is required")
	} else if !req.Standard.Known() {
		verr.add("standard", fmt.Sprintf("%q is not a supported standard", req.Standard))
	}
	requireText(verr, "company_name", req.CompanyName)
	requireText(verr, "scope_activity", req.ScopeActivity)
	requireText(verr, "iaf_code", req.IAFCode)
	requireDate(verr, "first_issue_date", req.FirstIssueDate)
	requireDate(verr, "expiry_date", req.ExpiryDate)
	next := Date{}
	if req.NextMaintenanceDate != nil {
		next = *req.NextMaintenanceDate
	}
	validateDates(verr, req.FirstIssueDate, req.ExpiryDate, next)

	seen := map[uint]bool{}
	for i, site := range req.Sites {
		prefix := fmt.Sprintf("sites[%d].", i)
		validateSite(verr, prefix, site)
		if seen[site.SiteNumber] {
			verr.add(prefix+"site_number", "site numbers must be unique within a certificate")
		}
		seen[site.SiteNumber] = true
	}
	return verr.orNil()
}

func validateDates(verr *ValidationError, first, expiry, next Date) {
	if first.IsZero() || expiry.IsZero() {
		return
	}
	if !expiry.After(first) {
		verr.add("expiry_date", "must be after first_issue_date")
	}
	if !next.IsZero() && next.Before(first) {
		verr.add("next_maintenance_date", "must not be before first_issue_date")
	}
}

func validateSite(verr *ValidationError, prefix string, site SiteInput) {
	if site.SiteNumber == 0 {
		verr.add(prefix+"site_number", "must be a positive number")
	}
	requireText(verr, prefix+"name", site.Name)
	requireText(verr, prefix+"scope_activity", site.ScopeActivity)
	requireText(verr, prefix+"address", site.Address)
}

func requireText(verr *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.add(field, "this field is required")
	}
}

func requireDate(verr *ValidationError, field string, value Date) {
	if value.IsZero() {
		verr.add(field, "this field is required")
	}
}

func applyText(verr *ValidationError, field string, value *string, dst *string, required bool) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if required && trimmed == "" {
		verr.add(field, "this field may not be blank")
		return
	}
	*dst = trimmed
}

func nonZero(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	v := *d
	return &v
}
