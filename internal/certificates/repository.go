package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateCertificate(ctx context.Context, cert *Certificate) error
	GetCertificateByID(ctx context.Context, id uint) (*Certificate, error)
	GetCertificateBySecureID(ctx context.Context, secureID uuid.UUID) (*Certificate, error)
	ListCertificates(ctx context.Context, filter ListFilter) ([]Certificate, error)
	UpdateCertificate(ctx context.Context, cert *Certificate) error
	UpdateQRCode(ctx context.Context, id uint, key string) error

	ListExpiringBetween(ctx context.Context, from, to Date) ([]Certificate, error)
	ListMaintenanceDue(ctx context.Context, today Date) ([]Certificate, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Certificate, error)

	CreateSite(ctx context.Context, site *CertificateSite) error
	GetSite(ctx context.Context, id uint) (*CertificateSite, error)
	ListSites(ctx context.Context, certificateID *uint) ([]CertificateSite, error)
	UpdateSite(ctx context.Context, site *CertificateSite) error
	DeleteSite(ctx context.Context, id uint) error

	LogEvent(ctx context.Context, event *CertificateEvent) error
	ListEvents(ctx context.Context, certificateID uint) ([]CertificateEvent, error)
}

var orderings = map[string]string{
	"created_at":             "created_at ASC",
	"-created_at":            "created_at DESC",
	"expiry_date":            "expiry_date ASC",
	"-expiry_date":           "expiry_date DESC",
	"next_maintenance_date":  "next_maintenance_date ASC",
	"-next_maintenance_date": "next_maintenance_date DESC",
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed repository. The db should be opened
// with TranslateError so unique violations surface as ErrDuplicate.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *gormRepository) withSites(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Sites", func(db *gorm.DB) *gorm.DB {
		return db.Order("site_number ASC")
	})
}

func (r *gormRepository) CreateCertificate(ctx context.Context, cert *Certificate) error {
	return translate(r.db.WithContext(ctx).Create(cert).Error)
}

func (r *gormRepository) GetCertificateByID(ctx context.Context, id uint) (*Certificate, error) {
	var cert Certificate
	err := r.withSites(ctx).First(&cert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *gormRepository) GetCertificateBySecureID(ctx context.Context, secureID uuid.UUID) (*Certificate, error) {
	var cert Certificate
	err := r.withSites(ctx).Where("secure_id = ?", secureID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *gormRepository) ListCertificates(ctx context.Context, filter ListFilter) ([]Certificate, error) {
	query := r.withSites(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Standard != "" {
		query = query.Where("standard = ?", filter.Standard)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(certificate_number) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(scope_activity) LIKE ?",
			like, like, like,
		)
	}

	order, ok := orderings[filter.Ordering]
	if !ok {
		order = orderings["-created_at"]
	}

	var certs []Certificate
	if err := query.Order(order).Order("id DESC").Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *gormRepository) UpdateCertificate(ctx context.Context, cert *Certificate) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(cert).Error)
}

func (r *gormRepository) UpdateQRCode(ctx context.Context, id uint, key string) error {
	return r.db.WithContext(ctx).Model(&Certificate{}).Where("id = ?", id).Update("qr_code", key).Error
}

func (r *gormRepository) ListExpiringBetween(ctx context.Context, from, to Date) ([]Certificate, error) {
	var certs []Certificate
	err := r.withSites(ctx).
		Where("status = ? AND expiry_date >= ? AND expiry_date <= ?", StatusValid, from, to).
		Order("expiry_date ASC").
		Find(&certs).Error
	return certs, err
}

func (r *gormRepository) ListMaintenanceDue(ctx context.Context, today Date) ([]Certificate, error) {
	var certs []Certificate
	err := r.withSites(ctx).
		Where("status = ? AND next_maintenance_date <= ?", StatusValid, today).
		Order("next_maintenance_date ASC").
		Find(&certs).Error
	return certs, err
}

func (r *gormRepository) ListByStatus(ctx context.Context, statuses ...Status) ([]Certificate, error) {
	var certs []Certificate
	err := r.db.WithContext(ctx).Where("status IN ?", statuses).Order("id ASC").Find(&certs).Error
	return certs, err
}

func (r *gormRepository) CreateSite(ctx context.Context, site *CertificateSite) error {
	return translate(r.db.WithContext(ctx).Create(site).Error)
}

func (r *gormRepository) GetSite(ctx context.Context, id uint) (*CertificateSite, error) {
	var site CertificateSite
	err := r.db.WithContext(ctx).First(&site, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *gormRepository) ListSites(ctx context.Context, certificateID *uint) ([]CertificateSite, error) {
	query := r.db.WithContext(ctx)
	if certificateID != nil {
		query = query.Where("certificate_id = ?", *certificateID)
	}
	var sites []CertificateSite
	err := query.Order("certificate_id ASC").Order("site_number ASC").Find(&sites).Error
	return sites, err
}

func (r *gormRepository) UpdateSite(ctx context.Context, site *CertificateSite) error {
	return translate(r.db.WithContext(ctx).Save(site).Error)
}

func (r *gormRepository) DeleteSite(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&CertificateSite{}, id).Error
}

func (r *gormRepository) LogEvent(ctx context.Context, event *CertificateEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormRepository) ListEvents(ctx context.Context, certificateID uint) ([]CertificateEvent, error) {
	var events []CertificateEvent
	err := r.db.WithContext(ctx).Where("certificate_id = ?", certificateID).Order("id ASC").Find(&events).Error
	return events, err
}
