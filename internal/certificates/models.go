package certificates

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusValid     Status = "VALID"
	StatusSuspended Status = "SUSPENDED"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusExpired   Status = "EXPIRED"
)

var statusDisplay = map[Status]string{
	StatusValid:     "Valid/Active",
	StatusSuspended: "Suspended",
	StatusWithdrawn: "Withdrawn",
	StatusExpired:   "Expired",
}

// Display returns the human readable label of the status.
func (s Status) Display() string {
	if label, ok := statusDisplay[s]; ok {
		return label
	}
	return string(s)
}

// Known reports whether s is one of the defined statuses.
func (s Status) Known() bool {
	_, ok := statusDisplay[s]
	return ok
}

type Standard string

const (
	StandardISO9001  Standard = "ISO_9001_2015"
	StandardISO14001 Standard = "ISO_14001_2015"
	StandardISO45001 Standard = "ISO_45001_2023"
	StandardISO22000 Standard = "ISO_22000_2018"
	StandardISO27001 Standard = "ISO_27001_2022"
	StandardISO50001 Standard = "ISO_50001_2018"
	StandardISO37001 Standard = "ISO_37001_2025"
	StandardISO39001 Standard = "ISO_39001_2012"
	StandardISO22301 Standard = "ISO_22301_2019"
	StandardHACCP    Standard = "HACCP"
)

var standardDisplay = map[Standard]string{
	StandardISO9001:  "ISO 9001:2015",
	StandardISO14001: "ISO 14001:2015",
	StandardISO45001: "ISO 45001:2023",
	StandardISO22000: "ISO 22000:2018",
	StandardISO27001: "ISO 27001:2022",
	StandardISO50001: "ISO 50001:2018",
	StandardISO37001: "ISO 37001:2025",
	StandardISO39001: "ISO 39001:2012",
	StandardISO22301: "ISO 22301:2019",
	StandardHACCP:    "HACCP: Hazard Analysis and Critical Control Points",
}

// Standards lists every supported standard in display order.
func Standards() []Standard {
	return []Standard{
		StandardISO9001, StandardISO14001, StandardISO45001, StandardISO22000, StandardISO27001,
		StandardISO50001, StandardISO37001, StandardISO39001, StandardISO22301, StandardHACCP,
	}
}

// Display returns the printed name of the standard.
func (s Standard) Display() string {
	if label, ok := standardDisplay[s]; ok {
		return label
	}
	return string(s)
}

// Known reports whether s is a supported standard.
func (s Standard) Known() bool {
	_, ok := standardDisplay[s]
	return ok
}

// Certificate is a management system certificate issued to a company.
type Certificate struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	CertificateNumber   string            `gorm:"size:50;uniqueIndex;not null" json:"certificate_number"`
	SecureID            uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"secure_id"`
	Status              Status            `gorm:"size:20;not null;index" json:"status"`
	Standard            Standard          `gorm:"size:20;not null" json:"standard"`
	CompanyName         string            `gorm:"size:255;not null" json:"company_name"`
	ScopeActivity       string            `gorm:"type:text;not null" json:"scope_activity"`
	Address             string            `gorm:"type:text" json:"address"`
	IAFCode             string            `gorm:"size:50;not null" json:"iaf_code"`
	FirstIssueDate      Date              `gorm:"not null" json:"first_issue_date"`
	ExpiryDate          Date              `gorm:"not null;index" json:"expiry_date"`
	NextMaintenanceDate Date              `gorm:"not null;index" json:"next_maintenance_date"`
	LastMaintenanceDate *Date             `json:"last_maintenance_date"`
	ModificationDate    *Date             `json:"modification_date"`
	QRCode              string            `gorm:"size:255" json:"qr_code"`
	Sites               []CertificateSite `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sites"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func (Certificate) TableName() string { return "certificates" }

// CertificateSite is an additional location covered by a certificate.
type CertificateSite struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CertificateID uint      `gorm:"not null;uniqueIndex:idx_site_certificate_number" json:"certificate"`
	SiteNumber    uint      `gorm:"not null;uniqueIndex:idx_site_certificate_number" json:"site_number"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	ScopeActivity string    `gorm:"type:text;not null" json:"scope_activity"`
	Address       string    `gorm:"type:text;not null" json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (CertificateSite) TableName() string { return "certificate_sites" }

type EventType string

const (
	EventCreated       EventType = "CREATED"
	EventUpdated       EventType = "UPDATED"
	EventStatusChanged EventType = "STATUS_CHANGED"
	EventMaintenance   EventType = "MAINTENANCE"
	EventQRGenerated   EventType = "QR_GENERATED"
	EventQRFailed      EventType = "QR_FAILED"
)

// CertificateEvent is an append only audit record.
type CertificateEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CertificateID uint           `gorm:"not null;index" json:"certificate_id"`
	Action        EventType      `gorm:"size:40;not null" json:"action"`
	Actor         string         `gorm:"size:150" json:"actor"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (CertificateEvent) TableName() string { return "certificate_events" }

// Models lists the tables owned by this package for migration.
func Models() []interface{} {
	return []interface{}{&Certificate{}, &CertificateSite{}, &CertificateEvent{}}
}

// Verification is the public projection returned by the verify endpoint.
type Verification struct {
	CertificateNumber string            `json:"certificate_number"`
	CompanyName       string            `json:"company_name"`
	Standard          string            `json:"standard"`
	Status            string            `json:"status"`
	FirstIssueDate    Date              `json:"first_issue_date"`
	ExpiryDate        Date              `json:"expiry_date"`
	ScopeActivity     string            `json:"scope_activity"`
	IAFCode           string            `json:"iaf_code"`
	IsValid           bool              `json:"is_valid"`
	Sites             []CertificateSite `json:"sites"`
}

// QRCodeInfo describes a stored QR image. SecureURL is filled in by the
// HTTP layer when no public base URL is configured.
type QRCodeInfo struct {
	CertificateNumber string    `json:"certificate_number"`
	QRCodeURL         string    `json:"qr_code_url"`
	CompanyName       string    `json:"company_name"`
	Status            string    `json:"status"`
	SecureURL         string    `json:"secure_url"`
	VerificationURL   string    `json:"verification_url"`
	SecureID          uuid.UUID `json:"-"`
}

// RenderedPDF is a generated certificate document.
type RenderedPDF struct {
	Filename string
	Content  []byte
}

// ListFilter narrows certificate listings.
type ListFilter struct {
	Status   Status
	Standard Standard
	Search   string
	Ordering string
}

// SiteInput describes a site on create or update.
type SiteInput struct {
	SiteNumber    uint   `json:"site_number" binding:"required,min=1"`
	Name          string `json:"name" binding:"required,max=255"`
	ScopeActivity string `json:"scope_activity" binding:"required"`
	Address       string `json:"address" binding:"required"`
}

type CreateCertificateRequest struct {
	Standard            Standard    `json:"standard" binding:"required"`
	CompanyName         string      `json:"company_name" binding:"required,max=255"`
	ScopeActivity       string      `json:"scope_activity" binding:"required"`
	Address             string      `json:"address"`
	IAFCode             string      `json:"iaf_code" binding:"required,max=50"`
	FirstIssueDate      Date        `json:"first_issue_date"`
	ExpiryDate          Date        `json:"expiry_date"`
	NextMaintenanceDate *Date       `json:"next_maintenance_date"`
	ModificationDate    *Date       `json:"modification_date"`
	Sites               []SiteInput `json:"sites" binding:"dive"`
}

// UpdateCertificateRequest carries a partial update. Nil fields are left
// untouched.
type UpdateCertificateRequest struct {
	Standard            *Standard `json:"standard"`
	CompanyName         *string   `json:"company_name" binding:"omitempty,max=255"`
	ScopeActivity       *string   `json:"scope_activity"`
	Address             *string   `json:"address"`
	IAFCode             *string   `json:"iaf_code" binding:"omitempty,max=50"`
	FirstIssueDate      *Date     `json:"first_issue_date"`
	ExpiryDate          *Date     `json:"expiry_date"`
	NextMaintenanceDate *Date     `json:"next_maintenance_date"`
	LastMaintenanceDate *Date     `json:"last_maintenance_date"`
	ModificationDate    *Date     `json:"modification_date"`
	Status              *Status   `json:"status"`
}

type CreateSiteRequest struct {
	CertificateID uint `json:"certificate" binding:"required"`
	SiteInput
}

type UpdateSiteRequest struct {
	SiteNumber    *uint   `json:"site_number" binding:"omitempty,min=1"`
	Name          *string `json:"name" binding:"omitempty,max=255"`
	ScopeActivity *string `json:"scope_activity"`
	Address       *string `json:"address"`
}
