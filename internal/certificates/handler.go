package certificates

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"msc-cert/portal-backend/internal/auth"
)

const (
	verifyNotFoundMessage = "Certificate not found or invalid UUID"
	xlsxContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var registerTagNames sync.Once

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the public verification route on public and every
// other route on admin, which is expected to carry the admin middleware.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/certificates/verify/", h.Verify)
	public.GET("/certificates/verify/:secure_id/", h.Verify)

	certs := admin.Group("/certificates")
	{
		certs.GET("/", h.List)
		certs.POST("/", h.Create)
		certs.GET("/expiring_soon/", h.ExpiringSoon)
		certs.GET("/maintenance_due/", h.MaintenanceDue)
		certs.GET("/export/", h.Export)
		certs.GET("/:id/", h.Get)
		certs.PUT("/:id/", h.Update)
		certs.PATCH("/:id/", h.Update)
		certs.POST("/:id/perform_maintenance/", h.PerformMaintenance)
		certs.GET("/:id/qr_code/", h.QRCode)
		certs.POST("/:id/regenerate_qr/", h.RegenerateQR)
		certs.GET("/:id/download_pdf/", h.DownloadPDF)
		certs.GET("/:id/history/", h.History)
	}

	sites := admin.Group("/sites")
	{
		sites.GET("/", h.ListSites)
		sites.POST("/", h.CreateSite)
		sites.GET("/:id/", h.GetSite)
		sites.PUT("/:id/", h.UpdateSite)
		sites.PATCH("/:id/", h.UpdateSite)
		sites.DELETE("/:id/", h.DeleteSite)
	}
}

// certificateResponse adds the derived read only fields to admin payloads.
type certificateResponse struct {
	*Certificate
	StatusDisplay    string `json:"status_display"`
	StandardDisplay  string `json:"standard_display"`
	IsMaintenanceDue bool   `json:"is_maintenance_due"`
	DaysUntilExpiry  int    `json:"days_until_expiry"`
}

func (h *Handler) present(cert *Certificate) certificateResponse {
	if cert.Sites == nil {
		cert.Sites = []CertificateSite{}
	}
	today := h.service.Today()
	return certificateResponse{
		Certificate:      cert,
		StatusDisplay:    cert.Status.Display(),
		StandardDisplay:  cert.Standard.Display(),
		IsMaintenanceDue: cert.IsMaintenanceDue(today),
		DaysUntilExpiry:  cert.DaysUntilExpiry(today),
	}
}

func (h *Handler) presentAll(certs []Certificate) []certificateResponse {
	out := make([]certificateResponse, 0, len(certs))
	for i := range certs {
		out = append(out, h.present(&certs[i]))
	}
	return out
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body and reports binding problems per field.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = describe(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return false
	}
	var terr *json.UnmarshalTypeError
	if errors.As(err, &terr) && terr.Field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{terr.Field: describeType(terr)}})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}

func describeType(err *json.UnmarshalTypeError) string {
	if err.Type == reflect.TypeOf(Date{}) {
		return "date has wrong format, use YYYY-MM-DD"
	}
	return fmt.Sprintf("expected a value of type %s", err.Type.Kind())
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ReplaceAll(ns, "SiteInput.", "")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("certificate %s not found", c.Param("id"))})
	case errors.Is(err, ErrSiteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("site %s not found", c.Param("id"))})
	case errors.Is(err, ErrQRMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrQRMissing.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// respondWithQRFailure reports a committed write whose QR step failed.
func (h *Handler) respondWithQRFailure(c *gin.Context, cert *Certificate, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":       err.Error(),
		"qr_code":     "missing",
		"certificate": h.present(cert),
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateCertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	cert, err := h.service.CreateCertificate(c.Request.Context(), req, auth.Username(c))
	if err != nil {
		if errors.Is(err, ErrQRGeneration) && cert != nil {
			h.respondWithQRFailure(c, cert, err)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.present(cert))
}

func (h *Handler) List(c *gin.Context) {
	certs, err := h.service.ListCertificates(c.Request.Context(), listFilter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(certs))
}

func listFilter(c *gin.Context) ListFilter {
	return ListFilter{
		Status:   Status(strings.ToUpper(c.Query("status"))),
		Standard: Standard(c.Query("standard")),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cert, err := h.service.GetCertificate(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(cert))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateCertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	cert, err := h.service.UpdateCertificate(c.Request.Context(), id, req, auth.Username(c))
	if err != nil {
		if errors.Is(err, ErrQRGeneration) && cert != nil {
			h.respondWithQRFailure(c, cert, err)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(cert))
}

func (h *Handler) PerformMaintenance(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cert, err := h.service.PerformMaintenance(c.Request.Context(), id, auth.Username(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":               "Maintenance performed successfully",
		"next_maintenance_date": cert.NextMaintenanceDate,
		"status":                cert.Status.Display(),
	})
}

func (h *Handler) QRCode(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	info, err := h.service.QRCodeInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	base := requestBaseURL(c)
	if strings.HasPrefix(info.QRCodeURL, "/") {
		info.QRCodeURL = base + info.QRCodeURL
	}
	if info.SecureURL == "" {
		info.SecureURL = SecureURL(base, info.SecureID)
	}
	c.JSON(http.StatusOK, info)
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}

func (h *Handler) RegenerateQR(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cert, err := h.service.RegenerateQRCode(c.Request.Context(), id, auth.Username(c))
	if err != nil {
		if errors.Is(err, ErrQRGeneration) && cert != nil {
			h.respondWithQRFailure(c, cert, err)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(cert))
}

// Verify is public. Every failure maps to the same 404 body.
func (h *Handler) Verify(c *gin.Context) {
	result, err := h.service.VerifyCertificate(c.Request.Context(), c.Param("secure_id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("Verification lookup failed", zap.Error(err))
		}
		c.JSON(http.StatusNotFound, gin.H{"error": verifyNotFoundMessage})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ExpiringSoon(c *gin.Context) {
	certs, err := h.service.ExpiringSoon(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(certs))
}

func (h *Handler) MaintenanceDue(c *gin.Context) {
	certs, err := h.service.MaintenanceDue(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(certs))
}

func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.service.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func (h *Handler) Export(c *gin.Context) {
	content, err := h.service.ExportRegister(c.Request.Context(), listFilter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	filename := fmt.Sprintf("certificates_%s.xlsx", h.service.Today().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}

func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	events, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if events == nil {
		events = []CertificateEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) ListSites(c *gin.Context) {
	var certificateID *uint
	if raw := c.Query("certificate"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate id"})
			return
		}
		v := uint(id)
		certificateID = &v
	}

	sites, err := h.service.ListSites(c.Request.Context(), certificateID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sites == nil {
		sites = []CertificateSite{}
	}
	c.JSON(http.StatusOK, sites)
}

func (h *Handler) CreateSite(c *gin.Context) {
	var req CreateSiteRequest
	if !bindJSON(c, &req) {
		return
	}
	site, err := h.service.CreateSite(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (h *Handler) GetSite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	site, err := h.service.GetSite(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *Handler) UpdateSite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateSiteRequest
	if !bindJSON(c, &req) {
		return
	}
	site, err := h.service.UpdateSite(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *Handler) DeleteSite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSite(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
