package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"msc-cert/portal-backend/pkg/qr"
	"msc-cert/portal-backend/pkg/storage"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateCertificate(ctx context.Context, cert *Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockRepository) GetCertificateByID(ctx context.Context, id uint) (*Certificate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Certificate), args.Error(1)
}

func (m *MockRepository) GetCertificateBySecureID(ctx context.Context, secureID uuid.UUID) (*Certificate, error) {
	args := m.Called(ctx, secureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Certificate), args.Error(1)
}

func (m *MockRepository) ListCertificates(ctx context.Context, filter ListFilter) ([]Certificate, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Certificate), args.Error(1)
}

func (m *MockRepository) UpdateCertificate(ctx context.Context, cert *Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockRepository) UpdateQRCode(ctx context.Context, id uint, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockRepository) ListExpiringBetween(ctx context.Context, from, to Date) ([]Certificate, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]Certificate), args.Error(1)
}

func (m *MockRepository) ListMaintenanceDue(ctx context.Context, today Date) ([]Certificate, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]Certificate), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, statuses ...Status) ([]Certificate, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).([]Certificate), args.Error(1)
}

func (m *MockRepository) CreateSite(ctx context.Context, site *CertificateSite) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockRepository) GetSite(ctx context.Context, id uint) (*CertificateSite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CertificateSite), args.Error(1)
}

func (m *MockRepository) ListSites(ctx context.Context, certificateID *uint) ([]CertificateSite, error) {
	args := m.Called(ctx, certificateID)
	return args.Get(0).([]CertificateSite), args.Error(1)
}

func (m *MockRepository) UpdateSite(ctx context.Context, site *CertificateSite) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockRepository) DeleteSite(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) LogEvent(ctx context.Context, event *CertificateEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) ListEvents(ctx context.Context, certificateID uint) ([]CertificateEvent, error) {
	args := m.Called(ctx, certificateID)
	return args.Get(0).([]CertificateEvent), args.Error(1)
}

// memoryStore keeps objects in a map.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) URL(_ context.Context, key string) (string, error) {
	return "/media/" + key, nil
}

type recordingRenderer struct {
	cert  *Certificate
	qrPNG []byte
	calls int
}

func (r *recordingRenderer) Render(cert *Certificate, qrPNG []byte) ([]byte, error) {
	r.cert, r.qrPNG = cert, qrPNG
	r.calls++
	return []byte("%PDF-1.3 test"), nil
}

type testService struct {
	Service
	repo     *MockRepository
	store    *memoryStore
	renderer *recordingRenderer
	clock    *time.Time
}

func newTestService(t *testing.T, today Date, opts ...Option) *testService {
	t.Helper()
	now := time.Date(today.Year(), today.Month(), today.Day(), 10, 0, 0, 0, time.UTC)
	ts := &testService{
		repo:     new(MockRepository),
		store:    newMemoryStore(),
		renderer: &recordingRenderer{},
		clock:    &now,
	}
	opts = append([]Option{WithClock(func() time.Time { return *ts.clock })}, opts...)
	ts.Service = NewService(ts.repo, ts.store, qr.NewGenerator(qr.DefaultOptions()), ts.renderer, nil,
		ServiceConfig{FrontendURL: "https://msc-cert.com/", ExpiringSoonDays: 90}, nil, opts...)
	return ts
}

func (ts *testService) setToday(d Date) {
	now := time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, time.UTC)
	*ts.clock = now
}

func (ts *testService) expectEvents() {
	ts.repo.On("LogEvent", mock.Anything, mock.AnythingOfType("*certificates.CertificateEvent")).Return(nil)
}

func decodeQR(t *testing.T, data []byte) string {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return result.GetText()
}

func validRequest() CreateCertificateRequest {
	return CreateCertificateRequest{
		Standard:       StandardISO9001,
		CompanyName:    "  Acme sh.p.k. ",
		ScopeActivity:  "Construction works",
		IAFCode:        "28",
		FirstIssueDate: NewDate(2023, 1, 10),
		ExpiryDate:     NewDate(2026, 1, 9),
	}
}

func loggedActions(repo *MockRepository) []EventType {
	var actions []EventType
	for _, call := range repo.Calls {
		if call.Method == "LogEvent" {
			actions = append(actions, call.Arguments.Get(1).(*CertificateEvent).Action)
		}
	}
	return actions
}

func TestCreateCertificateDefaultsAndQRCode(t *testing.T) {
	ts := newTestService(t, NewDate(2023, 1, 10), WithNumberGenerator(func(time.Time) string { return "CERT-2023-AAAAAAAA" }))
	ctx := context.Background()

	ts.repo.On("CreateCertificate", ctx, mock.AnythingOfType("*certificates.Certificate")).
		Run(func(args mock.Arguments) { args.Get(1).(*Certificate).ID = 1 }).
		Return(nil)
	ts.repo.On("UpdateQRCode", ctx, uint(1), "certificate_qr_codes/qr_CERT-2023-AAAAAAAA.png").Return(nil)
	ts.expectEvents()

	cert, err := ts.CreateCertificate(ctx, validRequest(), "admin")
	require.NoError(t, err)

	assert.Equal(t, "CERT-2023-AAAAAAAA", cert.CertificateNumber)
	assert.Equal(t, "Acme sh.p.k.", cert.CompanyName)
	assert.Equal(t, StatusValid, cert.Status)
	assert.Equal(t, "2024-01-10", cert.NextMaintenanceDate.String())
	assert.NotEqual(t, uuid.Nil, cert.SecureID)
	assert.Equal(t, "certificate_qr_codes/qr_CERT-2023-AAAAAAAA.png", cert.QRCode)

	stored := ts.store.objects[cert.QRCode]
	require.NotEmpty(t, stored)
	assert.Equal(t, "https://msc-cert.com/certificate/"+cert.SecureID.String(), decodeQR(t, stored))

	assert.Equal(t, []EventType{EventCreated, EventQRGenerated}, loggedActions(ts.repo))
	ts.repo.AssertExpectations(t)
}

func TestCreateCertificateValidation(t *testing.T) {
	ts := newTestService(t, NewDate(2023, 1, 10))

	req := validRequest()
	req.Standard = "ISO_0000"
	req.CompanyName = " "
	req.ExpiryDate = NewDate(2022, 1, 1)
	req.Sites = []SiteInput{
		{SiteNumber: 1, Name: "A", ScopeActivity: "x", Address: "y"},
		{SiteNumber: 1, Name: "B", ScopeActivity: "x", Address: "y"},
	}

	_, err := ts.CreateCertificate(context.Background(), req, "admin")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "standard")
	assert.Contains(t, verr.Fields, "company_name")
	assert.Contains(t, verr.Fields, "expiry_date")
	assert.Contains(t, verr.Fields, "sites[1].site_number")
	ts.repo.AssertNotCalled(t, "CreateCertificate", mock.Anything, mock.Anything)
}

func TestCreateCertificateRetriesNumberCollision(t *testing.T) {
	numbers := []string{"CERT-2023-11111111", "CERT-2023-22222222"}
	calls := 0
	gen := func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}
	ts := newTestService(t, NewDate(2023, 1, 10), WithNumberGenerator(gen))
	ctx := context.Background()

	ts.repo.On("CreateCertificate", ctx, mock.MatchedBy(func(c *Certificate) bool {
		return c.CertificateNumber == "CERT-2023-11111111"
	})).Return(fmt.Errorf("%w: unique violation", ErrDuplicate)).Once()
	ts.repo.On("CreateCertificate", ctx, mock.MatchedBy(func(c *Certificate) bool {
		return c.CertificateNumber == "CERT-2023-22222222"
	})).Run(func(args mock.Arguments) { args.Get(1).(*Certificate).ID = 9 }).Return(nil).Once()
	ts.repo.On("UpdateQRCode", ctx, uint(9), mock.Anything).Return(nil)
	ts.expectEvents()

	cert, err := ts.CreateCertificate(ctx, validRequest(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "CERT-2023-22222222", cert.CertificateNumber)
	assert.Equal(t, 2, calls)
	ts.repo.AssertExpectations(t)
}

func TestCreateCertificateGivesUpAfterRepeatedCollisions(t *testing.T) {
	ts := newTestService(t, NewDate(2023, 1, 10))
	ts.repo.On("CreateCertificate", mock.Anything, mock.Anything).Return(ErrDuplicate)

	_, err := ts.CreateCertificate(context.Background(), validRequest(), "admin")
	assert.ErrorIs(t, err, ErrNumberExhausted)
	ts.repo.AssertNumberOfCalls(t, "CreateCertificate", maxNumberAttempts)
}

func TestCreateCertificateSurfacesQRFailure(t *testing.T) {
	ts := newTestService(t, NewDate(2023, 1, 10))
	ts.store.putErr = errors.New("disk full")
	ctx := context.Background()

	ts.repo.On("CreateCertificate", ctx, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*Certificate).ID = 3 }).
		Return(nil)
	ts.expectEvents()

	cert, err := ts.CreateCertificate(ctx, validRequest(), "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQRGeneration)
	require.NotNil(t, cert)
	assert.Equal(t, uint(3), cert.ID)
	assert.Empty(t, cert.QRCode)
	assert.Equal(t, []EventType{EventCreated, EventQRFailed}, loggedActions(ts.repo))
	ts.repo.AssertNotCalled(t, "UpdateQRCode", mock.Anything, mock.Anything, mock.Anything)
}

// A certificate issued 2023-01-10 with maintenance due 2024-01-10 is VALID on
// that day, EXPIRED the day after, and VALID again after maintenance.
func TestMaintenanceScenario(t *testing.T) {
	ctx := context.Background()
	cert := &Certificate{
		ID:                  5,
		CertificateNumber:   "CERT-2023-0000ABCD",
		SecureID:            uuid.New(),
		Status:              StatusValid,
		Standard:            StandardISO9001,
		FirstIssueDate:      NewDate(2023, 1, 10),
		ExpiryDate:          NewDate(2026, 1, 9),
		NextMaintenanceDate: NewDate(2024, 1, 10),
		QRCode:              "certificate_qr_codes/qr_CERT-2023-0000ABCD.png",
	}
	ts := newTestService(t, NewDate(2024, 1, 10))
	ts.repo.On("ListByStatus", ctx, []Status{StatusValid, StatusSuspended, StatusWithdrawn}).
		Return([]Certificate{*cert}, nil).Once()

	changed, err := ts.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	ts.setToday(NewDate(2024, 1, 11))
	ts.repo.On("ListByStatus", ctx, []Status{StatusValid, StatusSuspended, StatusWithdrawn}).
		Return([]Certificate{*cert}, nil).Once()
	ts.repo.On("UpdateCertificate", ctx, mock.MatchedBy(func(c *Certificate) bool {
		return c.Status == StatusExpired
	})).Return(nil).Once()
	ts.expectEvents()

	changed, err = ts.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	cert.Status = StatusExpired
	ts.repo.On("GetCertificateByID", ctx, uint(5)).Return(cert, nil)
	ts.repo.On("UpdateCertificate", ctx, mock.MatchedBy(func(c *Certificate) bool {
		return c.Status == StatusValid
	})).Return(nil).Once()

	updated, err := ts.PerformMaintenance(ctx, 5, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusValid, updated.Status)
	assert.Equal(t, "2025-01-11", updated.NextMaintenanceDate.String())
	require.NotNil(t, updated.LastMaintenanceDate)
	assert.Equal(t, "2024-01-11", updated.LastMaintenanceDate.String())
	assert.Contains(t, loggedActions(ts.repo), EventMaintenance)
	ts.repo.AssertExpectations(t)
}

func TestUpdateCertificateRejectsDisallowedTransition(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 6, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(2)).Return(&Certificate{
		ID:                  2,
		Status:              StatusExpired,
		Standard:            StandardISO9001,
		FirstIssueDate:      NewDate(2020, 1, 1),
		ExpiryDate:          NewDate(2023, 1, 1),
		NextMaintenanceDate: NewDate(2022, 1, 1),
	}, nil)

	valid := StatusValid
	_, err := ts.UpdateCertificate(ctx, 2, UpdateCertificateRequest{Status: &valid}, "admin")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "status")
	ts.repo.AssertNotCalled(t, "UpdateCertificate", mock.Anything, mock.Anything)
}

func TestUpdateCertificateSuspendsAndLogsStatusChange(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 6, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(2)).Return(&Certificate{
		ID:                  2,
		Status:              StatusValid,
		Standard:            StandardISO9001,
		CompanyName:         "Acme",
		FirstIssueDate:      NewDate(2024, 1, 1),
		ExpiryDate:          NewDate(2027, 1, 1),
		NextMaintenanceDate: NewDate(2025, 1, 1),
		QRCode:              "certificate_qr_codes/qr_x.png",
	}, nil)
	ts.repo.On("UpdateCertificate", ctx, mock.Anything).Return(nil)
	ts.expectEvents()

	suspended := StatusSuspended
	name := "Acme Group"
	cert, err := ts.UpdateCertificate(ctx, 2, UpdateCertificateRequest{Status: &suspended, CompanyName: &name}, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, cert.Status)
	assert.Equal(t, "Acme Group", cert.CompanyName)
	assert.Equal(t, []EventType{EventUpdated, EventStatusChanged}, loggedActions(ts.repo))
}

func TestVerifyCertificateUniformNotFound(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 6, 1))

	_, err := ts.VerifyCertificate(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	ts.repo.AssertNotCalled(t, "GetCertificateBySecureID", mock.Anything, mock.Anything)

	unknown := uuid.New()
	ts.repo.On("GetCertificateBySecureID", ctx, unknown).Return(nil, nil)
	_, err = ts.VerifyCertificate(ctx, unknown.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyCertificateProjection(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 6, 1))
	id := uuid.New()
	ts.repo.On("GetCertificateBySecureID", ctx, id).Return(&Certificate{
		CertificateNumber: "CERT-2024-ABCDEF12",
		SecureID:          id,
		Status:            StatusSuspended,
		Standard:          StandardISO14001,
		CompanyName:       "Acme",
		IAFCode:           "28",
		FirstIssueDate:    NewDate(2024, 1, 1),
		ExpiryDate:        NewDate(2027, 1, 1),
	}, nil)

	v, err := ts.VerifyCertificate(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "ISO 14001:2015", v.Standard)
	assert.Equal(t, "Suspended", v.Status)
	assert.False(t, v.IsValid)
	assert.NotNil(t, v.Sites)
}

func TestExpiringSoonWindow(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	ts.repo.On("ListExpiringBetween", ctx, NewDate(2024, 1, 1), NewDate(2024, 3, 31)).
		Return([]Certificate{{ID: 1}}, nil)

	certs, err := ts.ExpiringSoon(ctx)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
	ts.repo.AssertExpectations(t)
}

func TestQRCodeInfo(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	id := uuid.New()
	ts.repo.On("GetCertificateByID", ctx, uint(1)).Return(&Certificate{ID: 1}, nil)
	ts.repo.On("GetCertificateByID", ctx, uint(2)).Return(&Certificate{
		ID:                2,
		CertificateNumber: "CERT-2024-ABCDEF12",
		CompanyName:       "Acme",
		Status:            StatusValid,
		SecureID:          id,
		QRCode:            "certificate_qr_codes/qr_CERT-2024-ABCDEF12.png",
	}, nil)

	_, err := ts.QRCodeInfo(ctx, 1)
	assert.ErrorIs(t, err, ErrQRMissing)

	info, err := ts.QRCodeInfo(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "/media/certificate_qr_codes/qr_CERT-2024-ABCDEF12.png", info.QRCodeURL)
	assert.Equal(t, "Valid/Active", info.Status)
	assert.Equal(t, "https://msc-cert.com/certificate/"+id.String(), info.VerificationURL)
	assert.Empty(t, info.SecureURL)
}

func TestRenderPDFWithoutStoredQRCode(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(4)).Return(&Certificate{
		ID:                4,
		CertificateNumber: "CERT-2024-ABCDEF12",
		QRCode:            "certificate_qr_codes/missing.png",
	}, nil)

	doc, err := ts.RenderPDF(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "certificate_CERT-2024-ABCDEF12.pdf", doc.Filename)
	assert.Equal(t, 1, ts.renderer.calls)
	assert.Nil(t, ts.renderer.qrPNG)
}

func TestRegenerateQRCodeReplacesObject(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	key := "certificate_qr_codes/qr_CERT-2024-ABCDEF12.png"
	ts.store.objects[key] = []byte("stale")

	ts.repo.On("GetCertificateByID", ctx, uint(6)).Return(&Certificate{
		ID:                6,
		CertificateNumber: "CERT-2024-ABCDEF12",
		SecureID:          uuid.New(),
		QRCode:            key,
	}, nil)
	ts.repo.On("UpdateQRCode", ctx, uint(6), "").Return(nil).Once()
	ts.repo.On("UpdateQRCode", ctx, uint(6), key).Return(nil).Once()
	ts.expectEvents()

	cert, err := ts.RegenerateQRCode(ctx, 6, "admin")
	require.NoError(t, err)
	assert.Equal(t, key, cert.QRCode)
	assert.NotEqual(t, []byte("stale"), ts.store.objects[key])
	ts.repo.AssertExpectations(t)
}

func TestCreateSiteDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(1)).Return(&Certificate{ID: 1}, nil)
	ts.repo.On("CreateSite", ctx, mock.Anything).Return(fmt.Errorf("%w: idx", ErrDuplicate))

	_, err := ts.CreateSite(ctx, CreateSiteRequest{
		CertificateID: 1,
		SiteInput:     SiteInput{SiteNumber: 1, Name: "Warehouse", ScopeActivity: "Storage", Address: "Durrës"},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "site_number")
}

func TestCreateSiteUnknownCertificate(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 1, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(99)).Return(nil, nil)

	_, err := ts.CreateSite(ctx, CreateSiteRequest{CertificateID: 99})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "certificate")
}

func TestUpdateCertificateRequiresDates(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(t, NewDate(2024, 6, 1))
	ts.repo.On("GetCertificateByID", ctx, uint(2)).Return(&Certificate{
		ID:                  2,
		Status:              StatusValid,
		Standard:            StandardISO9001,
		FirstIssueDate:      NewDate(2024, 1, 1),
		ExpiryDate:          NewDate(2027, 1, 1),
		NextMaintenanceDate: NewDate(2025, 1, 1),
	}, nil)

	_, err := ts.UpdateCertificate(ctx, 2, UpdateCertificateRequest{ExpiryDate: &Date{}}, "admin")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "this field is required", verr.Fields["expiry_date"])
	ts.repo.AssertNotCalled(t, "UpdateCertificate", mock.Anything, mock.Anything)
}
