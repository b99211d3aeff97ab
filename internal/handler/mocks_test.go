package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/domain"
	"github.com/picktoride/service-rental/internal/platform/response"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) CreateBooking(ctx context.Context, customerID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error) {
	args := m.Called(ctx, customerID, req)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func (m *mockBookings) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.BookingDTO, error) {
	args := m.Called(ctx, bookingID, actor)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func (m *mockBookings) EditBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.EditBookingRequest) (*application.BookingDTO, error) {
	args := m.Called(ctx, bookingID, actor, req)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func (m *mockBookings) GetBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.BookingDTO, error) {
	args := m.Called(ctx, bookingID, actor)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func (m *mockBookings) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error) {
	args := m.Called(ctx, customerID, page, limit)
	res, _ := args.Get(0).(*domain.PaginatedResult[application.BookingDTO])
	return res, args.Error(1)
}

type mockAllocations struct{ mock.Mock }

func (m *mockAllocations) HandOver(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.HandOverRequest) (*application.HandOverDTO, error) {
	args := m.Called(ctx, bookingID, actor, req)
	dto, _ := args.Get(0).(*application.HandOverDTO)
	return dto, args.Error(1)
}

func (m *mockAllocations) Return(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.ReturnRequest) (*application.ReturnDTO, error) {
	args := m.Called(ctx, bookingID, actor, req)
	dto, _ := args.Get(0).(*application.ReturnDTO)
	return dto, args.Error(1)
}

func (m *mockAllocations) RequestExtension(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.ExtensionRequestInput) (*application.ExtensionDTO, error) {
	args := m.Called(ctx, bookingID, actor, req)
	dto, _ := args.Get(0).(*application.ExtensionDTO)
	return dto, args.Error(1)
}

func (m *mockAllocations) ReviewExtension(ctx context.Context, extensionID uuid.UUID, actor application.Actor, req application.ReviewExtensionRequest) (*application.ExtensionDTO, error) {
	args := m.Called(ctx, extensionID, actor, req)
	dto, _ := args.Get(0).(*application.ExtensionDTO)
	return dto, args.Error(1)
}

func (m *mockAllocations) ListPendingExtensions(ctx context.Context, page, limit int) (*domain.PaginatedResult[application.ExtensionDTO], error) {
	args := m.Called(ctx, page, limit)
	res, _ := args.Get(0).(*domain.PaginatedResult[application.ExtensionDTO])
	return res, args.Error(1)
}

func (m *mockAllocations) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]application.HandOverDTO, []application.ReturnDTO, error) {
	args := m.Called(ctx, bookingID)
	h, _ := args.Get(0).([]application.HandOverDTO)
	r, _ := args.Get(1).([]application.ReturnDTO)
	return h, r, args.Error(2)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Pay(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.PayRequest) (*application.PaymentResultDTO, error) {
	args := m.Called(ctx, bookingID, actor, req)
	dto, _ := args.Get(0).(*application.PaymentResultDTO)
	return dto, args.Error(1)
}

func (m *mockPayments) GetLatestPayment(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.PaymentDTO, error) {
	args := m.Called(ctx, bookingID, actor)
	dto, _ := args.Get(0).(*application.PaymentDTO)
	return dto, args.Error(1)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) (*domain.PaginatedResult[application.NotificationDTO], error) {
	args := m.Called(ctx, userID, unreadOnly, page, limit)
	res, _ := args.Get(0).(*domain.PaginatedResult[application.NotificationDTO])
	return res, args.Error(1)
}

func (m *mockNotifications) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

type mockFleet struct{ mock.Mock }

func (m *mockFleet) RegisterCar(ctx context.Context, actor application.Actor, req application.RegisterCarRequest) (*application.CarDTO, error) {
	args := m.Called(ctx, actor, req)
	dto, _ := args.Get(0).(*application.CarDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) GetCar(ctx context.Context, carID uuid.UUID) (*application.CarDTO, error) {
	args := m.Called(ctx, carID)
	dto, _ := args.Get(0).(*application.CarDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) ListCars(ctx context.Context, activeOnly bool, page, limit int) (*domain.PaginatedResult[application.CarDTO], error) {
	args := m.Called(ctx, activeOnly, page, limit)
	res, _ := args.Get(0).(*domain.PaginatedResult[application.CarDTO])
	return res, args.Error(1)
}

func (m *mockFleet) DeactivateCar(ctx context.Context, carID uuid.UUID, actor application.Actor) (*application.CarDTO, error) {
	args := m.Called(ctx, carID, actor)
	dto, _ := args.Get(0).(*application.CarDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) RegisterStaff(ctx context.Context, actor application.Actor, req application.RegisterStaffRequest) (*application.StaffDTO, error) {
	args := m.Called(ctx, actor, req)
	dto, _ := args.Get(0).(*application.StaffDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) ListDrivers(ctx context.Context) ([]application.StaffDTO, error) {
	args := m.Called(ctx)
	drivers, _ := args.Get(0).([]application.StaffDTO)
	return drivers, args.Error(1)
}

func (m *mockFleet) SetStaffUnavailable(ctx context.Context, staffID uuid.UUID, actor application.Actor) (*application.StaffDTO, error) {
	args := m.Called(ctx, staffID, actor)
	dto, _ := args.Get(0).(*application.StaffDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) StartMaintenance(ctx context.Context, actor application.Actor, req application.StartMaintenanceRequest) (*application.MaintenanceDTO, error) {
	args := m.Called(ctx, actor, req)
	dto, _ := args.Get(0).(*application.MaintenanceDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) CompleteMaintenance(ctx context.Context, maintenanceID uuid.UUID, actor application.Actor, req application.CompleteMaintenanceRequest) (*application.MaintenanceDTO, error) {
	args := m.Called(ctx, maintenanceID, actor, req)
	dto, _ := args.Get(0).(*application.MaintenanceDTO)
	return dto, args.Error(1)
}

func (m *mockFleet) ListCarMaintenance(ctx context.Context, carID uuid.UUID) ([]application.MaintenanceDTO, error) {
	args := m.Called(ctx, carID)
	jobs, _ := args.Get(0).([]application.MaintenanceDTO)
	return jobs, args.Error(1)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) ListAllBookings(ctx context.Context, status string, page, limit int) ([]application.BookingDTO, int64, error) {
	args := m.Called(ctx, status, page, limit)
	bookings, _ := args.Get(0).([]application.BookingDTO)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockAdmin) GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*application.BookingStatsDTO)
	return stats, args.Error(1)
}

type mockAuditLogs struct{ mock.Mock }

func (m *mockAuditLogs) ListEntries(ctx context.Context, entityName, entityID string, page, limit int) (*domain.PaginatedResult[application.AuditLogDTO], error) {
	args := m.Called(ctx, entityName, entityID, page, limit)
	res, _ := args.Get(0).(*domain.PaginatedResult[application.AuditLogDTO])
	return res, args.Error(1)
}

func (m *mockAuditLogs) GetEntry(ctx context.Context, id uuid.UUID) (*application.AuditLogDTO, error) {
	args := m.Called(ctx, id)
	dto, _ := args.Get(0).(*application.AuditLogDTO)
	return dto, args.Error(1)
}

// testServer wires handlers on a gin engine and mints tokens for test callers.
type testServer struct {
	t      *testing.T
	engine *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T, register ...func(r *gin.RouterGroup, jwt *auth.JWTManager)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("handler-test-secret", time.Minute, time.Hour)
	engine := gin.New()
	for _, reg := range register {
		reg(&engine.RouterGroup, jwtManager)
	}
	return &testServer{t: t, engine: engine, jwt: jwtManager}
}

func (s *testServer) do(method, path string, userID uuid.UUID, role auth.Role, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		token, err := s.jwt.GenerateAccessToken(userID, role)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env response.Envelope
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
