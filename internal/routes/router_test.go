package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bus_backoffice/internal/controllers"
	"bus_backoffice/internal/middleware"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
	"bus_backoffice/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

type testServer struct {
	t     *testing.T
	ctx   context.Context
	r     *gin.Engine
	svc   *services.Services
	auth  *middleware.Auth
	hub   *controllers.EventHub
	admin string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	ctx := context.Background()
	svc := services.New(db, nil, nil, "support@example.com")
	require.NoError(t, svc.Users.EnsureAdmin(ctx, "admin@example.com", "admin-password"))
	adminUser, err := svc.Users.Authenticate(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)

	auth := middleware.NewAuth("test-secret", time.Hour)
	adminToken, err := auth.GenerateToken(adminUser.ID, adminUser.Role)
	require.NoError(t, err)

	hub := controllers.NewEventHub()
	t.Cleanup(hub.Close)

	return &testServer{
		t:     t,
		ctx:   ctx,
		r:     SetupRouter(controllers.NewHandler(svc, auth, hub), Options{Auth: auth}),
		svc:   svc,
		auth:  auth,
		hub:   hub,
		admin: adminToken,
	}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

// signup registers a customer and returns their token.
func (s *testServer) signup(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/signup", "", gin.H{"name": "Rider", "email": email, "password": "password-123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, w, &resp)
	return resp.Token
}

func (s *testServer) createCity(name string, lat, lng float64) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/cities", s.admin, gin.H{"name": name, "latitude": lat, "longitude": lng})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		City struct {
			ID uint `json:"ID"`
		} `json:"city"`
	}
	decode(s.t, w, &resp)
	return resp.City.ID
}

type routeResp struct {
	Route struct {
		ID         uint    `json:"ID"`
		Title      string  `json:"title"`
		Polyline   string  `json:"polyline"`
		DistanceKm float64 `json:"distance_km"`
		Stops      []struct {
			ID     uint `json:"id"`
			CityID uint `json:"city_id"`
		} `json:"stops"`
		TicketTypes []struct {
			ID uint `json:"ID"`
		} `json:"ticket_types"`
	} `json:"route"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup("rider@example.com")

	w := s.do(http.MethodPost, "/auth/signup", "", gin.H{"name": "Again", "email": "RIDER@example.com", "password": "password-123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/signup", "", gin.H{"name": "Short", "email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "rider@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "rider@example.com", "password": "password-123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleCustomer, resp.User.Role)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	customer := s.signup("rider@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/admin/routes", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/routes", customer, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/routes", s.admin, nil).Code)
}

func TestCreateRouteBuildsStopsAndFares(t *testing.T) {
	s := newTestServer(t)
	nairobi := s.createCity("Nairobi", -1.2864, 36.8172)
	voi := s.createCity("Voi", -3.3961, 38.5561)
	mombasa := s.createCity("Mombasa", -4.0435, 39.6682)

	w := s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{
		"title": "Coast Express",
		"stops": []uint{nairobi, voi, mombasa},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created routeResp
	decode(t, w, &created)

	require.Len(t, created.Route.Stops, 3)
	assert.Equal(t, nairobi, created.Route.Stops[0].CityID)
	assert.Equal(t, mombasa, created.Route.Stops[2].CityID)
	assert.Len(t, created.Route.TicketTypes, 3)
	assert.NotEmpty(t, created.Route.Polyline)
	assert.Greater(t, created.Route.DistanceKm, 400.0)

	w = s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{"title": "Coast Express", "stops": []uint{nairobi, voi}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{"title": "Ghost", "stops": []uint{nairobi, 999}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/admin/routes/%d/fares", created.Route.ID), s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fares struct {
		Data []models.TicketType `json:"data"`
	}
	decode(t, w, &fares)
	assert.Len(t, fares.Data, 3)
}

func TestReconcileFaresAsCSV(t *testing.T) {
	s := newTestServer(t)
	a := s.createCity("Nairobi", -1.2864, 36.8172)
	b := s.createCity("Voi", -3.3961, 38.5561)
	c := s.createCity("Mombasa", -4.0435, 39.6682)

	w := s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{"title": "Coast Express", "stops": []uint{a, b, c}})
	require.Equal(t, http.StatusCreated, w.Code)
	var created routeResp
	decode(t, w, &created)
	id := created.Route.ID

	w = s.do(http.MethodPut, fmt.Sprintf("/admin/routes/%d", id), s.admin, gin.H{"title": "Coast Express", "stops": []uint{a, c}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/admin/routes/%d/fares/reconcile?format=csv", id), s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3, "header plus the two fares touching the removed stop")
	assert.Equal(t, "route_id,route_title,ticket_type_id,name,start_city_id,end_city_id,base_price", lines[0])

	w = s.do(http.MethodGet, fmt.Sprintf("/admin/routes/%d/fares/reconcile", id), s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Report services.FareReport `json:"report"`
	}
	decode(t, w, &report)
	assert.Len(t, report.Report.Stale, 2)
	assert.Empty(t, report.Report.Missing)
}

func TestSearchAndBookThroughAPI(t *testing.T) {
	s := newTestServer(t)
	a := s.createCity("Nairobi", -1.2864, 36.8172)
	b := s.createCity("Mombasa", -4.0435, 39.6682)

	route, err := s.svc.Routes.Create(s.ctx, services.RouteInput{Title: "Coast Express", CityIDs: []uint{a, b}})
	require.NoError(t, err)
	require.Len(t, route.TicketTypes, 1)
	fareID := route.TicketTypes[0].ID
	_, err = s.svc.Fares.Price(s.ctx, route.ID, []services.FarePrice{{TicketTypeID: fareID, BasePrice: 1500}})
	require.NoError(t, err)

	plate, capacity := "KDA 123A", 40
	bus, err := s.svc.Buses.Create(s.ctx, services.BusInput{PlateNumber: &plate, Capacity: &capacity})
	require.NoError(t, err)
	driverName, license := "Amina", "DL-1"
	driver, err := s.svc.Drivers.Create(s.ctx, services.DriverInput{Name: &driverName, LicenseNumber: &license})
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/admin/schedules", s.admin, gin.H{
		"bus_id":              bus.ID,
		"route_id":            route.ID,
		"driver_id":           driver.ID,
		"departure_time":      "08:00",
		"total_running_hours": 8,
		"recurrence_pattern":  "Daily",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sched struct {
		Schedule struct {
			ID uint `json:"ID"`
		} `json:"schedule"`
	}
	decode(t, w, &sched)

	w = s.do(http.MethodGet, fmt.Sprintf("/search?from=%d&to=%d&date=2026-10-19", a, b), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var found services.SearchResult
	decode(t, w, &found)
	assert.Equal(t, "2026-10-19", found.EffectiveDate)
	require.Len(t, found.Results, 1)
	assert.Equal(t, sched.Schedule.ID, found.Results[0].Schedule.ID)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/search?from=1", "", nil).Code)

	rider := s.signup("rider@example.com")
	other := s.signup("other@example.com")
	booking := gin.H{
		"route_id":            route.ID,
		"schedule_id":         sched.Schedule.ID,
		"origin_city_id":      a,
		"destination_city_id": b,
		"travel_date":         "2026-10-19",
		"contact_email":       "rider@example.com",
		"passengers": []gin.H{
			{"name": "Rider", "age": 30, "seat_number": 1, "ticket_type_id": fareID},
		},
	}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/bookings", "", booking).Code)

	w = s.do(http.MethodPost, "/bookings", rider, booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking models.Booking `json:"booking"`
	}
	decode(t, w, &created)
	assert.Equal(t, models.BookingPending, created.Booking.Status)
	assert.InDelta(t, 1500, created.Booking.TotalAmount, 0.001)

	w = s.do(http.MethodPost, "/bookings", other, booking)
	assert.Equal(t, http.StatusConflict, w.Code, "seat 1 is already held")

	path := fmt.Sprintf("/bookings/%d", created.Booking.ID)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, rider, nil).Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/admin/bookings/%d/confirm", created.Booking.ID), s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path+"/cancel", rider, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled struct {
		Booking models.Booking `json:"booking"`
	}
	decode(t, w, &cancelled)
	assert.Equal(t, models.BookingCancelled, cancelled.Booking.Status)
}

func TestContactFormIsPublic(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/contact", "", gin.H{"name": "Rider", "email": "rider@example.com", "message": "Lost my bag"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/contact", "", gin.H{"name": "Rider", "email": "not-an-email", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/admin/contact?open=true", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
}

func TestEventsWebSocket(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?token="

	customer := s.signup("rider@example.com")
	_, resp, err := websocket.DefaultDialer.Dial(base+customer, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+s.admin, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.hub.Deliver(s.ctx, notify.Rendered{Template: "booking_confirmed", Body: "seat 4 confirmed"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.Rendered
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "booking_confirmed", got.Template)
	assert.Equal(t, "seat 4 confirmed", got.Body)
}

func TestCopyRouteClosuresAndStopTiming(t *testing.T) {
	s := newTestServer(t)
	a := s.createCity("Nairobi", -1.2864, 36.8172)
	b := s.createCity("Mombasa", -4.0435, 39.6682)

	w := s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{"title": "Coast Express", "stops": []uint{a, b}})
	require.Equal(t, http.StatusCreated, w.Code)
	var created routeResp
	decode(t, w, &created)
	id := created.Route.ID

	w = s.do(http.MethodPut, fmt.Sprintf("/admin/routes/%d/stops/timing", id), s.admin, gin.H{
		"stops": []gin.H{
			{"stop_id": created.Route.Stops[0].ID, "departure_time": "08:00"},
			{"stop_id": 9999, "departure_time": "09:00"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var timed struct {
		Updated int `json:"updated"`
	}
	decode(t, w, &timed)
	assert.Equal(t, 1, timed.Updated)

	w = s.do(http.MethodPost, fmt.Sprintf("/admin/routes/%d/copy", id), s.admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var copied routeResp
	decode(t, w, &copied)
	assert.Equal(t, fmt.Sprintf("Coast Express (Summer%d)", copied.Route.ID), copied.Route.Title)
	assert.Len(t, copied.Route.TicketTypes, 1)

	w = s.do(http.MethodPost, "/admin/closures", s.admin, gin.H{
		"route_id": id, "start_date": "2026-10-20", "end_date": "2026-10-19",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/admin/closures", s.admin, gin.H{
		"route_id": id, "start_date": "2026-12-24", "end_date": "2026-12-26", "reason": "holiday",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/admin/closures?route_id=%d", id), s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var closures struct {
		Data []models.RouteClosure `json:"data"`
	}
	decode(t, w, &closures)
	assert.Len(t, closures.Data, 1)
}

func TestCreateRouteHonoursIsActive(t *testing.T) {
	s := newTestServer(t)
	a := s.createCity("Nairobi", -1.2864, 36.8172)
	b := s.createCity("Mombasa", -4.0435, 39.6682)

	w := s.do(http.MethodPost, "/admin/routes", s.admin, gin.H{"title": "Dormant", "stops": []uint{a, b}, "is_active": false})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Route struct {
			IsActive bool `json:"is_active"`
		} `json:"route"`
	}
	decode(t, w, &resp)
	assert.False(t, resp.Route.IsActive)
}
