package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/creditarchitect/dispatch-app/dispatch/client"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/health"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
	"github.com/creditarchitect/dispatch-app/dispatch/tracker"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type APITestSuite struct {
	suite.Suite
	mockClient *client.MockMailClient
	tracker    *tracker.Tracker
	router     http.Handler
	gatewayOK  bool
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	store := tracker.NewStore(filepath.Join(s.T().TempDir(), "dispute_tracker.json"))
	s.tracker = tracker.NewTracker(store)
	s.mockClient = &client.MockMailClient{}
	s.gatewayOK = true

	api := &API{
		Tracker: s.tracker,
		Client:  s.mockClient,
		Checker: &health.Checker{
			Store: store,
			Gateway: pingFunc(func(ctx context.Context) error {
				if s.gatewayOK {
					return nil
				}
				return &customErrors.GatewayError{StatusCode: 401, Body: "bad key"}
			}),
		},
	}
	s.router = NewRouter(api)
}

func (s *APITestSuite) record(letterID string) {
	_, err := s.tracker.RecordDispatch(models.SendResult{ProviderID: letterID},
		"basic_bureau", "equifax", "Equifax Information Services LLC", nil, "")
	assert.Nil(s.T(), err)
}

func (s *APITestSuite) request(method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) TestGetPending() {
	s.record("ltr_1")
	s.record("ltr_2")

	rr := s.request("GET", "/api/v1/disputes/pending", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)

	var pending []models.PendingDispute
	assert.Nil(s.T(), json.Unmarshal(rr.Body.Bytes(), &pending))
	assert.Len(s.T(), pending, 2)
	assert.GreaterOrEqual(s.T(), pending[0].DaysRemaining, 29)
	assert.LessOrEqual(s.T(), pending[0].DaysRemaining, 30)
}

func (s *APITestSuite) TestGetPendingEmpty() {
	rr := s.request("GET", "/api/v1/disputes/pending", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	assert.Equal(s.T(), "[]", string(bytes.TrimSpace(rr.Body.Bytes())))
}

func (s *APITestSuite) TestGetOverdueEmpty() {
	s.record("ltr_1")
	rr := s.request("GET", "/api/v1/disputes/overdue", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	assert.Equal(s.T(), "[]", string(bytes.TrimSpace(rr.Body.Bytes())))
}

func (s *APITestSuite) TestGetDeliveryStatus() {
	s.record("ltr_1")
	s.mockClient.On("FetchStatus", mock.Anything, "ltr_1").
		Return(models.DeliveryStatus{ID: "ltr_1", TrackingEvents: []models.TrackingEvent{{Name: "Mailed"}}}, nil)

	rr := s.request("GET", "/api/v1/disputes/ltr_1/delivery", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)

	var status models.DeliveryStatus
	assert.Nil(s.T(), json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(s.T(), "ltr_1", status.ID)
	assert.Len(s.T(), status.TrackingEvents, 1)
}

func (s *APITestSuite) TestGetDeliveryStatusNotFound() {
	rr := s.request("GET", "/api/v1/disputes/ltr_ghost/delivery", nil)
	assert.Equal(s.T(), http.StatusNotFound, rr.Code)
	assert.Contains(s.T(), rr.Body.String(), "ltr_ghost")
}

func (s *APITestSuite) TestGetDeliveryStatusGatewayPassThrough() {
	s.record("ltr_1")
	s.mockClient.On("FetchStatus", mock.Anything, "ltr_1").
		Return(models.DeliveryStatus{}, &customErrors.GatewayError{StatusCode: 429, Body: "rate limited"})

	rr := s.request("GET", "/api/v1/disputes/ltr_1/delivery", nil)
	assert.Equal(s.T(), http.StatusTooManyRequests, rr.Code)
	assert.Contains(s.T(), rr.Body.String(), "rate limited")
}

func (s *APITestSuite) TestPutStatus() {
	s.record("ltr_1")

	rr := s.request("PUT", "/api/v1/disputes/ltr_1/status",
		[]byte(`{"status": "resolved", "notes": "deleted from report"}`))
	assert.Equal(s.T(), http.StatusOK, rr.Code)

	var record models.DisputeRecord
	assert.Nil(s.T(), json.Unmarshal(rr.Body.Bytes(), &record))
	assert.Equal(s.T(), models.StatusResolved, record.Status)
	assert.Equal(s.T(), "deleted from report", record.Notes)
	assert.NotNil(s.T(), record.UpdatedAt)
}

func (s *APITestSuite) TestPutStatusNotFound() {
	rr := s.request("PUT", "/api/v1/disputes/ltr_ghost/status", []byte(`{"status": "resolved"}`))
	assert.Equal(s.T(), http.StatusNotFound, rr.Code)
}

func (s *APITestSuite) TestPutStatusMissingStatus() {
	s.record("ltr_1")
	rr := s.request("PUT", "/api/v1/disputes/ltr_1/status", []byte(`{"notes": "no status"}`))
	assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) TestPutStatusMalformedBody() {
	s.record("ltr_1")
	rr := s.request("PUT", "/api/v1/disputes/ltr_1/status", []byte(`{not json`))
	assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) TestPostReconcile() {
	s.record("ltr_1")
	s.mockClient.On("FetchStatus", mock.Anything, "ltr_1").
		Return(models.DeliveryStatus{ID: "ltr_1", TrackingEvents: []models.TrackingEvent{{Name: "Delivered"}}}, nil)

	rr := s.request("POST", "/api/v1/disputes/ltr_1/reconcile", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)

	var resp struct {
		Changed bool                 `json:"changed"`
		Record  models.DisputeRecord `json:"record"`
	}
	assert.Nil(s.T(), json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(s.T(), resp.Changed)
	assert.Equal(s.T(), models.StatusDelivered, resp.Record.Status)
}

func (s *APITestSuite) TestHealthCheck() {
	rr := s.request("GET", "/_health", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	assert.Contains(s.T(), rr.Body.String(), `"store":"ok"`)
	assert.Contains(s.T(), rr.Body.String(), `"gateway":"ok"`)
}

func (s *APITestSuite) TestHealthCheckGatewayDown() {
	s.gatewayOK = false
	rr := s.request("GET", "/_health", nil)
	assert.Equal(s.T(), http.StatusServiceUnavailable, rr.Code)
	assert.Contains(s.T(), rr.Body.String(), `"gateway":"error"`)
}

func (s *APITestSuite) TestGetVersion() {
	rr := s.request("GET", "/_version", nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	assert.Contains(s.T(), rr.Body.String(), "version")
}

func (s *APITestSuite) TestRoutesCloseConnections() {
	rr := s.request("GET", "/_version", nil)
	assert.Equal(s.T(), "close", rr.Header().Get("Connection"))
}

func (s *APITestSuite) TestPendingSortsMostUrgentFirst() {
	for i := 0; i < 3; i++ {
		s.record(fmt.Sprintf("ltr_%d", i))
	}
	rr := s.request("GET", "/api/v1/disputes/pending", nil)
	var pending []models.PendingDispute
	assert.Nil(s.T(), json.Unmarshal(rr.Body.Bytes(), &pending))
	for i := 1; i < len(pending); i++ {
		assert.LessOrEqual(s.T(), pending[i-1].DaysRemaining, pending[i].DaysRemaining)
	}
}
