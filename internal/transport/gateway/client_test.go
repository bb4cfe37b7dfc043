package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *ClientTestSuite) TestCreateOrder() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal(RouteCreateOrder, r.URL.Path)

		keyID, keySecret, ok := r.BasicAuth()
		s.Require().True(ok)
		s.Equal("key-id", keyID)
		s.Equal("key-secret", keySecret)

		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		// сумма уходит шлюзу в минимальных единицах валюты.
		s.Equal(int64(45050), req.Amount)
		s.Equal("INR", req.Currency)
		s.Equal("rcpt_1", req.Receipt)

		w.Header().Set("Content-Type", "application/json")
		s.Require().NoError(json.NewEncoder(w).Encode(Intent{
			ID:       "order_abc",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		}))
	}))

	client := New(s.server.URL, "key-id", "key-secret", time.Second)

	intent, err := client.CreateOrder(context.Background(), decimal.NewFromFloat(450.50), "INR", "rcpt_1")
	s.Require().NoError(err)
	s.Equal("order_abc", intent.ID)
	s.Equal(int64(45050), intent.Amount)
}

func (s *ClientTestSuite) TestCreateOrder_UpstreamError() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	client := New(s.server.URL, "key-id", "key-secret", time.Second)

	_, err := client.CreateOrder(context.Background(), decimal.NewFromInt(100), "INR", "rcpt_2")

	var statusErr *StatusCodeError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal(http.StatusServiceUnavailable, statusErr.Code)
}
