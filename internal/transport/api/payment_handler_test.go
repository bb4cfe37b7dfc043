package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/logger"
	"github.com/aldenshop/alden/internal/service"
	"github.com/aldenshop/alden/internal/transport/api/mocks"
	"github.com/aldenshop/alden/internal/transport/api/testutils"
	"github.com/aldenshop/alden/internal/transport/api/tokens"
	"github.com/aldenshop/alden/internal/transport/gateway"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockCtrl           *gomock.Controller
	mockPaymentService *mocks.MockPaymentServicer
	jwtSecret          []byte
	userToken          string
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockPaymentService = mocks.NewMockPaymentServicer(s.mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.router = New(RouterArgs{
		Logger:         logger.New(os.Stdout),
		PaymentService: s.mockPaymentService,
		JWTSecretKey:   s.jwtSecret,
	})

	var tokenErr error
	s.userToken, tokenErr = tokens.GenerateUserJWT(testUserID, domain.RoleUser, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *PaymentHandlerTestSuite) postJSON(url string, payload any) *http.Response {
	s.T().Helper()

	raw, marshalErr := json.Marshal(payload)
	s.Require().NoError(marshalErr)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    url,
		Body:   bytes.NewReader(raw),
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", fmt.Sprintf("Bearer %s", s.userToken)),
	)
	s.Require().NoError(err)
	return res
}

func (s *PaymentHandlerTestSuite) TestCreateIntent() {
	intent := &gateway.Intent{
		ID:       "order_G1",
		Amount:   45050,
		Currency: "INR",
		Receipt:  "rcpt_abc",
	}

	s.mockPaymentService.EXPECT().
		CreateIntent(gomock.Any(), decimal.NewFromFloat(450.5)).
		Return(intent, nil)

	res := s.postJSON(RouteGroup+PaymentRoute, map[string]any{"amount": 450.5})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)

	var response struct {
		Order IntentResponse `json:"order"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal("order_G1", response.Order.ID)
	s.Equal(int64(45050), response.Order.Amount)
	s.Equal("INR", response.Order.Currency)
}

func (s *PaymentHandlerTestSuite) TestCreateIntent_GatewayDown() {
	s.mockPaymentService.EXPECT().
		CreateIntent(gomock.Any(), gomock.Any()).
		Return(nil, gateway.NewStatusCodeError(http.StatusServiceUnavailable))

	res := s.postJSON(RouteGroup+PaymentRoute, map[string]any{"amount": 450.5})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusBadGateway, res.StatusCode)
}

func (s *PaymentHandlerTestSuite) TestVerify() {
	order := &domain.Order{
		ID:            55,
		UserID:        testUserID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPaid,
	}

	s.mockPaymentService.EXPECT().
		Verify(gomock.Any(), testUserID, service.VerifyArgs{
			GatewayOrderID:   "order_G1",
			GatewayPaymentID: "pay_G1",
			Signature:        "deadbeef",
			OrderID:          55,
		}).
		Return(&service.VerifyResult{Order: order}, nil)

	res := s.postJSON(RouteGroup+VerifyRoute, map[string]any{
		"gatewayOrderId":   "order_G1",
		"gatewayPaymentId": "pay_G1",
		"signature":        "deadbeef",
		"orderId":          55,
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)

	var response struct {
		Message string        `json:"message"`
		Order   OrderResponse `json:"order"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal("Payment verified successfully", response.Message)
	s.Equal(domain.PaymentStatusPaid, response.Order.PaymentStatus)
}

func (s *PaymentHandlerTestSuite) TestVerify_Replay() {
	order := &domain.Order{ID: 55, UserID: testUserID, PaymentStatus: domain.PaymentStatusPaid}

	s.mockPaymentService.EXPECT().
		Verify(gomock.Any(), testUserID, gomock.Any()).
		Return(&service.VerifyResult{Order: order, AlreadyVerified: true}, nil)

	res := s.postJSON(RouteGroup+VerifyRoute, map[string]any{
		"gatewayOrderId":   "order_G1",
		"gatewayPaymentId": "pay_G1",
		"signature":        "deadbeef",
		"orderId":          55,
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)

	var response struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal("Already verified", response.Message)
}

func (s *PaymentHandlerTestSuite) TestVerify_BadSignature() {
	s.mockPaymentService.EXPECT().
		Verify(gomock.Any(), testUserID, gomock.Any()).
		Return(nil, domain.ErrInvalidSignature)

	res := s.postJSON(RouteGroup+VerifyRoute, map[string]any{
		"gatewayOrderId":   "order_G1",
		"gatewayPaymentId": "pay_G1",
		"signature":        "forged",
		"orderId":          55,
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusBadRequest, res.StatusCode)

	var response struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal(domain.ErrInvalidSignature.Error(), response.Error)
}

func (s *PaymentHandlerTestSuite) TestVerify_MissingFields() {
	res := s.postJSON(RouteGroup+VerifyRoute, map[string]any{"orderId": 55})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusBadRequest, res.StatusCode)
}
