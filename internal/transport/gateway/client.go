package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const RouteCreateOrder = "/v1/orders"

// minorUnitsExp суммы передаются шлюзу в минимальных единицах валюты (пайсы/копейки).
const minorUnitsExp = 2

// Intent платежное намерение, созданное шлюзом. Клиент завершает оплату на своей стороне
// по ID намерения.
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// HTTPClient реализация клиента платежного шлюза поверх HTTP. Единственный сетевой вызов
// к неподконтрольной третьей стороне, поэтому таймаут ограничен конфигом.
type HTTPClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func New(baseURL, keyID, keySecret string, timeout time.Duration) HTTPClient {
	return HTTPClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateOrder просит шлюз создать платежное намерение на сумму amount. Локальное
// состояние не меняется: заказ остается pending до верификации колбэка. Ответ со статусом
// отличным от 2xx возвращается как StatusCodeError.
//
//nolint:nonamedreturns
func (c HTTPClient) CreateOrder(
	ctx context.Context,
	amount decimal.Decimal,
	currency string,
	receipt string,
) (intent *Intent, err error) {
	payload, marshalErr := json.Marshal(createOrderRequest{
		Amount:   amount.Shift(minorUnitsExp).Round(0).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	})
	if marshalErr != nil {
		return nil, pkgerrors.Wrap(marshalErr, "marshal request")
	}

	req, reqErr := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+RouteCreateOrder, bytes.NewReader(payload),
	)
	if reqErr != nil {
		return nil, pkgerrors.Wrap(reqErr, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, pkgerrors.Wrap(doErr, "do request")
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewStatusCodeError(resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, pkgerrors.Wrap(readErr, "read response")
	}

	if jsonErr := json.Unmarshal(body, &intent); jsonErr != nil {
		return nil, pkgerrors.Wrap(jsonErr, "parse response")
	}

	return intent, nil
}
