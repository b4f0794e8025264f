package razorpay

//go:generate go run go.uber.org/mock/mockgen -source=./razorpay.go -destination=./mocks/razorpay_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dineease/config"
	"dineease/infras/otel"
	"dineease/shared/constant"
	"dineease/shared/failure"

	"github.com/rs/zerolog/log"
)

// Order is the payment-processor handle for an amount to be collected.
// Amount is in minor currency units (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway opens payment orders with the external processor.
type Gateway interface {
	OpenOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (Order, error)
}

type gatewayImpl struct {
	cfg    *config.Config
	client *http.Client
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	timeout := time.Duration(cfg.Payment.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &gatewayImpl{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		otel:   otl,
	}
}

type openOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// OpenOrder requests a new order from the processor. Transport failures are
// retried with exponential backoff and surface as GatewayUnavailableError
// once the attempts are exhausted. A non-2xx response is a verdict from the
// processor, not an outage: it is returned immediately and never retried.
func (g *gatewayImpl) OpenOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (res Order, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".razorpay.OpenOrder")
	defer scope.End()
	defer scope.TraceIfError(err)

	payload, err := json.Marshal(openOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return Order{}, fmt.Errorf("failed to marshal order request: %w", err)
	}

	maxRetry := g.cfg.Payment.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 1
	}

	waitTime := time.Duration(g.cfg.Payment.RetryWaitSeconds) * time.Second

	for retry := range maxRetry {
		res, err = g.openOrderOnce(ctx, payload)
		if err == nil {
			scope.SetAttribute("payment.order_id", res.ID)

			return res, nil
		}

		var rejection *failure.Failure
		if errors.As(err, &rejection) {
			return Order{}, err
		}

		log.Error().
			Err(err).
			Int("attempt", retry+1).
			Msg("Failed to reach payment gateway, retrying")

		if retry < maxRetry-1 {
			select {
			case <-ctx.Done():
				return Order{}, failure.GatewayUnavailableError
			case <-time.After(waitTime << retry):
			}
		}
	}

	return Order{}, failure.GatewayUnavailableError
}

func (g *gatewayImpl) openOrderOnce(ctx context.Context, payload []byte) (Order, error) {
	url := g.cfg.Payment.BaseURL + "/v1/orders"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("failed to build order request: %w", err)
	}

	req.SetBasicAuth(g.cfg.Payment.KeyID, g.cfg.Payment.KeySecret)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	resp, err := g.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Order{}, rejectionFailure(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("failed to decode order response: %w", err)
	}

	return order, nil
}

type processorErrorResponse struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

// rejectionFailure maps a non-2xx processor response onto a Failure. Client
// rejections carry the processor's description back as a bad request;
// processor-side errors surface as a bad gateway.
func rejectionFailure(resp *http.Response) *failure.Failure {
	var body processorErrorResponse

	_ = json.NewDecoder(resp.Body).Decode(&body)

	message := body.Error.Description
	if message == "" {
		message = fmt.Sprintf("payment gateway rejected the order (status %d)", resp.StatusCode)
	}

	code := http.StatusBadRequest
	if resp.StatusCode >= http.StatusInternalServerError {
		code = http.StatusBadGateway
	}

	return &failure.Failure{Code: code, Message: message}
}
