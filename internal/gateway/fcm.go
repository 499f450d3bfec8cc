package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultFCMTimeout = 10 * time.Second

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    Notification      `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
	Webpush         *fcmWebpush       `json:"webpush,omitempty"`
}

type fcmWebpush struct {
	FCMOptions fcmOptions `json:"fcm_options"`
}

type fcmOptions struct {
	Link string `json:"link"`
}

type fcmResponse struct {
	Success int             `json:"success"`
	Failure int             `json:"failure"`
	Results []fcmSendResult `json:"results"`
}

type fcmSendResult struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// FCMGateway multicasts a message to FCM-compatible endpoints and reports a
// per-token outcome for each input token.
type FCMGateway struct {
	client    *resty.Client
	endpoint  string
	serverKey string
}

func NewFCMGateway(endpoint, serverKey string) (*FCMGateway, error) {
	client := resty.New()
	client.SetTimeout(defaultFCMTimeout)
	client.SetRetryCount(0)

	return NewFCMGatewayWithClient(endpoint, serverKey, client)
}

func NewFCMGatewayWithClient(endpoint, serverKey string, client *resty.Client) (*FCMGateway, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("fcm endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid fcm endpoint: %w", err)
	}
	if strings.TrimSpace(serverKey) == "" {
		return nil, fmt.Errorf("fcm server key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultFCMTimeout)
	}
	client.SetRetryCount(0)

	return &FCMGateway{
		client:    client,
		endpoint:  trimmedEndpoint,
		serverKey: strings.TrimSpace(serverKey),
	}, nil
}

func (g *FCMGateway) Send(ctx context.Context, tokens []string, msg Message) (*DispatchResult, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gateway is not initialized")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("at least one token is required")
	}

	reqBody := fcmRequest{
		RegistrationIDs: tokens,
		Notification:    msg.Notification,
		Data:            msg.Data,
	}
	if link := strings.TrimSpace(msg.Link); link != "" {
		reqBody.Webpush = &fcmWebpush{FCMOptions: fcmOptions{Link: link}}
	}

	var fcmResp fcmResponse
	response, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "key="+g.serverKey).
		SetBody(reqBody).
		SetResult(&fcmResp).
		Post(g.endpoint)
	if err != nil {
		return nil, &GatewayError{
			Message:   "gateway request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &GatewayError{
			Message:   "gateway returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &GatewayError{
			StatusCode: statusCode,
			Message:    gatewayErrorMessage(statusCode, strings.TrimSpace(response.String())),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	if len(fcmResp.Results) != len(tokens) {
		return nil, &GatewayError{
			StatusCode: statusCode,
			Message: fmt.Sprintf("gateway returned %d results for %d tokens",
				len(fcmResp.Results), len(tokens)),
			Transient: true,
		}
	}

	result := &DispatchResult{
		SuccessCount: fcmResp.Success,
		FailureCount: fcmResp.Failure,
		Outcomes:     make([]EndpointOutcome, 0, len(tokens)),
	}
	for idx, sendResult := range fcmResp.Results {
		result.Outcomes = append(result.Outcomes, EndpointOutcome{
			Index:     idx,
			Token:     tokens[idx],
			Success:   sendResult.Error == "",
			ErrorCode: sendResult.Error,
		})
	}

	return result, nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func gatewayErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("gateway returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
