// Package client is a typed HTTP client for the storefront API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medistore/internal/model"
	"medistore/internal/prescription"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response decoded from the standard error body.
type APIError struct {
	Status        int
	Code          string
	Message       string
	CorrelationID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Is matches a domain error carrying the same code, so callers can use
// errors.Is(err, model.ErrInsufficientStock) on client errors.
func (e *APIError) Is(target error) bool {
	var de *model.DomainError
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

// IsRetryable reports whether err is worth retrying: transport failures and
// server errors are, rejections are not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// Client calls the storefront API.
type Client struct {
	http  *resty.Client
	token string
}

// New creates a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// SetToken sets the bearer token sent with every request. An empty token
// makes requests anonymous.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&model.ErrorResponse{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

// check converts transport failures and error responses into errors.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*model.ErrorResponse); ok && body != nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		apiErr.CorrelationID = body.CorrelationID
	}
	if apiErr.Code == "" {
		apiErr.Code = model.ErrCodeInternalError
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// Health checks that the API is up.
func (c *Client) Health(ctx context.Context) error {
	return check(c.request(ctx).Get("/health"))
}

// Signup creates a customer account.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post("/api/auth/signup")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates a user.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post("/api/auth/login")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Medicines fetches the catalogue.
func (c *Client) Medicines(ctx context.Context) ([]model.Medicine, error) {
	var out []model.Medicine
	if err := check(c.request(ctx).SetResult(&out).Get("/api/medicines")); err != nil {
		return nil, err
	}
	return out, nil
}

// Medicine fetches one medicine.
func (c *Client) Medicine(ctx context.Context, id string) (*model.Medicine, error) {
	var out model.Medicine
	err := check(c.request(ctx).SetPathParam("id", id).SetResult(&out).Get("/api/medicines/{id}"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMedicine adds a medicine to the catalogue.
func (c *Client) CreateMedicine(ctx context.Context, req model.MedicineRequest) (*model.Medicine, error) {
	var out model.Medicine
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post("/api/medicines")); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMedicine applies a partial update.
func (c *Client) UpdateMedicine(ctx context.Context, id string, update model.MedicineUpdate) (*model.Medicine, error) {
	var out model.Medicine
	err := check(c.request(ctx).SetPathParam("id", id).SetBody(update).SetResult(&out).Put("/api/medicines/{id}"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMedicine removes a medicine.
func (c *Client) DeleteMedicine(ctx context.Context, id string) error {
	return check(c.request(ctx).SetPathParam("id", id).Delete("/api/medicines/{id}"))
}

// Restock adds amount units to a medicine.
func (c *Client) Restock(ctx context.Context, id string, amount int) (*model.Medicine, error) {
	var out model.Medicine
	err := check(c.request(ctx).
		SetPathParam("id", id).
		SetBody(model.RestockRequest{Amount: amount}).
		SetResult(&out).
		Post("/api/medicines/{id}/restock"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ImageURL resolves the image redirect for a medicine without following it.
func (c *Client) ImageURL(ctx context.Context, id string) (string, error) {
	hc := *c.http.GetClient()
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.http.BaseURL+"/api/image/"+id, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", &APIError{Status: resp.StatusCode, Code: model.ErrCodeInternalError, Message: http.StatusText(resp.StatusCode)}
	}
	return resp.Header.Get("Location"), nil
}

// Orders lists orders; userID filters when the caller is an admin.
func (c *Client) Orders(ctx context.Context, userID string) ([]model.Order, error) {
	var out []model.Order
	req := c.request(ctx).SetResult(&out)
	if userID != "" {
		req.SetQueryParam("userId", userID)
	}
	if err := check(req.Get("/api/orders")); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaceOrder submits a cart snapshot.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	var out model.Order
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post("/api/orders")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Order fetches one order.
func (c *Client) Order(ctx context.Context, id string) (*model.Order, error) {
	var out model.Order
	if err := check(c.request(ctx).SetPathParam("id", id).SetResult(&out).Get("/api/orders/{id}")); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus moves an order to status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	var out model.Order
	err := check(c.request(ctx).
		SetPathParam("id", id).
		SetBody(model.StatusUpdateRequest{Status: string(status)}).
		SetResult(&out).
		Put("/api/orders/{id}"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AttachPrescription uploads a prescription image for an order.
func (c *Client) AttachPrescription(ctx context.Context, id, image string) (*model.Order, error) {
	var out model.Order
	err := check(c.request(ctx).
		SetPathParam("id", id).
		SetBody(model.PrescriptionRequest{Image: image}).
		SetResult(&out).
		Post("/api/orders/{id}/prescription"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Prescription downloads the prescription image of an order.
func (c *Client) Prescription(ctx context.Context, id string) (prescription.Image, error) {
	resp, err := c.request(ctx).SetPathParam("id", id).Get("/api/orders/{id}/prescription")
	if err := check(resp, err); err != nil {
		return prescription.Image{}, err
	}
	return prescription.Validate(resp.Body())
}

// PaymentLink fetches the UPI deep link for an order.
func (c *Client) PaymentLink(ctx context.Context, id string) (*model.PaymentLinkResponse, error) {
	var out model.PaymentLinkResponse
	err := check(c.request(ctx).SetPathParam("id", id).SetResult(&out).Get("/api/orders/{id}/payment-link"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the admin dashboard statistics.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var out model.Stats
	if err := check(c.request(ctx).SetResult(&out).Get("/api/admin/stats")); err != nil {
		return nil, err
	}
	return &out, nil
}
