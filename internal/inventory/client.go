// Package inventory is an HTTP client for the fleet inventory service.
// Reservations never touch the inventory database directly; car and branch
// state flows through this internal API.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"
)

const serviceName = "reservation-service"

type carResponse struct {
	ID           int64  `json:"id"`
	Category     string `json:"category"`
	LicensePlate string `json:"license_plate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	BranchCode   string `json:"branch_code"`
	Available    bool   `json:"available"`
}

type branchExistsResponse struct {
	Exists bool `json:"exists"`
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

type relocateRequest struct {
	BranchCode string `json:"branch_code"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     security.TokenManager
}

func NewClient(baseURL string, timeout time.Duration, tokens security.TokenManager) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

var _ service.InventoryGateway = (*Client)(nil)

func (c *Client) GetCar(ctx context.Context, carID int64) (*domain.Car, error) {
	var resp carResponse
	path := fmt.Sprintf("/api/internal/v1/inventory/cars/%d", carID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NotFoundf("car not found: %d", carID)
		}
		return nil, err
	}

	category, err := domain.ParseCarCategory(resp.Category)
	if err != nil {
		return nil, domain.Externalf(err, "inventory returned unknown category for car %d", carID)
	}
	return &domain.Car{
		ID:           resp.ID,
		Category:     category,
		LicensePlate: resp.LicensePlate,
		Make:         resp.Make,
		Model:        resp.Model,
		Year:         resp.Year,
		BranchCode:   resp.BranchCode,
		Available:    resp.Available,
	}, nil
}

func (c *Client) IsValidBranch(ctx context.Context, branchCode string) (bool, error) {
	var resp branchExistsResponse
	path := fmt.Sprintf("/api/internal/v1/inventory/branches/%s/exists", branchCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return resp.Exists, nil
}

func (c *Client) IsAirportBranch(ctx context.Context, branchCode string) (bool, error) {
	var resp struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		City    string `json:"city"`
		Airport bool   `json:"airport"`
	}
	path := fmt.Sprintf("/api/internal/v1/inventory/branches/%s", branchCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return false, domain.NotFoundf("branch not found: %s", branchCode)
		}
		return false, err
	}
	return resp.Airport, nil
}

func (c *Client) SetCarAvailability(ctx context.Context, carID int64, available bool) error {
	path := fmt.Sprintf("/api/internal/v1/inventory/cars/%d/availability", carID)
	return c.do(ctx, http.MethodPost, path, availabilityRequest{Available: available}, nil)
}

func (c *Client) RelocateCar(ctx context.Context, carID int64, branchCode string) error {
	path := fmt.Sprintf("/api/internal/v1/inventory/cars/%d/branch", carID)
	return c.do(ctx, http.MethodPut, path, relocateRequest{BranchCode: branchCode}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.Externalf(err, "encoding inventory request")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return domain.Externalf(err, "building inventory request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.GenerateServiceToken(serviceName)
	if err != nil {
		return domain.Externalf(err, "signing service token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Externalf(err, "calling inventory service")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NotFoundf("inventory resource not found: %s", path)
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Externalf(
			fmt.Errorf("status %d: %s", resp.StatusCode, data),
			"inventory service error on %s %s", method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.Externalf(err, "decoding inventory response")
		}
	}
	return nil
}
