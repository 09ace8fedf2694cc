// Package carrier 承运商 HTTP 客户端。
// 网络故障与超时归为 ErrCarrierUnavailable，承运商拒绝归为 ErrCarrierRejected，
// 错误信息保留承运商原话；不在客户端内部做重试。
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wyfcoding/onlinestore/internal/shipment/domain"
	"github.com/wyfcoding/onlinestore/pkg/config"
)

// Client 承运商 HTTP 适配器
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient 创建承运商客户端，超时取自配置
func NewClient(cfg config.CarrierConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type createShipmentResponse struct {
	ShipmentNumber string `json:"shipment_number"`
}

type carrierErrorResponse struct {
	Message string `json:"message"`
}

// CreateShipment 订舱
func (c *Client) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal shipment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shipments", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build shipment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.rejection(resp)
	}

	var out createShipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", domain.ErrCarrierRejected, err)
	}
	if out.ShipmentNumber == "" {
		return "", fmt.Errorf("%w: empty shipment number", domain.ErrCarrierRejected)
	}
	return out.ShipmentNumber, nil
}

// FetchLabel 取 PDF 标签
func (c *Client) FetchLabel(ctx context.Context, shipmentNumber string) ([]byte, error) {
	labelURL := fmt.Sprintf("%s/shipments/%s/label", c.baseURL, url.PathEscape(shipmentNumber))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, labelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build label request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.rejection(resp)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read label body: %v", domain.ErrCarrierUnavailable, err)
	}
	return pdf, nil
}

// rejection 把非 2xx 响应转成带承运商原话的拒绝错误
func (c *Client) rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed carrierErrorResponse
	msg := string(raw)
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrCarrierRejected, resp.StatusCode, msg)
}
