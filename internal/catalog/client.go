// Package catalog предоставляет клиент для внешнего каталога клиник и услуг.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/validation"
)

var errNotFound = errors.New("catalog entry not found")

// Client инкапсулирует HTTP-взаимодействие с каталогом.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data"`
	Message string `json:"message,omitempty"`
}

type shopDTO struct {
	ID            uuid.UUID `json:"_id"`
	ShopName      string    `json:"shopName"`
	DoctorName    string    `json:"doctorName"`
	Location      string    `json:"location"`
	ContactNumber string    `json:"contactNumber"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

type productDTO struct {
	ID          uuid.UUID       `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description,omitempty"`
	CreatedBy   uuid.UUID       `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewClient создаёт HTTP-клиент каталога по указанному адресу. Токен передаётся
// в заголовке Authorization, если задан.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetShop запрашивает клинику по идентификатору.
func (c *Client) GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	var dto shopDTO
	if err := c.get(ctx, "/api/shops/"+id.String(), &dto); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, model.ErrShopNotFound
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}

	return &model.Shop{
		ID:            dto.ID,
		ShopName:      dto.ShopName,
		DoctorName:    dto.DoctorName,
		Location:      dto.Location,
		ContactNumber: dto.ContactNumber,
		CreatedBy:     dto.CreatedBy,
		CreatedAt:     dto.CreatedAt,
	}, nil
}

// GetProduct запрашивает позицию каталога по идентификатору.
func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var dto productDTO
	if err := c.get(ctx, "/api/products/"+id.String(), &dto); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, model.ProductNotFound(id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	price, err := validation.DecimalToCents(dto.Price)
	if err != nil {
		return nil, fmt.Errorf("get product %s: invalid price %s: %v", id, dto.Price, err)
	}

	return &model.Product{
		ID:          dto.ID,
		Name:        dto.Name,
		Price:       price,
		Description: dto.Description,
		CreatedBy:   dto.CreatedBy,
		CreatedAt:   dto.CreatedAt,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("catalog client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	env := envelope[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("catalog error: %s", env.Message)
	}
	if env.Data == nil {
		return errNotFound
	}

	if err := json.Unmarshal(*env.Data, dst); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
