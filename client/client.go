// Package client is a Go client for the storefront HTTP API. Every method
// maps to one endpoint and unwraps the response envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/models"

	"github.com/sirupsen/logrus"
)

const DefaultAPIURL = "http://localhost:3000/api"

// APIError is returned when the server answers with a non-2xx status or an
// envelope whose success flag is false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Error      string             `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
	Count      *int               `json:"count"`
}

type Client struct {
	apiURL    string
	imageBase string
	http      *http.Client
	log       *logrus.Logger
}

// New builds a client for apiURL, e.g. "http://localhost:3000/api". Image
// paths are resolved against the scheme and host of apiURL. A nil
// httpClient gets a client with a 30 second timeout.
func New(apiURL string, httpClient *http.Client, logger *logrus.Logger) (*Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", apiURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", apiURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		apiURL:    strings.TrimSuffix(apiURL, "/"),
		imageBase: u.Scheme + "://" + u.Host,
		http:      httpClient,
		log:       logger,
	}, nil
}

// ImageURL turns a stored "/uploads/..." path into an absolute URL. Other
// values are returned unchanged.
func (c *Client) ImageURL(path string) string {
	if strings.HasPrefix(path, "/uploads/") {
		return c.imageBase + path
	}
	return path
}

func (c *Client) do(req *http.Request, out interface{}) (*envelope, error) {
	c.log.Debugf("Client: %s %s", req.Method, req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		message := env.Message
		if message == "" {
			message = "Something went wrong"
		}
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "path": req.URL.Path}).Debugf("Client: request failed: %s", message)
		return nil, &APIError{Status: resp.StatusCode, Message: message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return &env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	target := c.apiURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*envelope, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	return c.do(req, out)
}

// Category API calls

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if _, err := c.call(ctx, http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if _, err := c.call(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), nil, nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	var category models.Category
	if _, err := c.call(ctx, http.MethodPost, "/categories", nil, input, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, input models.CategoryInput) (*models.Category, error) {
	var category models.Category
	if _, err := c.call(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), nil, input, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Product API calls

// ListParams selects a page of products. Zero values are left to the
// server defaults.
type ListParams struct {
	Page       int
	Limit      int
	CategoryID string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.CategoryID != "" {
		q.Set("categoryId", p.CategoryID)
	}
	return q
}

func (c *Client) listProducts(ctx context.Context, path string, query url.Values) (*models.ProductPage, error) {
	var products []models.Product
	env, err := c.call(ctx, http.MethodGet, path, query, nil, &products)
	if err != nil {
		return nil, err
	}
	page := &models.ProductPage{Products: products}
	if page.Products == nil {
		page.Products = []models.Product{}
	}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page, nil
}

func (c *Client) ListProducts(ctx context.Context, params ListParams) (*models.ProductPage, error) {
	return c.listProducts(ctx, "/products", params.values())
}

func (c *Client) ListProductsByCategory(ctx context.Context, categoryID string, params ListParams) (*models.ProductPage, error) {
	params.CategoryID = ""
	return c.listProducts(ctx, "/categories/"+url.PathEscape(categoryID)+"/products", params.values())
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if _, err := c.call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ImageFile is the image part of a product form.
type ImageFile struct {
	Filename string
	Content  io.Reader
}

// ProductForm is the multipart body of a product create or update. Image
// may be nil on update to keep the current image.
type ProductForm struct {
	Input models.ProductInput
	Image *ImageFile
}

func (f ProductForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", f.Input.Name},
		{"description", f.Input.Description},
		{"categoryId", f.Input.CategoryID},
		{"imgTitle", f.Input.ImgTitle},
		{"alt", f.Input.Alt},
	}
	if f.Input.Price != nil {
		fields = append(fields, [2]string{"price", strconv.FormatFloat(*f.Input.Price, 'f', -1, 64)})
	}
	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", field[0], err)
		}
	}

	if f.Image != nil {
		part, err := w.CreateFormFile("image", f.Image.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, f.Image.Content); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) sendProduct(ctx context.Context, method, path string, form ProductForm) (*models.Product, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var product models.Product
	if _, err := c.do(req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, form ProductForm) (*models.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, "/products", form)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, form ProductForm) (*models.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, "/products/"+url.PathEscape(id), form)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Image API calls

func (c *Client) ListImages(ctx context.Context) ([]models.Image, error) {
	var list []models.Image
	if _, err := c.call(ctx, http.MethodGet, "/images", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ImageDetails(ctx context.Context, filename string) (*models.ImageDetails, error) {
	var details models.ImageDetails
	if _, err := c.call(ctx, http.MethodGet, "/images/details/"+url.PathEscape(filename), nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}
