package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/catalog"
	"storefront/db"
	"storefront/events"
	"storefront/images"
	"storefront/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Pagination *struct {
		Current int   `json:"current"`
		Pages   int   `json:"pages"`
		Total   int64 `json:"total"`
		Limit   int   `json:"limit"`
	} `json:"pagination"`
	Count *int `json:"count"`
}

type categoryBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productBody struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Price    float64      `json:"price"`
	Img      string       `json:"img"`
	Category categoryBody `json:"categoryId"`
}

type testServer struct {
	app       *fiber.App
	svc       *catalog.Service
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithHub(t, nil)
}

func newTestServerWithHub(t *testing.T, hub *events.Hub) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "api.db"), log)
	require.NoError(t, err)
	uploadDir := filepath.Join(dir, "uploads")
	store, err := images.NewStore(uploadDir, images.DefaultMaxSize, log)
	require.NoError(t, err)

	svc := catalog.NewService(
		repository.NewGormCategoryRepository(database, log),
		repository.NewGormProductRepository(database, log),
		store,
		publisher(hub),
		log,
	)
	app := NewApp(8<<20, log)
	SetupRoutes(app, NewHandler(svc, store, log), hub)
	return &testServer{app: app, svc: svc, uploadDir: uploadDir}
}

func publisher(hub *events.Hub) events.Publisher {
	if hub == nil {
		return nil
	}
	return hub
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func productRequest(t *testing.T, method, target string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *testServer) createCategory(t *testing.T, name string) categoryBody {
	t.Helper()
	status, env := s.do(t, jsonRequest(http.MethodPost, "/api/categories",
		fmt.Sprintf(`{"name":%q,"description":"desc"}`, name)))
	require.Equal(t, http.StatusCreated, status, env.Message)
	var c categoryBody
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

func phoneFields(categoryID string) map[string]string {
	return map[string]string{
		"name":        "Pixel 9",
		"price":       "799.5",
		"description": "Android phone",
		"categoryId":  categoryID,
		"imgTitle":    "Pixel",
		"alt":         "A phone",
	}
}

func TestCatalogEndToEnd(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, jsonRequest(http.MethodPost, "/api/categories",
		`{"name":"Phones","description":"Mobile phones"}`))
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, "Category created successfully", env.Message)
	var category categoryBody
	require.NoError(t, json.Unmarshal(env.Data, &category))
	require.NotEmpty(t, category.ID)
	assert.Equal(t, "Phones", category.Name)

	status, env = s.do(t, productRequest(t, http.MethodPost, "/api/products",
		phoneFields(category.ID), "photo.jpg", []byte("jpeg-bytes")))
	require.Equal(t, http.StatusCreated, status, env.Message)
	var product productBody
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "Phones", product.Category.Name)
	assert.Equal(t, category.ID, product.Category.ID)
	assert.Equal(t, 799.5, product.Price)
	assert.True(t, strings.HasPrefix(product.Img, "/uploads/image-"))

	status, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/"+product.ID, nil))
	require.Equal(t, http.StatusOK, status)
	var fetched productBody
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, product.ID, fetched.ID)
	assert.Equal(t, product.Img, fetched.Img)
	assert.Equal(t, "Mobile phones", fetched.Category.Description)

	status, env = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/categories/"+category.ID, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Cannot delete category. 1 products are assigned to this category.", env.Message)

	status, env = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/products/"+product.ID, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product deleted successfully", env.Message)

	status, env = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/categories/"+category.ID, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Category deleted successfully", env.Message)

	// The image stays on disk after its product is gone.
	_, err := os.Stat(filepath.Join(s.uploadDir, strings.TrimPrefix(product.Img, images.URLPrefix)))
	assert.NoError(t, err)
}

func TestListCategoriesIncludesCount(t *testing.T) {
	s := newTestServer(t)
	s.createCategory(t, "Tablets")
	s.createCategory(t, "Laptops")

	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)

	var list []categoryBody
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Laptops", list[0].Name)
	assert.Equal(t, "Tablets", list[1].Name)
}

func TestCategoryValidationErrors(t *testing.T) {
	s := newTestServer(t)
	s.createCategory(t, "Phones")

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing description", `{"name":"Tablets"}`, http.StatusBadRequest, "Name and description are required"},
		{"empty body", ``, http.StatusBadRequest, "Name and description are required"},
		{"duplicate", `{"name":"Phones","description":"again"}`, http.StatusBadRequest, "Category name already exists"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "Failed to parse request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, jsonRequest(http.MethodPost, "/api/categories", tt.body))
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestUpdateCategory(t *testing.T) {
	s := newTestServer(t)
	phones := s.createCategory(t, "Phones")
	s.createCategory(t, "Tablets")

	status, env := s.do(t, jsonRequest(http.MethodPut, "/api/categories/"+phones.ID,
		`{"name":"Smartphones","description":"Touch screens"}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Category updated successfully", env.Message)
	var updated categoryBody
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Smartphones", updated.Name)

	status, env = s.do(t, jsonRequest(http.MethodPut, "/api/categories/"+phones.ID,
		`{"name":"Tablets","description":"Touch screens"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Category name already exists", env.Message)

	status, env = s.do(t, jsonRequest(http.MethodPut, "/api/categories/"+phones.ID,
		`{"name":"Smartphones","description":"Same name, new text"}`))
	assert.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(t, jsonRequest(http.MethodPost, "/api/categories",
		`{"name":"smartphones","description":"Names compare case-sensitively"}`))
	assert.Equal(t, http.StatusCreated, status, env.Message)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/categories/does-not-exist",
		"/api/products/does-not-exist",
		"/api/images/details/missing.jpg",
		"/api/images/view/missing.jpg",
		"/api/images/view/..%2Fapi.db",
	} {
		t.Run(target, func(t *testing.T) {
			status, env := s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusNotFound, status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestDeleteUnknownCategory(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, httptest.NewRequest(http.MethodDelete, "/api/categories/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Category not found", env.Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestCreateProductRejections(t *testing.T) {
	s := newTestServer(t)
	phones := s.createCategory(t, "Phones")

	t.Run("no image", func(t *testing.T) {
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields(phones.ID), "", nil))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Image file is required", env.Message)
	})

	t.Run("bmp", func(t *testing.T) {
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields(phones.ID), "photo.bmp", []byte("bm")))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Only image files are allowed!", env.Message)
	})

	t.Run("unknown category", func(t *testing.T) {
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields("nope"), "photo.jpg", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Category not found", env.Message)
	})

	t.Run("price not a number", func(t *testing.T) {
		fields := phoneFields(phones.ID)
		fields["price"] = "cheap"
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "photo.jpg", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "price must be a number", env.Message)
	})

	t.Run("missing field", func(t *testing.T) {
		fields := phoneFields(phones.ID)
		delete(fields, "alt")
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "photo.jpg", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "All fields are required", env.Message)
	})

	t.Run("negative price", func(t *testing.T) {
		fields := phoneFields(phones.ID)
		fields["price"] = "-1"
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "photo.jpg", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "price must not be negative", env.Message)
	})

	t.Run("image over 5 MiB", func(t *testing.T) {
		content := bytes.Repeat([]byte{0xff}, 6<<20)
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields(phones.ID), "photo.jpg", content))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "File too large: images must be at most 5242880 bytes", env.Message)
	})

	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(0), env.Pagination.Total)

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateProductBoundaries(t *testing.T) {
	s := newTestServer(t)
	phones := s.createCategory(t, "Phones")

	t.Run("4 MiB image", func(t *testing.T) {
		content := bytes.Repeat([]byte{0xff}, 4<<20)
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields(phones.ID), "photo.jpg", content))
		require.Equal(t, http.StatusCreated, status, env.Message)
		var p productBody
		require.NoError(t, json.Unmarshal(env.Data, &p))

		info, err := os.Stat(filepath.Join(s.uploadDir, filepath.Base(p.Img)))
		require.NoError(t, err)
		assert.Equal(t, int64(4<<20), info.Size())
	})

	t.Run("zero price and upper-case extension", func(t *testing.T) {
		fields := phoneFields(phones.ID)
		fields["price"] = "0"
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "photo.JPG", []byte("x")))
		require.Equal(t, http.StatusCreated, status, env.Message)
		var p productBody
		require.NoError(t, json.Unmarshal(env.Data, &p))
		assert.Equal(t, 0.0, p.Price)
		assert.True(t, strings.HasSuffix(p.Img, ".JPG"), p.Img)
	})
}

func TestProductPagination(t *testing.T) {
	s := newTestServer(t)
	phones := s.createCategory(t, "Phones")
	tablets := s.createCategory(t, "Tablets")

	for i := 0; i < 15; i++ {
		fields := phoneFields(phones.ID)
		fields["name"] = fmt.Sprintf("Phone %d", i)
		status, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "p.png", []byte("x")))
		require.Equal(t, http.StatusCreated, status, env.Message)
	}
	fields := phoneFields(tablets.ID)
	fields["name"] = "Tab"
	status, _ := s.do(t, productRequest(t, http.MethodPost, "/api/products", fields, "t.gif", []byte("x")))
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/categories/"+phones.ID+"/products?page=2&limit=10", nil))
	require.Equal(t, http.StatusOK, status)
	var page []productBody
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page, 5)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Current)
	assert.Equal(t, 2, env.Pagination.Pages)
	assert.Equal(t, int64(15), env.Pagination.Total)
	assert.Equal(t, 10, env.Pagination.Limit)

	status, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products?categoryId="+tablets.ID, nil))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "Tablets", page[0].Category.Name)

	status, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products?page=0", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "page must be a positive integer", env.Message)
}

func TestUpdateProductKeepsImageWithoutUpload(t *testing.T) {
	s := newTestServer(t)
	phones := s.createCategory(t, "Phones")

	_, env := s.do(t, productRequest(t, http.MethodPost, "/api/products", phoneFields(phones.ID), "photo.jpg", []byte("x")))
	var created productBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	fields := phoneFields(phones.ID)
	fields["name"] = "Pixel 9 Pro"
	status, env := s.do(t, productRequest(t, http.MethodPut, "/api/products/"+created.ID, fields, "", nil))
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Product updated successfully", env.Message)

	var updated productBody
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Pixel 9 Pro", updated.Name)
	assert.Equal(t, created.Img, updated.Img)
	assert.Equal(t, "Phones", updated.Category.Name)
}

func TestImageEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, "image-1-a.png"), []byte("png-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, "notes.txt"), []byte("text"), 0o644))

	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/images", nil))
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
	var list []struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
		FullURL  string `json:"fullUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "/uploads/image-1-a.png", list[0].URL)
	assert.True(t, strings.HasSuffix(list[0].FullURL, "/uploads/image-1-a.png"))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/images/view/image-1-a.png", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "png-bytes", string(body))

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/images/view/notes.txt", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	status, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/images/details/image-1-a.png", nil))
	require.Equal(t, http.StatusOK, status)
	var details struct {
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, "image-1-a.png", details.Filename)
	assert.Equal(t, int64(9), details.Size)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Message)
}
