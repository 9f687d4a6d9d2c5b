package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/libkeeper/internal/common"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// Sparse fieldset requested for book pages; the full listing (BooksFull)
// omits it so copies/issued_count come back too.
const bookSparseFields = "title,uid,isbn,lmsbook_category,lmspublication,copies,price,details,featured_image,author"

const (
	acceptJSON    = "application/json"
	acceptJSONAPI = "application/vnd.api+json"
)

// envelope mirrors the gateway's proxy response.
type envelope struct {
	Success    bool            `json:"success"`
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    string          `json:"details"`
}

// proxyCall is the body POSTed to the gateway.
type proxyCall struct {
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method"`
	Headers  map[string]string `json:"headers,omitempty"`
	Data     any               `json:"data,omitempty"`
}

// HTTPClient implements Client over the gateway's /api/proxy endpoint.
// Credentials are guarded by a mutex: the session manager refreshes them
// from background goroutines while the CLI issues requests.
type HTTPClient struct {
	gatewayURL    string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	logger        logging.Logger

	mu          sync.RWMutex
	username    string
	password    string
	csrfToken   string
	logoutToken string
	uid         string
}

func NewHTTPClient(gatewayURL string, timeout time.Duration, retryAttempts int, retryDelay time.Duration, l logging.Logger) *HTTPClient {
	return &HTTPClient{
		gatewayURL:    strings.TrimRight(gatewayURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		logger:        l.With("module", "api"),
	}
}

// RestoreCredentials injects previously persisted auth state, e.g. when a
// stored session is restored on startup.
func (c *HTTPClient) RestoreCredentials(username, password, csrfToken, logoutToken, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
	c.csrfToken = csrfToken
	c.logoutToken = logoutToken
	c.uid = uid
}

// ClearCredentials wipes all auth state.
func (c *HTTPClient) ClearCredentials() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = ""
	c.password = ""
	c.csrfToken = ""
	c.logoutToken = ""
	c.uid = ""
}

func (c *HTTPClient) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

// basicAuthHeaders returns legacy-endpoint headers (Basic Auth + JSON
// accept) or an error when the client holds no credentials.
func (c *HTTPClient) basicAuthHeaders() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.username == "" || c.password == "" {
		return nil, newError("Not authenticated - missing credentials", 401)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	return map[string]string{
		"Accept":        acceptJSON,
		"Authorization": "Basic " + auth,
	}, nil
}

// mutationHeaders returns headers for authenticated mutating calls:
// Basic Auth plus the CSRF token issued at login.
func (c *HTTPClient) mutationHeaders() (map[string]string, error) {
	headers, err := c.basicAuthHeaders()
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.csrfToken == "" {
		return nil, newError("Not authenticated - missing CSRF token", 401)
	}
	headers["Content-Type"] = acceptJSON
	headers[common.CSRFTokenHeaderName] = c.csrfToken
	return headers, nil
}

// proxyRequest relays one upstream call through the gateway. Transport
// failures are retried with a constant backoff; upstream errors are not
// retried and are mapped to the error taxonomy instead.
func (c *HTTPClient) proxyRequest(ctx context.Context, endpoint, method string, headers map[string]string, data any) (json.RawMessage, error) {
	body, err := json.Marshal(&proxyCall{Endpoint: endpoint, Method: method, Headers: headers, Data: data})
	if err != nil {
		return nil, err
	}

	var env envelope

	backoff := retry.WithMaxRetries(uint64(c.retryAttempts), retry.NewConstant(c.retryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/api/proxy", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", acceptJSON)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// network failure, worth retrying
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		env = envelope{}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("malformed gateway response: %w", err)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn(ctx, "request failed", "endpoint", endpoint, "error", err.Error())
		return nil, connectivityError(err)
	}

	if !env.Success {
		return nil, c.mapUpstreamError(ctx, endpoint, &env)
	}

	return env.Data, nil
}

// mapUpstreamError applies the failure taxonomy: login endpoints normalize
// 400/401/403 to invalid credentials, relationship 404s are informational
// (missing, fetch later), everything else surfaces the upstream message.
func (c *HTTPClient) mapUpstreamError(ctx context.Context, endpoint string, env *envelope) error {
	message := env.Details
	if message == "" {
		message = env.Error
	}
	if message == "" {
		message = strings.TrimSpace(fmt.Sprintf("%d %s", env.Status, env.StatusText))
	}

	if strings.Contains(endpoint, endpointLogin) {
		if env.Status == 400 || env.Status == 401 || env.Status == 403 {
			return newError(common.ErrInvalidCredentials.Error(), env.Status)
		}
	}

	if env.Status == 404 && (strings.Contains(endpoint, "/lmsbookauthor") || strings.Contains(endpoint, "/lmspublication") || strings.Contains(endpoint, "/lmsbook_category") || strings.Contains(endpoint, "/featured_image")) {
		c.logger.Info(ctx, "resource not found", "endpoint", endpoint)
	} else {
		c.logger.Error(ctx, "upstream error", "endpoint", endpoint, "status", env.Status, "message", message)
	}

	return newError(message, env.Status)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	headers := map[string]string{"Content-Type": acceptJSON, "Accept": acceptJSON}
	data := map[string]string{"name": username, "pass": password}

	raw, err := c.proxyRequest(ctx, endpointLogin+"?_format=json", http.MethodPost, headers, data)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unexpected login response shape: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return nil, newError(err.Error(), 400)
	}

	c.mu.Lock()
	c.username = username
	c.password = password
	c.csrfToken = resp.CSRFToken
	c.logoutToken = resp.LogoutToken
	c.uid = resp.CurrentUser.UID.String()
	c.mu.Unlock()

	return &resp, nil
}

// Logout notifies the upstream and wipes credentials. The server call is
// best effort: a failure is logged and swallowed.
func (c *HTTPClient) Logout(ctx context.Context) error {
	c.mu.RLock()
	logoutToken := c.logoutToken
	c.mu.RUnlock()

	if logoutToken != "" {
		endpoint := endpointLogout + "?_format=json&token=" + url.QueryEscape(logoutToken)
		if _, err := c.proxyRequest(ctx, endpoint, http.MethodPost, map[string]string{"Accept": acceptJSON}, nil); err != nil {
			c.logger.Warn(ctx, "server logout failed", "error", err.Error())
		}
	}

	c.ClearCredentials()
	return nil
}

// VerifySession checks that the client still holds a CSRF token and that
// the upstream still accepts our credentials.
func (c *HTTPClient) VerifySession(ctx context.Context) (bool, error) {
	c.mu.RLock()
	csrf, uid := c.csrfToken, c.uid
	c.mu.RUnlock()

	if csrf == "" || uid == "" {
		return false, nil
	}

	if _, err := c.Profile(ctx, uid); err != nil {
		if s := StatusOf(err); s == 401 || s == 403 {
			return false, nil
		}
		return true, err
	}
	return true, nil
}

func (c *HTTPClient) BooksPage(ctx context.Context, limit, offset int) (*BooksDocument, error) {
	q := url.Values{}
	q.Set("fields[lmsbook--lmsbook]", bookSparseFields)
	q.Set("page[limit]", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("page[offset]", strconv.Itoa(offset))
	}

	raw, err := c.proxyRequest(ctx, endpointBooks+"?"+q.Encode(), http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc BooksDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected books response shape: %w", err)
	}
	return &doc, nil
}

// BooksFull fetches the unfiltered book listing whose attributes carry the
// copies/issued_count availability feed.
func (c *HTTPClient) BooksFull(ctx context.Context) (*BooksDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointBooks, http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc BooksDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected books response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) Book(ctx context.Context, uuid string) (*BookDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointBooks+"/"+uuid, http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc BookDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected book response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) Authors(ctx context.Context) (*AuthorsDocument, error) {
	headers, err := c.basicAuthHeaders()
	if err != nil {
		return nil, err
	}
	headers["Accept"] = acceptJSONAPI

	raw, err := c.proxyRequest(ctx, endpointAuthors, http.MethodGet, headers, nil)
	if err != nil {
		return nil, err
	}

	var doc AuthorsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected authors response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) AuthorByInternalID(ctx context.Context, id string) (*AuthorRecord, error) {
	headers, err := c.basicAuthHeaders()
	if err != nil {
		return nil, err
	}

	raw, err := c.proxyRequest(ctx, endpointAuthorDetails+"/"+id+"?_format=json", http.MethodGet, headers, nil)
	if err != nil {
		return nil, err
	}

	var rec AuthorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unexpected author response shape: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) BookPublication(ctx context.Context, bookUUID string) (*PublicationDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointBooks+"/"+bookUUID+"/lmspublication", http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc PublicationDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected publication response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) BookCategory(ctx context.Context, bookUUID string) (*CategoryDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointBooks+"/"+bookUUID+"/lmsbook_category", http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc CategoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected category response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) BookFeaturedImage(ctx context.Context, bookUUID string) (*FileDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointBooks+"/"+bookUUID+"/featured_image", http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc FileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected image response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) CategoryTerms(ctx context.Context) (*CategoriesDocument, error) {
	raw, err := c.proxyRequest(ctx, endpointCategoryTaxonomy, http.MethodGet, map[string]string{"Accept": acceptJSONAPI}, nil)
	if err != nil {
		return nil, err
	}

	var doc CategoriesDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected taxonomy response shape: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClient) loanRecords(ctx context.Context, endpoint, uid string) ([]LoanRecord, error) {
	headers, err := c.basicAuthHeaders()
	if err != nil {
		return nil, err
	}

	raw, err := c.proxyRequest(ctx, endpoint+"/"+uid+"?_format=json", http.MethodGet, headers, nil)
	if err != nil {
		return nil, err
	}

	var records []LoanRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unexpected loan list shape: %w", err)
	}
	return records, nil
}

func (c *HTTPClient) BorrowedBooks(ctx context.Context, uid string) ([]LoanRecord, error) {
	return c.loanRecords(ctx, endpointBorrowedBooks, uid)
}

func (c *HTTPClient) RequestedBooks(ctx context.Context, uid string) ([]LoanRecord, error) {
	return c.loanRecords(ctx, endpointRequestedBooks, uid)
}

func (c *HTTPClient) Profile(ctx context.Context, uid string) (*ProfileRecord, error) {
	headers, err := c.basicAuthHeaders()
	if err != nil {
		return nil, err
	}

	raw, err := c.proxyRequest(ctx, endpointUserProfile+"/"+uid+"?_format=json", http.MethodGet, headers, nil)
	if err != nil {
		return nil, err
	}

	var rec ProfileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unexpected profile response shape: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) Reserve(ctx context.Context, payload *ReservationPayload) error {
	headers, err := c.mutationHeaders()
	if err != nil {
		return err
	}

	_, err = c.proxyRequest(ctx, endpointReservation+"?_format=json", http.MethodPost, headers, payload)
	return err
}
