// Package wheniwork reads time records from the When I Work REST API.
package wheniwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.wheniwork.com/2"
	queryLayout    = "2006-01-02 15:04:05"
)

// Config holds client settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements port.SchedulingProvider over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ port.SchedulingProvider = (*Client)(nil)

// NewClient creates a new When I Work client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// wire shapes; break_time is reported in hours
type timeRecord struct {
	ID         int64    `json:"id"`
	UserID     int64    `json:"user_id"`
	ShiftID    int64    `json:"shift_id"`
	LocationID int64    `json:"location_id"`
	SiteID     int64    `json:"site_id"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	BreakTime  *float64 `json:"break_time"`
}

type shift struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"user_id"`
	SiteID    int64    `json:"site_id"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	BreakTime *float64 `json:"break_time"`
}

type site struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type user struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type timesResponse struct {
	Times  []timeRecord `json:"times"`
	Shifts []shift      `json:"shifts"`
	Sites  []site       `json:"sites"`
	Users  []user       `json:"users"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// FetchTimes reads the time records in q's window with their shifts, sites
// and users
func (c *Client) FetchTimes(ctx context.Context, q port.ProviderQuery) (*port.ProviderBatch, error) {
	query := map[string]string{
		"start":   q.Start.Format(queryLayout),
		"end":     q.End.Format(queryLayout),
		"include": "shifts,sites,users",
	}
	if q.LocationID != 0 {
		query["site_id"] = strconv.FormatInt(q.LocationID, 10)
	}
	if q.UserID != 0 {
		query["user_id"] = strconv.FormatInt(q.UserID, 10)
	}

	var resp timesResponse
	if err := c.get(ctx, "/times", query, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("Fetched provider times",
		zap.Int("times", len(resp.Times)),
		zap.Int("shifts", len(resp.Shifts)),
		zap.Int64("location_id", q.LocationID),
		zap.Int64("user_id", q.UserID))

	return resp.toBatch(), nil
}

func (c *Client) buildURL(path string, query map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	fullURL, err := c.buildURL(path, query)
	if err != nil {
		return fmt.Errorf("failed to build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("W-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Provider request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr errorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		c.logger.Error("Provider returned failure",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return fmt.Errorf("GET %s failed with status code %d: %s", path, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (r *timesResponse) toBatch() *port.ProviderBatch {
	batch := &port.ProviderBatch{
		Times:  make([]port.ProviderTime, 0, len(r.Times)),
		Shifts: make([]port.ProviderShift, 0, len(r.Shifts)),
		Sites:  make([]port.ProviderSite, 0, len(r.Sites)),
		Users:  make([]port.ProviderUser, 0, len(r.Users)),
	}
	for _, t := range r.Times {
		pt := port.ProviderTime{
			ID:        t.ID,
			UserID:    t.UserID,
			ShiftID:   t.ShiftID,
			SiteID:    t.SiteID,
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
		}
		if t.BreakTime != nil {
			minutes := breakMinutes(*t.BreakTime)
			pt.BreakMinutes = &minutes
		}
		batch.Times = append(batch.Times, pt)
	}
	for _, s := range r.Shifts {
		ps := port.ProviderShift{
			ID:        s.ID,
			UserID:    s.UserID,
			SiteID:    s.SiteID,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		}
		if s.BreakTime != nil {
			ps.BreakMinutes = breakMinutes(*s.BreakTime)
		}
		batch.Shifts = append(batch.Shifts, ps)
	}
	for _, s := range r.Sites {
		batch.Sites = append(batch.Sites, port.ProviderSite{ID: s.ID, Name: s.Name, Address: s.Address})
	}
	for _, u := range r.Users {
		batch.Users = append(batch.Users, port.ProviderUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName})
	}
	return batch
}

// breakMinutes converts hours to whole minutes, half up; negatives read as 0
func breakMinutes(hours float64) int {
	m := decimal.NewFromFloat(hours).Mul(decimal.NewFromInt(60)).Round(0)
	if m.IsNegative() {
		return 0
	}
	return int(m.IntPart())
}
