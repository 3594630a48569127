package api

import (
	"context"
	"encoding/json"
	"fmt"
	"scrim-manager/internal/config"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

const DefaultOpenDotaBaseURL = "https://api.opendota.com/api"

type OpenDotaClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	RemainingMinute int       `json:"remaining_minute"`
	RemainingDay    int       `json:"remaining_day"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewOpenDotaClient(cfg *config.Config) *OpenDotaClient {
	return NewOpenDotaClientWithBaseURL(DefaultOpenDotaBaseURL, cfg.OpenDotaAPIKey)
}

func NewOpenDotaClientWithBaseURL(baseURL, apiKey string) *OpenDotaClient {
	return &OpenDotaClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			RemainingMinute: 60,
			RemainingDay:    2000,
			UpdatedAt:       time.Now(),
		},
	}
}

func (c *OpenDotaClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *OpenDotaClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if remaining := string(resp.Header.Peek("X-Rate-Limit-Remaining-Minute")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.RemainingMinute = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Rate-Limit-Remaining-Day")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.RemainingDay = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

func (c *OpenDotaClient) GetPlayer(ctx context.Context, accountID int64) (*PlayerResponse, error) {
	url := fmt.Sprintf("%s/players/%d", c.baseURL, accountID)
	if c.apiKey != "" {
		url += "?api_key=" + c.apiKey
	}
	return doRequest[PlayerResponse](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *OpenDotaClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerResponse struct {
	Profile         PlayerProfile `json:"profile"`
	RankTier        *int          `json:"rank_tier"`
	LeaderboardRank *int          `json:"leaderboard_rank"`
}

type PlayerProfile struct {
	AccountID   int64  `json:"account_id"`
	PersonaName string `json:"personaname"`
	Name        string `json:"name"`
	Avatar      string `json:"avatarfull"`
}

// DisplayName prefers the pro name over the Steam persona.
func (p PlayerResponse) DisplayName() string {
	if p.Profile.Name != "" {
		return p.Profile.Name
	}
	return p.Profile.PersonaName
}
