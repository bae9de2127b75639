package draftapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the draft server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("draft api: status %d", e.Status)
	}
	return fmt.Sprintf("draft api: status %d: %s", e.Status, e.Message)
}

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	CSRF          CSRFSource
	SessionCookie string
	// AnalysisPrefix is where the mobile API is mounted.
	AnalysisPrefix string
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client talks to the draft server's request/response endpoints.
type Client struct {
	baseURL        string
	analysisPrefix string
	http           *http.Client
	csrf           CSRFSource
	cookie         string
	logger         *zap.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	prefix := opts.AnalysisPrefix
	if prefix == "" {
		prefix = "/api/v2"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csrf := opts.CSRF
	if csrf == nil {
		csrf = StaticToken("")
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		analysisPrefix: "/" + strings.Trim(prefix, "/"),
		http:           hc,
		csrf:           csrf,
		cookie:         opts.SessionCookie,
		logger:         logger.Named("draftapi"),
	}
}

type DraftRequest struct {
	PlayerID   int    `json:"player_id"`
	TeamID     int    `json:"team_id"`
	LeagueName string `json:"league_name"`
}

type DraftResponse struct {
	Success    bool          `json:"success"`
	Player     *types.Player `json:"player,omitempty"`
	Message    string        `json:"message,omitempty"`
	TeamID     int           `json:"team_id,omitempty"`
	TeamName   string        `json:"team_name,omitempty"`
	LeagueName string        `json:"league_name,omitempty"`
}

// DraftPlayer is the HTTP path for a draft when realtime is unavailable.
func (c *Client) DraftPlayer(ctx context.Context, req DraftRequest) (DraftResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return DraftResponse{}, err
	}
	token, err := c.csrf.Token(ctx)
	if err != nil {
		return DraftResponse{}, fmt.Errorf("csrf token: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/draft/api/draft-player", bytes.NewReader(body))
	if err != nil {
		return DraftResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if token != "" {
		hreq.Header.Set("X-CSRFToken", token)
	}

	raw, err := c.do(hreq)
	if err != nil {
		return DraftResponse{}, err
	}
	var resp DraftResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return DraftResponse{}, fmt.Errorf("decode draft response: %w", err)
	}
	// The server answers a successful draft without a success flag.
	if !gjson.GetBytes(raw, "success").Exists() {
		resp.Success = resp.Player != nil
	}
	if !resp.Success && resp.Message == "" {
		resp.Message = types.Message(raw)
	}
	c.logger.Debug("draft over http", zap.Int("player", req.PlayerID), zap.Int("team", req.TeamID), zap.Bool("success", resp.Success))
	return resp, nil
}

type Recommendation struct {
	PlayerID    int     `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	Position    string  `json:"position"`
	FitScore    float64 `json:"fit_score"`
	FitCategory string  `json:"fit_category"`
}

type Analysis struct {
	TeamID             int              `json:"team_id"`
	TeamName           string           `json:"team_name"`
	CurrentRosterSize  int              `json:"current_roster_size"`
	PositionNeeds      json.RawMessage  `json:"position_needs,omitempty"`
	RecommendedPlayers []Recommendation `json:"recommended_players"`
}

func (c *Client) PositionAnalysis(ctx context.Context, league string, teamID int) (Analysis, error) {
	u := fmt.Sprintf("%s%s/draft/%s/team/%d/analysis", c.baseURL, c.analysisPrefix, url.PathEscape(league), teamID)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Analysis{}, err
	}
	hreq.Header.Set("Accept", "application/json")

	raw, err := c.do(hreq)
	if err != nil {
		return Analysis{}, err
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: types.Message(raw)}
	}
	return raw, nil
}
