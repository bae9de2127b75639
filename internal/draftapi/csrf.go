package draftapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

var ErrNoCSRFToken = errors.New("csrf meta tag not found")

// CSRFSource hands out the token sent in X-CSRFToken.
type CSRFSource interface {
	Token(ctx context.Context) (string, error)
}

type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// MetaTagSource fetches a page once and reads <meta name="csrf-token" content="...">.
type MetaTagSource struct {
	PageURL string
	Cookie  string
	Client  *http.Client

	mu    sync.Mutex
	token string
}

func (m *MetaTagSource) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" {
		return m.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.PageURL, nil)
	if err != nil {
		return "", err
	}
	if m.Cookie != "" {
		req.Header.Set("Cookie", m.Cookie)
	}
	hc := m.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch csrf page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode}
	}

	tok, err := ParseMetaToken(resp.Body)
	if err != nil {
		return "", err
	}
	m.token = tok
	return tok, nil
}

// Reset forgets the cached token, e.g. after the server rejects it.
func (m *MetaTagSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

func ParseMetaToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", ErrNoCSRFToken
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			var isCSRF bool
			var content string
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch strings.ToLower(string(key)) {
				case "name":
					isCSRF = strings.EqualFold(string(val), "csrf-token")
				case "content":
					content = string(val)
				}
			}
			if isCSRF && content != "" {
				return content, nil
			}
		}
	}
}
