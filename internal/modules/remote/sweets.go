package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
)

// SweetAPI wraps the /sweets endpoints. Every call is made with the
// token the TokenSource holds at call time.
type SweetAPI interface {
	List(ctx context.Context) ([]catalog.Item, error)
	Search(ctx context.Context, f catalog.Filter) ([]catalog.Item, error)
	Create(ctx context.Context, d catalog.Draft) (catalog.Item, error)
	Update(ctx context.Context, id string, p catalog.Patch) (catalog.Item, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, qty int) (catalog.Item, error)
	Restock(ctx context.Context, id string, qty int) (catalog.Item, error)
}

type sweetAPI struct {
	c      *Client
	tokens TokenSource
}

// Sweets returns the /sweets wrapper bound to c.
func (c *Client) Sweets(tokens TokenSource) SweetAPI {
	return sweetAPI{c: c, tokens: tokens}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s sweetAPI) token() string {
	if s.tokens == nil {
		return ""
	}
	return s.tokens.Token()
}

func (s sweetAPI) List(ctx context.Context) ([]catalog.Item, error) {
	var raw json.RawMessage
	if err := s.c.do(ctx, http.MethodGet, "/sweets", s.token(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeItems(raw)
}

func (s sweetAPI) Search(ctx context.Context, f catalog.Filter) ([]catalog.Item, error) {
	q := url.Values{}
	if t := strings.TrimSpace(f.Text); t != "" {
		q.Set("name", t)
	}
	if f.Category != nil && *f.Category != "" {
		q.Set("category", *f.Category)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	path := "/sweets/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := s.c.do(ctx, http.MethodGet, path, s.token(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeItems(raw)
}

func (s sweetAPI) Create(ctx context.Context, d catalog.Draft) (catalog.Item, error) {
	return s.itemCall(ctx, http.MethodPost, "/sweets", d)
}

func (s sweetAPI) Update(ctx context.Context, id string, p catalog.Patch) (catalog.Item, error) {
	return s.itemCall(ctx, http.MethodPut, itemPath(id, ""), p)
}

func (s sweetAPI) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(id, ""), s.token(), nil, nil)
}

func (s sweetAPI) Purchase(ctx context.Context, id string, qty int) (catalog.Item, error) {
	return s.itemCall(ctx, http.MethodPost, itemPath(id, "purchase"), quantityRequest{Quantity: qty})
}

func (s sweetAPI) Restock(ctx context.Context, id string, qty int) (catalog.Item, error) {
	return s.itemCall(ctx, http.MethodPost, itemPath(id, "restock"), quantityRequest{Quantity: qty})
}

func (s sweetAPI) itemCall(ctx context.Context, method, path string, body any) (catalog.Item, error) {
	var raw json.RawMessage
	if err := s.c.do(ctx, method, path, s.token(), body, &raw); err != nil {
		return catalog.Item{}, err
	}
	return decodeItem(raw)
}

func itemPath(id, action string) string {
	p := "/sweets/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// decodeItems accepts either {"sweets": [...]} or a bare array.
func decodeItems(raw json.RawMessage) ([]catalog.Item, error) {
	var items []catalog.Item
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var env struct {
		Sweets *[]catalog.Item `json:"sweets"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	if env.Sweets == nil {
		return nil, fmt.Errorf("decode item list: missing sweets field")
	}
	return *env.Sweets, nil
}

// decodeItem accepts either {"sweet": {...}} or the bare item.
func decodeItem(raw json.RawMessage) (catalog.Item, error) {
	var env struct {
		Sweet *catalog.Item `json:"sweet"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return catalog.Item{}, fmt.Errorf("decode item: %w", err)
	}
	if env.Sweet != nil {
		return *env.Sweet, nil
	}
	var it catalog.Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return catalog.Item{}, fmt.Errorf("decode item: %w", err)
	}
	if it.ID == "" {
		return catalog.Item{}, fmt.Errorf("decode item: missing id")
	}
	return it, nil
}
