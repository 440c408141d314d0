package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fwojciec/wpmigrate"
)

// Compile-time interface verification.
var _ wpmigrate.TargetStore = (*TargetClient)(nil)

// TargetClient writes documents and assets to a Sanity-compatible content API.
type TargetClient struct {
	baseURL string
	dataset string
	opts    *options
}

// NewTargetClient creates a client for the API at baseURL, e.g.
// "https://<project>.api.sanity.io/v2021-06-07", writing to dataset.
func NewTargetClient(baseURL, dataset string, opts ...Option) *TargetClient {
	return &TargetClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		dataset: dataset,
		opts:    newOptions(opts),
	}
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// CreateOrReplace writes doc, replacing any document with the same ID.
func (c *TargetClient) CreateOrReplace(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	return c.mutate(ctx, "createOrReplace", doc)
}

// CreateIfNotExists writes doc unless a document with the same ID exists.
func (c *TargetClient) CreateIfNotExists(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	return c.mutate(ctx, "createIfNotExists", doc)
}

func (c *TargetClient) mutate(ctx context.Context, kind string, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	if doc == nil || doc.ID == "" || doc.Type == "" {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "document ID and type required")
	}

	body, err := json.Marshal(map[string]any{
		"mutations": []map[string]any{{kind: doc}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	q := url.Values{}
	q.Set("returnIds", "true")
	q.Set("visibility", "sync")
	u := c.baseURL + "/data/mutate/" + url.PathEscape(c.dataset) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out mutateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode mutation response: %w", err)
	}

	res := &wpmigrate.CommitResult{ID: doc.ID, Operation: wpmigrate.OperationSkipped}
	for _, r := range out.Results {
		if r.ID != doc.ID {
			continue
		}
		switch r.Operation {
		case "create":
			res.Operation = wpmigrate.OperationCreated
		case "update":
			res.Operation = wpmigrate.OperationUpdated
		}
	}
	return res, nil
}

// FindDocuments queries documents matching the filter, ordered by ID.
func (c *TargetClient) FindDocuments(ctx context.Context, filter wpmigrate.TargetFilter) ([]*wpmigrate.Document, error) {
	var conds []string
	q := url.Values{}
	if filter.Type != nil {
		conds = append(conds, "_type == $type")
		q.Set("$type", strconv.Quote(*filter.Type))
	}
	if filter.SourceID != nil {
		conds = append(conds, "sourceId == $sourceId")
		q.Set("$sourceId", strconv.Quote(*filter.SourceID))
	}

	groq := "*"
	if len(conds) > 0 {
		groq += "[" + strings.Join(conds, " && ") + "]"
	}
	groq += " | order(_id asc)"
	if filter.Limit > 0 {
		groq += fmt.Sprintf("[0...%d]", filter.Limit)
	}
	q.Set("query", groq)

	var out struct {
		Result []*wpmigrate.Document `json:"result"`
	}
	u := c.baseURL + "/data/query/" + url.PathEscape(c.dataset) + "?" + q.Encode()
	if _, err := c.opts.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// UploadAsset uploads an image and returns the asset document ID the API
// assigns. The API deduplicates identical binaries.
func (c *TargetClient) UploadAsset(ctx context.Context, upload wpmigrate.AssetUpload) (string, error) {
	if upload.Body == nil {
		return "", wpmigrate.Errorf(wpmigrate.EINVALID, "asset body required")
	}

	q := url.Values{}
	if upload.Filename != "" {
		q.Set("filename", upload.Filename)
	}
	if upload.SourceURL != "" {
		q.Set("sourceId", upload.SourceURL)
		q.Set("sourceName", "wordpress")
	}
	u := c.baseURL + "/assets/images/" + url.PathEscape(c.dataset)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, upload.Body)
	if err != nil {
		return "", err
	}
	if upload.MimeType != "" {
		req.Header.Set("Content-Type", upload.MimeType)
	}

	resp, err := c.opts.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Document struct {
			ID string `json:"_id"`
		} `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode asset response: %w", err)
	}
	if out.Document.ID == "" {
		return "", wpmigrate.Errorf(wpmigrate.EINTERNAL, "asset upload for %s returned no ID", upload.Filename)
	}
	return out.Document.ID, nil
}
