package kgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ecotrack/ecotrack-backend/internal/platform/ctxutil"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

type wikidataClient struct {
	log       *logger.Logger
	apiURL    string
	sparqlURL string
	anchors   []string
	http      *http.Client
}

// NewWikidataClient builds a Client backed by the public Wikidata entity
// search API and its SPARQL endpoint.
func NewWikidataClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiURL := strings.TrimSpace(os.Getenv("WIKIDATA_API_URL"))
	if apiURL == "" {
		apiURL = "https://www.wikidata.org/w/api.php"
	}
	sparqlURL := strings.TrimSpace(os.Getenv("WIKIDATA_SPARQL_URL"))
	if sparqlURL == "" {
		sparqlURL = "https://query.wikidata.org/sparql"
	}

	c := &wikidataClient{
		log:       log.With("client", "WikidataKGraph"),
		apiURL:    strings.TrimRight(apiURL, "?"),
		sparqlURL: sparqlURL,
		anchors:   anchorClassesFromEnv(),
		http:      &http.Client{},
	}
	log.Info(
		"Wikidata knowledge graph client selected",
		"api_url", c.apiURL,
		"sparql_url", c.sparqlURL,
		"anchor_classes", len(c.anchors),
	)
	return c, nil
}

type wbSearchResponse struct {
	Search []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"search"`
}

func (c *wikidataClient) Resolve(ctx context.Context, query, language string) (*Entity, error) {
	ctx, cancel := ctxutil.WithBudget(ctx, resolveBudget())
	defer cancel()

	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", query)
	params.Set("language", language)
	params.Set("limit", "1")
	params.Set("format", "json")

	var resp wbSearchResponse
	if err := c.getJSON(ctx, c.apiURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, classifyCallError("resolve", err)
	}
	if len(resp.Search) == 0 {
		return nil, nil
	}

	candidate := resp.Search[0]
	if !IsEntityID(candidate.ID) {
		return nil, nil
	}
	return &Entity{ID: strings.TrimSpace(candidate.ID), Label: candidate.Label}, nil
}

// The traversal asks for entities related to the input by generalization,
// part-of and category relations in both directions, constrained to the
// anchor classes, capped at the fixed row limit.
const expansionQueryTemplate = `SELECT DISTINCT ?relatedLabel WHERE {
  VALUES ?anchor { %s }
  {
    wd:%s (wdt:P279|wdt:P31|wdt:P361) ?related .
  } UNION {
    ?related (wdt:P279|wdt:P31|wdt:P361) wd:%s .
  }
  ?related (wdt:P279|wdt:P31|wdt:P361)* ?anchor .
  SERVICE wikibase:label {
    bd:serviceParam wikibase:language "%s" .
    ?related rdfs:label ?relatedLabel .
  }
}
LIMIT %d`

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

func (c *wikidataClient) Expand(ctx context.Context, entityID, language string) ([]string, error) {
	entityID = strings.TrimSpace(entityID)
	if !IsEntityID(entityID) {
		return nil, fmt.Errorf("kgraph expand: invalid entity id %q", entityID)
	}

	ctx, cancel := ctxutil.WithBudget(ctx, expandBudget())
	defer cancel()

	anchors := make([]string, 0, len(c.anchors))
	for _, a := range c.anchors {
		anchors = append(anchors, "wd:"+a)
	}
	query := fmt.Sprintf(
		expansionQueryTemplate,
		strings.Join(anchors, " "),
		entityID,
		entityID,
		language,
		expansionRowLimit,
	)

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	headers := map[string]string{"Accept": "application/sparql-results+json"}
	var resp sparqlResponse
	if err := c.getJSON(ctx, c.sparqlURL+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, classifyCallError("expand", err)
	}

	raw := make([]string, 0, len(resp.Results.Bindings))
	for _, row := range resp.Results.Bindings {
		binding, ok := row["relatedLabel"]
		if !ok {
			continue
		}
		raw = append(raw, binding.Value)
	}
	return NormalizeLabels(raw), nil
}

func (c *wikidataClient) getJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := raw
		if len(body) > 512 {
			body = body[:512]
		}
		return fmt.Errorf("http status=%d body=%q", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classifyCallError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("kgraph %s: budget exceeded: %w", op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("kgraph %s: budget exceeded: %w", op, err)
	}
	return fmt.Errorf("kgraph %s: %w", op, err)
}
