package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client performs all HTTP access to the ENCODE data portal. Each call
// carries a fixed deadline; there is no cancellation mechanism beyond it and
// no automatic retry.
type Client struct {
	baseURL string

	metadataClient *http.Client
	listingClient  *http.Client
	// transferClient's timeout covers the whole body read, so a stalled
	// download cannot hold a stream open forever.
	transferClient *http.Client
}

// New creates a portal client for the given base URL. Trailing slashes are
// stripped so hrefs can be joined verbatim.
func New(baseURL string, metadataTimeout, listingTimeout, transferTimeout time.Duration) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		metadataClient: &http.Client{Timeout: metadataTimeout},
		listingClient:  &http.Client{Timeout: listingTimeout},
		transferClient: &http.Client{Timeout: transferTimeout},
	}
}

// Experiment fetches a single experiment record. With embedded set, nested
// sub-resources such as files are returned inline rather than as reference
// strings.
func (c *Client) Experiment(accession string, embedded bool) (map[string]any, error) {
	params := url.Values{}
	params.Set("format", "json")
	if embedded {
		params.Set("frame", "embedded")
	}
	requestURL := c.ExperimentURL(accession) + "?" + params.Encode()

	log.Debug().
		Str("accession", accession).
		Bool("embedded", embedded).
		Msg("fetching experiment from portal")

	body, err := c.getJSON(c.metadataClient, requestURL)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
			return nil, &NotFoundError{Accession: accession}
		}
		return nil, err
	}

	doc := map[string]any{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &RequestError{URL: requestURL, Inner: fmt.Errorf("decode experiment document: %w", err)}
	}

	return doc, nil
}

// Listing fetches the full experiment listing from the portal. The portal
// returns the documents under a top-level @graph array.
func (c *Client) Listing() ([]map[string]any, error) {
	requestURL := c.baseURL + "/experiments/?format=json&limit=all"

	log.Info().Msg("fetching full experiment listing from portal")

	body, err := c.getJSON(c.listingClient, requestURL)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Graph []map[string]any `json:"@graph"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RequestError{URL: requestURL, Inner: fmt.Errorf("decode listing document: %w", err)}
	}

	log.Info().Int("experiments", len(payload.Graph)).Msg("experiment listing fetched")

	return payload.Graph, nil
}

// OpenFile opens a byte stream for a file href. The caller owns the returned
// body; the transfer deadline covers the full read.
func (c *Client) OpenFile(href string) (io.ReadCloser, error) {
	requestURL := c.FileURL(href)

	resp, err := c.transferClient.Get(requestURL)
	if err != nil {
		return nil, &RequestError{URL: requestURL, Inner: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &RequestError{URL: requestURL, Status: resp.StatusCode}
	}

	return resp.Body, nil
}

// FileURL resolves a file href to an absolute URL. Hrefs are served relative
// to the portal unless already absolute.
func (c *Client) FileURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + href
}

// ExperimentURL returns the human-readable portal link for an experiment.
func (c *Client) ExperimentURL(accession string) string {
	return c.baseURL + "/experiments/" + accession + "/"
}

// getJSON performs a GET with the given client and returns the response body,
// mapping transport failures and non-200 statuses to RequestError.
func (c *Client) getJSON(client *http.Client, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &RequestError{URL: requestURL, Inner: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: requestURL, Inner: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close portal response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{URL: requestURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: requestURL, Inner: err}
	}

	return body, nil
}
