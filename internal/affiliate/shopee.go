package affiliate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/maltedev/offer-resolver/internal/models"
)

const DefaultShopeeEndpoint = "https://open-api.affiliate.shopee.com.br/graphql"

// codeInvalidSignature is the GraphQL error code the affiliate API uses for a bad or expired signature.
const codeInvalidSignature = 10020

var (
	ErrMissingCredentials = errors.New("affiliate credentials are required")
	ErrSignatureRejected  = errors.New("signature rejected")
	ErrAPIFailure         = errors.New("affiliate API failure")
	ErrNoOffer            = errors.New("no affiliate offer for item")
	ErrInvalidItemURL     = errors.New("no item id in shopee URL")
)

var (
	shopeeSlugItem    = regexp.MustCompile(`-i\.(\d+)\.(\d+)`)
	shopeeProductPath = regexp.MustCompile(`/product/(\d+)/(\d+)`)
)

// ExtractShopeeItemID reads the item id from "...-i.<shop>.<item>" or "/product/<shop>/<item>" URLs.
func ExtractShopeeItemID(rawURL string) (int64, error) {
	for _, re := range []*regexp.Regexp{shopeeSlugItem, shopeeProductPath} {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			id, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", ErrInvalidItemURL, err)
			}
			return id, nil
		}
	}
	return 0, ErrInvalidItemURL
}

// Offer is one productOfferV2 node. Prices are strings of minor units.
type Offer struct {
	ProductName string `json:"productName"`
	PriceMin    string `json:"priceMin"`
	PriceMax    string `json:"priceMax"`
	ImageURL    string `json:"imageUrl"`
	OfferLink   string `json:"offerLink"`
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// ShopeeClient talks to the signed Shopee affiliate GraphQL API. Credentials are passed per call.
type ShopeeClient struct {
	httpClient *http.Client
	endpoint   string
	subIDs     []string
	now        func() time.Time
	logger     *slog.Logger
}

func NewShopeeClient(endpoint string, timeout time.Duration, subIDs []string, logger *slog.Logger) *ShopeeClient {
	if endpoint == "" {
		endpoint = DefaultShopeeEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ShopeeClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		subIDs:     subIDs,
		now:        time.Now,
		logger:     logger.With("component", "shopee_affiliate"),
	}
}

// ShortLink exchanges originURL for a tracked short link.
func (c *ShopeeClient) ShortLink(ctx context.Context, creds *models.Credentials, originURL string) (string, error) {
	origin, _ := json.Marshal(originURL)
	subIDs, _ := json.Marshal(c.subIDs)
	if c.subIDs == nil {
		subIDs = []byte("[]")
	}

	query := fmt.Sprintf(`mutation{generateShortLink(input:{originUrl:%s,subIds:%s}){shortLink}}`, origin, subIDs)

	var out struct {
		GenerateShortLink struct {
			ShortLink string `json:"shortLink"`
		} `json:"generateShortLink"`
	}
	if err := c.call(ctx, creds, query, &out); err != nil {
		return "", err
	}
	if out.GenerateShortLink.ShortLink == "" {
		return "", fmt.Errorf("%w: empty short link", ErrAPIFailure)
	}
	return out.GenerateShortLink.ShortLink, nil
}

// ProductOffer fetches the affiliate offer for an item.
func (c *ShopeeClient) ProductOffer(ctx context.Context, creds *models.Credentials, itemID int64) (*Offer, error) {
	query := fmt.Sprintf(`query{productOfferV2(itemId:%d){nodes{productName priceMin priceMax imageUrl offerLink}}}`, itemID)

	var out struct {
		ProductOfferV2 struct {
			Nodes []Offer `json:"nodes"`
		} `json:"productOfferV2"`
	}
	if err := c.call(ctx, creds, query, &out); err != nil {
		return nil, err
	}
	if len(out.ProductOfferV2.Nodes) == 0 {
		return nil, ErrNoOffer
	}
	return &out.ProductOfferV2.Nodes[0], nil
}

// call signs and sends query. A rejected signature is retried once with a fresh timestamp.
func (c *ShopeeClient) call(ctx context.Context, creds *models.Credentials, query string, out any) error {
	if creds.IsZero() {
		return ErrMissingCredentials
	}

	payload, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	data, err := c.do(ctx, creds, payload)
	if errors.Is(err, ErrSignatureRejected) {
		c.logger.Warn("signature rejected, retrying with fresh timestamp")
		data, err = c.do(ctx, creds, payload)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode data: %v", ErrAPIFailure, err)
	}
	return nil
}

func (c *ShopeeClient) do(ctx context.Context, creds *models.Credentials, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := c.now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", AuthorizationHeader(creds.AppID, creds.Secret, timestamp, payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrAPIFailure, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", ErrSignatureRejected, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIFailure, resp.StatusCode)
	}

	var gql graphQLResponse
	if err := json.Unmarshal(body, &gql); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrAPIFailure, err)
	}

	if len(gql.Errors) > 0 {
		e := gql.Errors[0]
		if e.Extensions.Code == codeInvalidSignature {
			return nil, fmt.Errorf("%w: %s", ErrSignatureRejected, e.Message)
		}
		return nil, fmt.Errorf("%w: code %d: %s", ErrAPIFailure, e.Extensions.Code, e.Message)
	}

	return gql.Data, nil
}
