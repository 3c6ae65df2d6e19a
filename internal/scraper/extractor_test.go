package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/maltedev/offer-resolver/internal/affiliate"
	"github.com/maltedev/offer-resolver/internal/browser"
	"github.com/maltedev/offer-resolver/internal/fetch"
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]*fetch.Page
	err   error
	calls int
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) (*fetch.Page, error) {
	f.calls++
	if page, ok := f.pages[rawURL]; ok {
		return page, f.err
	}
	return nil, fmt.Errorf("%w: 404", fetch.ErrUnexpectedStatus)
}

type fakeRenderer struct {
	page  *browser.RenderedPage
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) (*browser.RenderedPage, error) {
	f.calls++
	if f.page == nil {
		return nil, errors.New("render failed")
	}
	return f.page, nil
}

// MockShopeeAPI is a mock for the signed affiliate API
type MockShopeeAPI struct {
	mock.Mock
}

func (m *MockShopeeAPI) ProductOffer(ctx context.Context, creds *models.Credentials, itemID int64) (*affiliate.Offer, error) {
	args := m.Called(ctx, creds, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*affiliate.Offer), args.Error(1)
}

func (m *MockShopeeAPI) ShortLink(ctx context.Context, creds *models.Credentials, originURL string) (string, error) {
	args := m.Called(ctx, creds, originURL)
	return args.String(0), args.Error(1)
}

func TestShopeeExtractorUsesAPIOnly(t *testing.T) {
	creds := &models.Credentials{AppID: "1", Secret: "s"}
	url := "https://shopee.com.br/Garrafa-i.111.222"

	api := &MockShopeeAPI{}
	api.On("ShortLink", mock.Anything, creds, url).Return("https://s.shopee.com.br/short", nil)
	api.On("ProductOffer", mock.Anything, creds, int64(222)).Return(&affiliate.Offer{
		ProductName: "Garrafa Térmica",
		PriceMin:    "3990",
		PriceMax:    "5990",
		ImageURL:    "https://cf.shopee.com.br/file/g",
	}, nil)

	fetcher := &fakeFetcher{}
	renderer := &fakeRenderer{}
	e := NewShopeeExtractor(Deps{Fetcher: fetcher, Renderer: renderer, StrategyTimeout: time.Second}, api)

	raw := e.Extract(context.Background(), Target{URL: url, Credentials: creds})

	api.AssertExpectations(t)
	assert.True(t, e.RequiresCredentials())
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, renderer.calls)
	assert.Equal(t, "https://s.shopee.com.br/short", raw.AffiliateURL)
	assert.Equal(t, "Garrafa Térmica", raw.Name)
	require.NotNil(t, raw.CurrentPrice)
	assert.Equal(t, models.SourceMinorUnits, raw.CurrentPrice.Source)
	require.NotNil(t, raw.OriginalPrice)
	assert.Equal(t, "5990", raw.OriginalPrice.Raw)
}

func TestShopeeExtractorFallsBackToPage(t *testing.T) {
	creds := &models.Credentials{AppID: "1", Secret: "s"}
	url := "https://shopee.com.br/Garrafa-i.111.222"

	api := &MockShopeeAPI{}
	api.On("ShortLink", mock.Anything, creds, url).Return(url, nil)
	api.On("ProductOffer", mock.Anything, creds, int64(222)).Return(nil, affiliate.ErrNoOffer)

	fetcher := &fakeFetcher{pages: map[string]*fetch.Page{
		url: {FinalURL: url, HTML: `<meta property="og:title" content="Garrafa | Shopee Brasil"><meta property="product:price:amount" content="39.90">`},
	}}

	raw := NewShopeeExtractor(Deps{Fetcher: fetcher}, api).Extract(context.Background(), Target{URL: url, Credentials: creds})

	assert.Empty(t, raw.AffiliateURL)
	assert.Equal(t, "Garrafa", raw.Name)
	require.Len(t, raw.Attempts, 2)
	assert.Equal(t, models.OutcomeFailed, raw.Attempts[0].Outcome)
	assert.Equal(t, models.OutcomeSuccess, raw.Attempts[1].Outcome)
}

func TestShopeeExtractorRecordsLinkStep(t *testing.T) {
	creds := &models.Credentials{AppID: "1", Secret: "s"}
	url := "https://shopee.com.br/Garrafa-i.111.222"

	tests := []struct {
		name          string
		link          string
		linkErr       error
		wantAffiliate string
		wantAttempts  []string
	}{
		{
			name:          "Short link generated",
			link:          "https://s.shopee.com.br/short",
			wantAffiliate: "https://s.shopee.com.br/short",
			wantAttempts:  []string{"structured_api", "static_html"},
		},
		{
			name:         "Short link equal to input",
			link:         url,
			wantAttempts: []string{"structured_api", "static_html"},
		},
		{
			name:         "Short link rejected",
			linkErr:      fmt.Errorf("%w: code 10020: invalid signature", affiliate.ErrSignatureRejected),
			wantAttempts: []string{linkStrategy, "structured_api", "static_html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockShopeeAPI{}
			api.On("ShortLink", mock.Anything, creds, url).Return(tt.link, tt.linkErr)
			api.On("ProductOffer", mock.Anything, creds, int64(222)).Return(&affiliate.Offer{
				ProductName: "Garrafa Térmica",
				PriceMin:    "3990",
				ImageURL:    "https://cf.shopee.com.br/file/g",
			}, nil)

			raw := NewShopeeExtractor(Deps{Fetcher: &fakeFetcher{}, StrategyTimeout: time.Second}, api).
				Extract(context.Background(), Target{URL: url, Credentials: creds})

			api.AssertExpectations(t)
			assert.Equal(t, tt.wantAffiliate, raw.AffiliateURL)
			assert.Equal(t, "Garrafa Térmica", raw.Name)

			var strategies []string
			for _, a := range raw.Attempts {
				strategies = append(strategies, a.Strategy)
			}
			assert.Equal(t, tt.wantAttempts, strategies)

			if tt.linkErr != nil {
				first := raw.Attempts[0]
				assert.Equal(t, models.RetailerShopee, first.Retailer)
				assert.Equal(t, models.OutcomeFailed, first.Outcome)
				assert.Contains(t, first.Error, "invalid signature")
			}
		})
	}
}

func TestMercadoLivreKeepsInputURL(t *testing.T) {
	url := "https://mercadolivre.com/sec/1AbCd"
	fetcher := &fakeFetcher{pages: map[string]*fetch.Page{
		url: {FinalURL: "https://www.mercadolivre.com.br/p/MLB1?tracking=x", HTML: `<meta property="og:title" content="Kit"><meta itemprop="price" content="10">`},
	}}

	raw := NewMercadoLivreExtractor(Deps{Fetcher: fetcher}).Extract(context.Background(), Target{URL: url})

	assert.Equal(t, url, raw.ResolvedURL)
	assert.Equal(t, "Kit", raw.Name)
	assert.False(t, NewMercadoLivreExtractor(Deps{Fetcher: fetcher}).RequiresCredentials())
}

func TestMagaluChallengeBlocksAndSkipsRenderer(t *testing.T) {
	url := "https://www.magazineluiza.com.br/tv/p/1/"
	fetcher := &fakeFetcher{pages: map[string]*fetch.Page{
		url: {FinalURL: "https://www.magazineluiza.com.br/az-request-verify?x", HTML: "<html></html>"},
	}}
	renderer := &fakeRenderer{}

	raw := NewMagaluExtractor(Deps{Fetcher: fetcher, Renderer: renderer}, affiliate.NewMagaluStorefront("in_603815")).
		Extract(context.Background(), Target{URL: url})

	assert.True(t, raw.Blocked)
	assert.Equal(t, 0, renderer.calls)
	assert.Equal(t, "https://www.magazinevoce.com.br/magazinein_603815/tv/p/1/", raw.AffiliateURL)
}

func TestAmazonRendererFillsWhatStaticMissed(t *testing.T) {
	url := "https://www.amazon.com.br/dp/B09B8VGCR8"
	fetcher := &fakeFetcher{pages: map[string]*fetch.Page{
		url: {FinalURL: url, HTML: `<span id="productTitle">Echo Dot</span>`},
	}}
	renderer := &fakeRenderer{page: &browser.RenderedPage{
		FinalURL: url,
		HTML:     `<span id="productTitle">Echo Dot 5</span><span class="a-price priceToPay"><span class="a-offscreen">R$ 379,05</span></span>`,
	}}

	raw := NewAmazonExtractor(Deps{Fetcher: fetcher, Renderer: renderer}, affiliate.NewAmazonTagger("loja-20")).
		Extract(context.Background(), Target{URL: url})

	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, "Echo Dot", raw.Name)
	require.NotNil(t, raw.CurrentPrice)
	assert.Equal(t, "R$ 379,05", raw.CurrentPrice.Raw)
	assert.Equal(t, "https://www.amazon.com.br/dp/B09B8VGCR8?tag=loja-20", raw.AffiliateURL)
}

func TestStaticStrategyChallengeOnErrorStatus(t *testing.T) {
	url := "https://www.amazon.com.br/dp/B09B8VGCR8"
	fetcher := &fakeFetcher{
		pages: map[string]*fetch.Page{url: {FinalURL: url, HTML: `<form action="/errors/validateCaptcha"></form>`, StatusCode: 503}},
		err:   fmt.Errorf("%w: 503", fetch.ErrUnexpectedStatus),
	}

	_, err := NewStaticStrategy(fetcher, parser.NewAmazonParser()).Run(context.Background(), Target{URL: url})
	assert.ErrorIs(t, err, ErrBlocked)
}