package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/maltedev/offer-resolver/internal/diagnostics"
	"github.com/maltedev/offer-resolver/internal/fetch"
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExtractor is a mock for a retailer extractor
type MockExtractor struct {
	mock.Mock
	retailer models.Retailer
	needsKey bool
}

func (m *MockExtractor) Retailer() models.Retailer { return m.retailer }

func (m *MockExtractor) RequiresCredentials() bool { return m.needsKey }

func (m *MockExtractor) Extract(ctx context.Context, target scraper.Target) *models.RawExtraction {
	return m.Called(ctx, target).Get(0).(*models.RawExtraction)
}

// MockSink is a mock for a diagnostics sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Record(ctx context.Context, report *diagnostics.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockSink) Close() error { return nil }

type stubExpander struct {
	targets map[string]string
	calls   int
}

func (s *stubExpander) IsShortLink(rawURL string) bool {
	_, ok := s.targets[rawURL]
	return ok
}

func (s *stubExpander) Expand(_ context.Context, rawURL string) (string, error) {
	s.calls++
	if t := s.targets[rawURL]; t != "" {
		return t, nil
	}
	return rawURL, errors.New("expansion failed")
}

func newSink() *MockSink {
	sink := &MockSink{}
	sink.On("Record", mock.Anything, mock.Anything).Return(nil)
	return sink
}

func TestResolveExpandsShortLinkBeforeClassifying(t *testing.T) {
	amazon := &MockExtractor{retailer: models.RetailerAmazon}
	amazon.On("Extract", mock.Anything, scraper.Target{URL: "https://www.amazon.com.br/dp/B09B8VGCR8"}).Return(&models.RawExtraction{
		Retailer:     models.RetailerAmazon,
		Name:         "Echo Dot",
		CurrentPrice: models.NewPriceToken("R$ 379,05", models.RoleCurrent, models.SourceDisplay),
		ResolvedURL:  "https://www.amazon.com.br/dp/B09B8VGCR8",
	})

	expander := &stubExpander{targets: map[string]string{"https://amzn.to/abc": "https://www.amazon.com.br/dp/B09B8VGCR8"}}
	sink := newSink()

	r, err := New(Options{}, []scraper.Extractor{amazon}, expander, sink, nil)
	require.NoError(t, err)

	rec, err := r.Resolve(context.Background(), models.ProductQuery{RawURL: "https://amzn.to/abc"})
	require.NoError(t, err)

	amazon.AssertExpectations(t)
	sink.AssertExpectations(t)
	assert.Equal(t, 1, expander.calls)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, models.StatusOK, rec.Status)
	assert.Equal(t, models.RetailerAmazon, rec.Retailer)
	assert.Equal(t, "📦 Echo Dot\n💰 R$ 379,05\n🔗 https://www.amazon.com.br/dp/B09B8VGCR8", rec.Caption)
}

func TestResolveUnsupportedRetailer(t *testing.T) {
	r, err := New(Options{}, nil, nil, newSink(), nil)
	require.NoError(t, err)

	rec, err := r.Resolve(context.Background(), models.ProductQuery{RawURL: "https://www.kabum.com.br/produto/1"})
	assert.ErrorIs(t, err, ErrUnsupportedRetailer)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusUnsupported, rec.Status)
	assert.Equal(t, "https://www.kabum.com.br/produto/1", rec.URL)
	assert.Contains(t, rec.Caption, "https://www.kabum.com.br/produto/1")
}

func TestResolveMissingCredentials(t *testing.T) {
	shopee := &MockExtractor{retailer: models.RetailerShopee, needsKey: true}

	r, err := New(Options{}, []scraper.Extractor{shopee}, nil, newSink(), nil)
	require.NoError(t, err)

	rec, err := r.Resolve(context.Background(), models.ProductQuery{RawURL: "https://shopee.com.br/x-i.1.2"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, models.StatusMissingCredentials, rec.Status)
	assert.NotEmpty(t, rec.Caption)
	shopee.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestResolveUsesDefaultCredentials(t *testing.T) {
	defaults := &models.Credentials{AppID: "app", Secret: "secret"}
	url := "https://shopee.com.br/x-i.1.2"

	shopee := &MockExtractor{retailer: models.RetailerShopee, needsKey: true}
	shopee.On("Extract", mock.Anything, scraper.Target{URL: url, Credentials: defaults}).Return(&models.RawExtraction{Name: "X"})

	r, err := New(Options{DefaultCredentials: defaults}, []scraper.Extractor{shopee}, nil, newSink(), nil)
	require.NoError(t, err)

	rec, err := r.Resolve(context.Background(), models.ProductQuery{RawURL: url})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, rec.Status)
	shopee.AssertExpectations(t)
}

func TestResolveRejectsAmbiguousTable(t *testing.T) {
	_, err := New(Options{Table: []Route{
		{Retailer: models.RetailerAmazon, Markers: []string{"amazon"}},
		{Retailer: models.RetailerMagalu, Markers: []string{"amazon.com"}},
	}}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrAmbiguousTable)
}

type challengeFetcher struct{}

func (challengeFetcher) Get(_ context.Context, rawURL string) (*fetch.Page, error) {
	return &fetch.Page{
		FinalURL:   "https://www.amazon.com.br/errors/validateCaptcha",
		HTML:       `<html><head><title>Robot Check</title></head></html>`,
		StatusCode: 503,
	}, fmt.Errorf("%w: 503", fetch.ErrUnexpectedStatus)
}

type emptyFetcher struct{}

func (emptyFetcher) Get(_ context.Context, rawURL string) (*fetch.Page, error) {
	return &fetch.Page{FinalURL: rawURL, HTML: "<html><body>nothing here</body></html>", StatusCode: 200}, nil
}

func TestResolveTotalFailureDegradesToPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		fetcher scraper.PageFetcher
		status  models.Status
	}{
		{"Blocked", challengeFetcher{}, models.StatusBlocked},
		{"Empty", emptyFetcher{}, models.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := scraper.NewAmazonExtractor(scraper.Deps{Fetcher: tt.fetcher, StrategyTimeout: time.Second}, nil)
			expander := &stubExpander{targets: map[string]string{"https://amzn.to/abc": "https://www.amazon.com.br/dp/B09B8VGCR8"}}

			r, err := New(Options{Deadline: 5 * time.Second}, []scraper.Extractor{extractor}, expander, newSink(), nil)
			require.NoError(t, err)

			rec, err := r.Resolve(context.Background(), models.ProductQuery{RawURL: "https://amzn.to/abc"})
			require.NoError(t, err)
			require.NotNil(t, rec)

			assert.Equal(t, tt.status, rec.Status)
			assert.Equal(t, models.PlaceholderTitle, rec.Title)
			assert.Nil(t, rec.Price)
			assert.Nil(t, rec.OriginalPrice)
			assert.NotEmpty(t, rec.Caption)
			assert.NotEmpty(t, rec.Attempts)
			assert.True(t, strings.Contains(rec.Caption, "https://amzn.to/abc"))
		})
	}
}
