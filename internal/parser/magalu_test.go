package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagaluParseProductPage(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Smart TV 50&quot; 4K - Magazine Luiza">
		<meta property="og:image" content="https://a-static.mlcdn.com.br/tv.jpg">
	</head><body>
		<p data-testid="price-original">R$ 2.999,00</p>
		<p data-testid="price-value">ou R$ 2.199,00</p>
		<span>5% de desconto no pix</span>
		<p>10x de R$ 231,47 sem juros</p>
	</body></html>`

	raw, err := NewMagaluParser().ParseProductPage(html, "https://www.magazinevoce.com.br/magazinein_603815/tv/p/123/")
	require.NoError(t, err)

	assert.Equal(t, `Smart TV 50" 4K`, raw.Name)
	assert.Equal(t, "https://a-static.mlcdn.com.br/tv.jpg", raw.ImageURL)
	require.NotNil(t, raw.CurrentPrice)
	assert.Equal(t, "ou R$ 2.199,00", raw.CurrentPrice.Raw)
	require.NotNil(t, raw.OriginalPrice)
	assert.Equal(t, "R$ 2.999,00", raw.OriginalPrice.Raw)
	assert.Equal(t, "5% de desconto no pix", raw.DiscountText)
	assert.Equal(t, "10x de R$ 231,47 sem juros", raw.Installments)
}

func TestMagaluIsChallengePage(t *testing.T) {
	p := NewMagaluParser()
	assert.True(t, p.IsChallengePage("", "https://www.magazineluiza.com.br/az-request-verify?x=1"))
	assert.False(t, p.IsChallengePage("", "https://www.magazineluiza.com.br/tv/p/123/"))
}
