package collector

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormSource_DecodesNamedFields(t *testing.T) {
	src := &FormSource{Form: url.Values{
		"symbol":         {"aapl"},
		"tradeEnterDate": {"2023-01-01"},
		"buyPrice":       {"150"},
		"exitPrice2":     {"170"},
		"csrf":           {"ignored"},
	}}
	in, err := src.Inputs()
	require.NoError(t, err)
	assert.Equal(t, "aapl", in.Symbol)
	assert.Equal(t, "2023-01-01", in.TradeEnterDate)
	assert.Equal(t, "150", in.BuyPrice)
	assert.Equal(t, "170", in.ExitPrice2)
	assert.Empty(t, in.TradeExitDate)
	assert.Equal(t, SourceForm, src.Name())
}

func TestParseQuerySource(t *testing.T) {
	for _, raw := range []string{
		"symbol=aapl&buyPrice=150",
		"?symbol=aapl&buyPrice=150",
		"http://localhost:8090/trade?symbol=aapl&buyPrice=150",
	} {
		src, err := ParseQuerySource(raw)
		require.NoError(t, err, raw)
		in, err := src.Inputs()
		require.NoError(t, err, raw)
		assert.Equal(t, "aapl", in.Symbol, raw)
		assert.Equal(t, "150", in.BuyPrice, raw)
		assert.Equal(t, SourceQuery, src.Name())
	}
}

func TestSources_RepeatedKeyKeepsFirst(t *testing.T) {
	qs, err := ParseQuerySource("symbol=aapl&symbol=msft&buyPrice=150&buyPrice=")
	require.NoError(t, err)
	in, err := qs.Inputs()
	require.NoError(t, err)
	assert.Equal(t, "aapl", in.Symbol)
	assert.Equal(t, "150", in.BuyPrice)

	form := &FormSource{Form: url.Values{"symbol": {"aapl", "msft"}, "exitPrice": {}}}
	in, err = form.Inputs()
	require.NoError(t, err)
	assert.Equal(t, "aapl", in.Symbol)
	assert.Empty(t, in.ExitPrice)
	assert.Equal(t, []string{"aapl", "msft"}, form.Form["symbol"])
}

func TestParseQuerySource_Invalid(t *testing.T) {
	_, err := ParseQuerySource("symbol=%zz")
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	values := url.Values{"symbol": {"aapl"}}

	src, err := NewSource(SourceForm, values)
	require.NoError(t, err)
	assert.IsType(t, &FormSource{}, src)

	src, err = NewSource(SourceQuery, values)
	require.NoError(t, err)
	assert.IsType(t, &QuerySource{}, src)

	_, err = NewSource("cookie", values)
	assert.Error(t, err)
}
