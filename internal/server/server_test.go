package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeLens/internal/collector"
	"TradeLens/internal/fetcher"
	"TradeLens/internal/model"
	"TradeLens/internal/pipeline"
	"TradeLens/internal/render"
	"TradeLens/internal/trades"
)

func newTestServer(source string, f fetcher.Fetcher) *Server {
	p := pipeline.New(collector.NewCollector(""), f, render.NewRenderer(0), nil, zerolog.Nop())
	board := render.NewMemoryBoard(
		collector.ContainerDaily,
		collector.ContainerWeekly,
		collector.ContainerMonthly,
		collector.ContainerSP500,
	)
	return New(p, board, source, zerolog.Nop())
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestIndex_FormVariant(t *testing.T) {
	rr := serve(newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150)), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="generate"`)
}

func TestSubmitForm_RendersAllCharts(t *testing.T) {
	s := newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150))
	form := url.Values{
		"symbol":         {"aapl"},
		"tradeEnterDate": {"2023-01-01"},
		"buyPrice":       {"150"},
		"exitPrice":      {"160"},
		"tradeExitDate":  {"2023-02-01"},
	}
	req := httptest.NewRequest(http.MethodPost, "/charts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := serve(s, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, id := range []string{"chartDaily", "chartWeekly", "chartMonthly", "chartSP500"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
	assert.Contains(t, body, `value="aapl"`)

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/containers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []string{"chartDaily", "chartWeekly", "chartMonthly", "chartSP500"}, list["containers"])

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/containers/chartSP500", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var opts struct {
		Title struct {
			Text string `json:"text"`
		} `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &opts))
	assert.Equal(t, "spy", opts.Title.Text)
}

func TestSubmitForm_MissingSymbol(t *testing.T) {
	s := newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150))
	req := httptest.NewRequest(http.MethodPost, "/charts", strings.NewReader("buyPrice=150"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "symbol is required")
}

type failingFetcher struct{}

func (failingFetcher) Name() string { return "failing" }

func (failingFetcher) FetchChart(context.Context, string) (*model.ChartResponse, error) {
	return nil, &fetcher.NetworkError{URL: "/data", StatusCode: 503, Err: errors.New("backend down")}
}

func TestLoadTrade_BackendFailure(t *testing.T) {
	s := newTestServer(collector.SourceQuery, failingFetcher{})
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/trade?symbol=aapl", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "backend down")
}

func TestRouter_OnlyConfiguredVariant(t *testing.T) {
	form := newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150))
	rr := serve(form, httptest.NewRequest(http.MethodGet, "/trade?symbol=aapl", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	query := newTestServer(collector.SourceQuery, fetcher.NewMockFetcher(150))
	rr = serve(query, httptest.NewRequest(http.MethodPost, "/charts", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(query, httptest.NewRequest(http.MethodGet, "/trade?symbol=aapl", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func uploadRequest(t *testing.T, field, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "trades.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const uploadCSV = "T1,X1,2023-01-03,2023-02-01,aapl,BUY,SELL,10,10,150,160,1,1600,tr,NASDAQ,FILLED\n" +
	"T2,,2023-03-01,,msft,BUY,,5,,300,,,,tr,NASDAQ,OPEN\n"

func TestUploadTrades_JSON(t *testing.T) {
	s := newTestServer(collector.SourceQuery, fetcher.NewMockFetcher(150))
	req := uploadRequest(t, "file", uploadCSV)
	req.Header.Set("Accept", "application/json")

	rr := serve(s, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var orders []trades.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, "aapl", orders[0].Symbol)
	assert.Equal(t,
		"/trade?buyPrice=150&exitPrice=160&symbol=aapl&tradeEnterDate=2023-01-03&tradeExitDate=2023-02-01",
		orders[0].Link)
	assert.Equal(t, "/trade?buyPrice=300&symbol=msft&tradeEnterDate=2023-03-01", orders[1].Link)

	rr = serve(s, httptest.NewRequest(http.MethodGet, orders[1].Link, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="chartDaily"`)
}

func TestUploadTrades_HTMLTable(t *testing.T) {
	s := newTestServer(collector.SourceQuery, fetcher.NewMockFetcher(150))
	rr := serve(s, uploadRequest(t, "file", uploadCSV))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<table id="trades">`)
	assert.Contains(t, body, "<td>msft</td>")
	assert.Contains(t, body, `href="/trade?buyPrice=300&amp;symbol=msft&amp;tradeEnterDate=2023-03-01"`)
}

func TestUploadTrades_BadInput(t *testing.T) {
	s := newTestServer(collector.SourceQuery, fetcher.NewMockFetcher(150))

	req := uploadRequest(t, "attachment", uploadCSV)
	req.Header.Set("Accept", "application/json")
	rr := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"bad_upload"`)

	req = uploadRequest(t, "file", "T1,X1,aapl\n")
	req.Header.Set("Accept", "application/json")
	rr = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"bad_csv"`)

	rr = serve(s, uploadRequest(t, "file", "T1,X1,aapl\n"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `class="error"`)
}

func TestTradesForm(t *testing.T) {
	query := newTestServer(collector.SourceQuery, fetcher.NewMockFetcher(150))
	rr := serve(query, httptest.NewRequest(http.MethodGet, "/trades", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/upload"`)

	form := newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150))
	rr = serve(form, httptest.NewRequest(http.MethodGet, "/trades", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetContainer_NotRendered(t *testing.T) {
	rr := serve(newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150)), httptest.NewRequest(http.MethodGet, "/containers/chartDaily", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var e errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "not_rendered", e.Type)
}

func TestHealthz(t *testing.T) {
	rr := serve(newTestServer(collector.SourceForm, fetcher.NewMockFetcher(150)), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(nil))
	assert.Equal(t, http.StatusBadRequest, statusFor(collector.ErrMissingSymbol))
	assert.Equal(t, http.StatusBadGateway, statusFor(&pipeline.StepError{Err: &fetcher.ParseError{Err: errors.New("eof")}}))
	assert.Equal(t, http.StatusBadGateway, statusFor(&pipeline.StepError{Err: render.ErrNoSeries}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
