package service

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"prngkit/internal/biz"
	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	reports []*biz.ValidationReport
}

func (r *memRepo) Save(ctx context.Context, report *biz.ValidationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (*biz.ValidationReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.reports {
		if report.ID == id {
			return report, nil
		}
	}
	return nil, biz.ErrReportNotFound
}

func (r *memRepo) List(ctx context.Context, filter biz.ReportFilter) ([]*biz.ValidationReport, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*biz.ValidationReport
	for _, report := range r.reports {
		if filter.Name != "" && report.Name != filter.Name {
			continue
		}
		if filter.Passed != nil && report.Passed != *filter.Passed {
			continue
		}
		out = append(out, report)
	}
	return out, int64(len(out)), nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, biz.ValidationRequest) (*biz.ValidationReport, error) {
	return nil, nil
}

func (nopCache) Set(context.Context, biz.ValidationRequest, *biz.ValidationReport) error {
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishReportCreated(context.Context, *biz.ValidationReport) error {
	return nil
}

type seqIDGenerator struct {
	mu   sync.Mutex
	next int64
}

func (g *seqIDGenerator) Generate(context.Context, string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next, nil
}

func newTestUsecase() (*biz.ValidationUsecase, *memRepo) {
	c := &conf.Validation{
		Generators: []*conf.Generator{
			{Name: "mcg", Kind: "mcg", Seed: 564853681, Constant: 790941697},
			{Name: "stuck", Kind: "mcg", Seed: 0, Constant: 790941697},
		},
	}
	repo := &memRepo{}
	return biz.NewValidationUsecase(c, repo, nopCache{}, nopPublisher{}, &seqIDGenerator{}, log.DefaultLogger), repo
}

func newTestServer() (*http.Server, *memRepo) {
	uc, repo := newTestUsecase()
	srv := http.NewServer()
	RegisterValidationHTTPServer(srv, NewValidationService(uc, log.DefaultLogger))
	return srv, repo
}

func do(t *testing.T, srv *http.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestCreateValidation(t *testing.T) {
	srv, repo := newTestServer()

	rec := do(t, srv, stdhttp.MethodPost, "/v1/validations",
		`{"name":"mm","generator":{"kind":"shuffle","table_size":64,
		"primary":{"kind":"mcg","seed":564853681,"constant":790941697},
		"secondary":{"kind":"mcg","seed":10449689,"constant":176234371}},
		"checkpoints":[1,15,1000]}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	var report biz.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "mm", report.Name)
	assert.True(t, report.Passed)
	require.Len(t, report.Checkpoints, 3)
	assert.Equal(t, 0.1831841836683452, report.Checkpoints[0].Value)
	assert.Len(t, repo.reports, 1)
}

func TestCreateValidation_InvalidTableSize(t *testing.T) {
	srv, _ := newTestServer()

	rec := do(t, srv, stdhttp.MethodPost, "/v1/validations",
		`{"generator":{"kind":"shuffle","table_size":0,
		"primary":{"kind":"mcg","seed":1,"constant":3},
		"secondary":{"kind":"mcg","seed":2,"constant":5}}}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), biz.ReasonInvalidTableSize)
}

func TestCreateValidation_Degenerate(t *testing.T) {
	srv, _ := newTestServer()

	rec := do(t, srv, stdhttp.MethodPost, "/v1/validations", `{"generator":{"kind":"mcg","seed":0,"constant":3}}`)
	assert.Equal(t, 422, rec.Code)
	assert.Contains(t, rec.Body.String(), biz.ReasonDegenerateSample)
}

func TestGetValidation(t *testing.T) {
	srv, _ := newTestServer()
	rec := do(t, srv, stdhttp.MethodPost, "/v1/validations", `{"generator":{"kind":"xorshift","seed":99}}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, stdhttp.MethodGet, "/v1/validations/1", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var report biz.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, int64(1), report.ID)
	assert.Equal(t, "xorshift", report.Name)

	rec = do(t, srv, stdhttp.MethodGet, "/v1/validations/2", "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec = do(t, srv, stdhttp.MethodGet, "/v1/validations/abc", "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestListValidations(t *testing.T) {
	srv, _ := newTestServer()
	do(t, srv, stdhttp.MethodPost, "/v1/validations", `{"generator":{"kind":"xorshift","seed":1}}`)
	do(t, srv, stdhttp.MethodPost, "/v1/validations", `{"name":"strict","tolerance":1e-9,"generator":{"kind":"xorshift","seed":2}}`)

	rec := do(t, srv, stdhttp.MethodGet, "/v1/validations?passed=false", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	var reply ListValidationsReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, int64(1), reply.Total)
	assert.Equal(t, uint32(1), reply.Page)
	assert.Equal(t, uint32(20), reply.PageSize)
	require.Len(t, reply.Reports, 1)
	assert.Equal(t, "strict", reply.Reports[0].Name)

	rec = do(t, srv, stdhttp.MethodGet, "/v1/validations?passed=maybe", "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestRunSuite(t *testing.T) {
	srv, _ := newTestServer()

	rec := do(t, srv, stdhttp.MethodPost, "/v1/suite", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	var reply RunSuiteReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.False(t, reply.Passed)
	require.Len(t, reply.Results, 2)
	assert.True(t, reply.Results[0].Report.Passed)
	require.NotNil(t, reply.Results[1].Error)
	assert.Equal(t, biz.ReasonDegenerateSample, reply.Results[1].Error.Reason)
}

func TestListGenerators(t *testing.T) {
	srv, _ := newTestServer()

	rec := do(t, srv, stdhttp.MethodGet, "/v1/generators", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var reply ListGeneratorsReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Len(t, reply.Generators, 2)
	assert.Equal(t, "mcg", reply.Generators[0].Name)
}

func TestHandleValidationRequest(t *testing.T) {
	uc, repo := newTestUsecase()
	s := NewValidationStreamService(uc, log.DefaultLogger)
	ctx := context.Background()

	assert.NoError(t, s.HandleValidationRequest(ctx, "1-0", "mcg"))
	assert.Len(t, repo.reports, 1)

	// 不可重试的请求直接确认
	assert.NoError(t, s.HandleValidationRequest(ctx, "2-0", "missing"))
	assert.NoError(t, s.HandleValidationRequest(ctx, "3-0", "stuck"))
	assert.Len(t, repo.reports, 1)
}
