package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"github.com/mikey/sms-spam-explainer/internal/explain"
	"github.com/mikey/sms-spam-explainer/internal/linear"
	"github.com/mikey/sms-spam-explainer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	spamText = "WIN a FREE prize"
	hamText  = "see you at home for lunch"
)

func newTestService(t *testing.T) *core.ExplainerService {
	t.Helper()
	model, err := linear.NewModel(linear.Artifact{
		ModelID: "test-model",
		Vocabulary: map[string]int{
			"free": 0, "prize": 1, "win": 2, "claim": 3, "lunch": 4, "home": 5,
		},
		IDF:       []float64{2.0, 2.5, 2.2, 3.0, 3.0, 2.4},
		Coef:      []float64{3.0, 2.6, 2.0, 1.8, -1.5, -1.0},
		Intercept: -1.0,
		Norm:      linear.NormL2,
	})
	require.NoError(t, err)

	engine, err := explain.NewEngine(model)
	require.NoError(t, err)

	logger := zap.NewNop()
	return core.NewExplainerService(model, engine, nil, nil, nil, utils.NewTextProcessor(logger), logger,
		core.ServiceConfig{MaxTextSize: 4096})
}

func newTestHTTPFilter(t *testing.T, ds *dataset.Dataset) *HTTPFilter {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewHTTPFilter(newTestService(t), zap.NewNop(), ds, "127.0.0.1:0", time.Second, time.Second)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPFilter_Health(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	rec := doJSON(t, f.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHTTPFilter_Explain(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	rec := doJSON(t, f.Handler(), http.MethodPost, "/api/v1/explain", `{"text": "WIN a FREE prize", "top_k": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.ExplanationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Prediction.IsSpam)
	assert.Equal(t, []string{"prize", "free"}, explain.Words(result.Contributions))
	assert.Equal(t, "WIN a <mark>FREE</mark> <mark>prize</mark>", result.Highlighted)
	assert.Equal(t, "test-model", result.ModelUsed)
}

func TestHTTPFilter_ExplainNoSignal(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	rec := doJSON(t, f.Handler(), http.MethodPost, "/api/v1/explain", `{"text": "  the   quick  fox "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.ExplanationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.NoSignal)
	assert.Empty(t, result.Contributions)
	assert.Equal(t, "the quick fox", result.Highlighted)
}

func TestHTTPFilter_BadRequest(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	rec := doJSON(t, f.Handler(), http.MethodPost, "/api/v1/explain", `{"text": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, f.Handler(), http.MethodPost, "/api/v1/compare", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPFilter_Compare(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	body := `{"original": "WIN a FREE prize", "edited": "see you at home for lunch"}`
	rec := doJSON(t, f.Handler(), http.MethodPost, "/api/v1/compare", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var cmp core.EditComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.True(t, cmp.Evaded)
	assert.Less(t, cmp.ProbabilityDelta, 0.0)
	assert.ElementsMatch(t, []string{"free", "prize", "win"}, cmp.RemovedWords)
	assert.ElementsMatch(t, []string{"lunch", "home"}, cmp.AddedWords)
}

func TestHTTPFilter_Sample(t *testing.T) {
	ds, err := dataset.Load(strings.NewReader("v1,v2\nspam,Claim your FREE prize\n"))
	require.NoError(t, err)
	f := newTestHTTPFilter(t, ds)

	rec := doJSON(t, f.Handler(), http.MethodGet, "/api/v1/sample?label=spam", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SampleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dataset.LabelSpam, resp.Sample.Label)
	assert.Equal(t, "Claim your FREE prize", resp.Explanation.Text)
	assert.True(t, resp.Explanation.Prediction.IsSpam)

	rec = doJSON(t, f.Handler(), http.MethodGet, "/api/v1/sample?label=ham", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, f.Handler(), http.MethodGet, "/api/v1/sample?label=eggs", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPFilter_SampleWithoutDataset(t *testing.T) {
	f := newTestHTTPFilter(t, nil)
	rec := doJSON(t, f.Handler(), http.MethodGet, "/api/v1/sample", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCliFilter_Text(t *testing.T) {
	var out bytes.Buffer
	f, err := NewCliFilter(newTestService(t), zap.NewNop(), &out, 0, false, false)
	require.NoError(t, err)

	result, err := f.ProcessMessage(context.Background(), &core.Message{Sender: "+4412345", Text: spamText})
	require.NoError(t, err)
	assert.True(t, result.Prediction.IsSpam)

	report := out.String()
	assert.Contains(t, report, "From: +4412345")
	assert.Contains(t, report, "Label: Spam")
	assert.Contains(t, report, " 1. prize")
	assert.Contains(t, report, "<mark>WIN</mark> a <mark>FREE</mark> <mark>prize</mark>")
}

func TestCliFilter_JSON(t *testing.T) {
	var out bytes.Buffer
	f, err := NewCliFilter(newTestService(t), zap.NewNop(), &out, 1, false, true)
	require.NoError(t, err)

	_, err = f.ProcessMessage(context.Background(), &core.Message{Text: hamText})
	require.NoError(t, err)

	var result core.ExplanationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Prediction.IsSpam)
	assert.Len(t, result.Contributions, 1)
}

func TestCliFilter_Edit(t *testing.T) {
	var out bytes.Buffer
	f, err := NewCliFilter(newTestService(t), zap.NewNop(), &out, 0, false, false)
	require.NoError(t, err)

	cmp, err := f.ProcessEdit(context.Background(), &core.Message{Text: spamText}, &core.Message{Text: hamText})
	require.NoError(t, err)
	assert.True(t, cmp.Evaded)
	assert.Contains(t, out.String(), "Result: the edit evaded the classifier")
}

func TestCliFilter_Sample(t *testing.T) {
	sample := dataset.Sample{Label: dataset.LabelSpam, Text: spamText}

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		f, err := NewCliFilter(newTestService(t), zap.NewNop(), &out, 0, false, false)
		require.NoError(t, err)

		resp, err := f.ProcessSample(context.Background(), sample, "")
		require.NoError(t, err)
		assert.True(t, resp.Explanation.Prediction.IsSpam)
		assert.Contains(t, out.String(), "Dataset label: spam")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		f, err := NewCliFilter(newTestService(t), zap.NewNop(), &out, 0, false, true)
		require.NoError(t, err)

		_, err = f.ProcessSample(context.Background(), sample, "")
		require.NoError(t, err)

		var resp SampleResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, sample, resp.Sample)
		require.NotNil(t, resp.Explanation)
		assert.True(t, resp.Explanation.Prediction.IsSpam)
	})
}

func newTestSMTPFilter(t *testing.T, blockSpam bool) *SMTPFilter {
	t.Helper()
	return NewSMTPFilter(newTestService(t), zap.NewNop(), "127.0.0.1:0", blockSpam,
		HeaderNames{Spam: "X-Spam-Status", Score: "X-Spam-Score", Words: "X-Spam-Words"},
		"", false, time.Second, time.Second, 1024*1024)
}

const rawSpam = "From: promo@example.com\r\n" +
	"To: user@example.org\r\n" +
	"Subject: =?ISO-8859-1?Q?Claim_your_prize?=\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"WIN a FREE prize\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>lunch lunch lunch</p>\r\n" +
	"--b1--\r\n"

func TestMessageText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain",
			raw:  rawSpam,
			want: "Claim your prize\nWIN a FREE prize",
		},
		{
			name: "base64 body",
			raw: "Subject: hi\r\nContent-Type: text/plain; charset=utf-8\r\n" +
				"Content-Transfer-Encoding: base64\r\n\r\nV0lOIGEgRlJF\r\nRSBwcml6ZSBub3c=\r\n",
			want: "hi\nWIN a FREE prize now",
		},
		{
			name: "quoted-printable body",
			raw: "Subject: hi\r\nContent-Type: text/plain; charset=utf-8\r\n" +
				"Content-Transfer-Encoding: quoted-printable\r\n\r\nclaim your fr=\r\nee prize\r\n",
			want: "hi\nclaim your free prize",
		},
		{
			name: "multipart part without content type",
			raw: "Subject: hi\r\nMIME-Version: 1.0\r\n" +
				"Content-Type: multipart/mixed; boundary=XYZ\r\n\r\n" +
				"--XYZ\r\n\r\nWIN a FREE prize\r\n--XYZ--\r\n",
			want: "hi\nWIN a FREE prize",
		},
		{
			name: "multipart base64 part",
			raw: "Subject: hi\r\nMIME-Version: 1.0\r\n" +
				"Content-Type: multipart/alternative; boundary=XYZ\r\n\r\n" +
				"--XYZ\r\nContent-Type: text/plain\r\nContent-Transfer-Encoding: base64\r\n\r\n" +
				"V0lOIGEgRlJFRSBwcml6ZSBub3c=\r\n" +
				"--XYZ\r\nContent-Type: text/html\r\n\r\n<p>ignored</p>\r\n--XYZ--\r\n",
			want: "hi\nWIN a FREE prize now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := messageText([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}

	_, err := messageText([]byte("not a message"))
	assert.Error(t, err)
}

func TestDecodeEncodedHeader(t *testing.T) {
	decoded, err := decodeEncodedHeader("=?ISO-8859-1?Q?Gagn=E9_un_prix?=")
	require.NoError(t, err)
	assert.Equal(t, "Gagné un prix", decoded)
}

func TestAnnotate(t *testing.T) {
	f := newTestSMTPFilter(t, false)
	result := &core.ExplanationResult{
		Prediction:    core.Prediction{IsSpam: true, Probability: 0.875},
		Contributions: []explain.Contribution{{Word: "prize", Score: 1}, {Word: "free", Score: 0.5}},
	}

	out := string(f.annotate([]byte("Subject: hi\r\n\r\nbody"), result, nil))
	assert.True(t, strings.HasPrefix(out, "X-Spam-Status: true\r\nX-Spam-Score: 0.8750\r\nX-Spam-Words: prize, free\r\n"))
	assert.True(t, strings.HasSuffix(out, "Subject: hi\r\n\r\nbody"))

	out = string(f.annotate([]byte("Subject: hi\r\n\r\nbody"), nil, errors.New("model\nfailure")))
	assert.True(t, strings.HasPrefix(out, "X-Spam-Analysis-Error: model failure\r\n"))
}

func TestSMTPSession_RejectsSpam(t *testing.T) {
	session := &smtpSession{filter: newTestSMTPFilter(t, true)}
	require.NoError(t, session.Mail("promo@example.com", nil))
	require.NoError(t, session.Rcpt("user@example.org", nil))

	err := session.Data(strings.NewReader(rawSpam))
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
}

func TestSMTPSession_PassesHam(t *testing.T) {
	session := &smtpSession{filter: newTestSMTPFilter(t, true)}
	require.NoError(t, session.Mail("friend@example.com", nil))

	raw := "Subject: dinner\r\n\r\nsee you at home for lunch\r\n"
	assert.NoError(t, session.Data(strings.NewReader(raw)))

	session.Reset()
	assert.Empty(t, session.sender)
	assert.Empty(t, session.recipients)
}
