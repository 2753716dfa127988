package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/app"
	"github.com/hbpc002/log-lottery/internal/broadcast"
	"github.com/hbpc002/log-lottery/internal/domain"
	apperrors "github.com/hbpc002/log-lottery/internal/platform/errors"
	"github.com/hbpc002/log-lottery/internal/registry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUserMsg(t *testing.T) {
	srv := newTestServer(t, &mockSubmissions{})

	rec := do(t, srv, http.MethodPost, "/api/user-msg", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"sent","data":null}`, rec.Body.String())
}

func TestHandleSubmitPerson_Success(t *testing.T) {
	var gotName, gotPhone string
	srv := newTestServer(t, &mockSubmissions{
		submitFn: func(_ context.Context, name, phone string) (domain.SubmissionEvent, error) {
			gotName, gotPhone = name, phone
			return domain.NewSubmissionEvent(name, phone), nil
		},
	})

	rec := do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"Alice","phone":"13800001111"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"Submitted","data":null}`, rec.Body.String())
	assert.Equal(t, "Alice", gotName)
	assert.Equal(t, "13800001111", gotPhone)
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.submissionMetrics.Submissions.WithLabelValues(metrics.OutcomeAccepted)))
}

func TestHandleSubmitPerson_Errors(t *testing.T) {
	tests := []struct {
		name        string
		submitErr   error
		wantStatus  int
		wantMsg     string
		wantOutcome string
	}{
		{"invalid name", domain.ErrInvalidName, http.StatusBadRequest, "name is required", metrics.OutcomeInvalidName},
		{"invalid phone", domain.ErrInvalidPhone, http.StatusBadRequest, "phone must be exactly 11 digits", metrics.OutcomeInvalidPhone},
		{"duplicate", domain.ErrDuplicatePhone, http.StatusConflict, "phone already registered", metrics.OutcomeDuplicate},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "failed to submit", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockSubmissions{
				submitFn: func(context.Context, string, string) (domain.SubmissionEvent, error) {
					return domain.SubmissionEvent{}, tt.submitErr
				},
			})

			rec := do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"x","phone":"y"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, apperrors.Response{Code: tt.wantStatus, Success: false, Msg: tt.wantMsg}, decodeEnvelope(t, rec))
			if tt.wantOutcome != "" {
				assert.Equal(t, 1.0, testutil.ToFloat64(srv.submissionMetrics.Submissions.WithLabelValues(tt.wantOutcome)))
			}
		})
	}
}

func TestHandleSubmitPerson_MalformedBody(t *testing.T) {
	called := false
	srv := newTestServer(t, &mockSubmissions{
		submitFn: func(context.Context, string, string) (domain.SubmissionEvent, error) {
			called = true
			return domain.SubmissionEvent{}, nil
		},
	})

	rec := do(t, srv, http.MethodPost, "/api/submit-person", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.Response{Code: 400, Success: false, Msg: "invalid request body"}, decodeEnvelope(t, rec))
	assert.False(t, called)
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t, &mockSubmissions{stats: app.Stats{Registered: 3, Listeners: 2}})

	rec := do(t, srv, http.MethodGet, "/api/stats", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"ok","data":{"registered":3,"listeners":2}}`, rec.Body.String())
}

func TestWebSocketRouteDelegates(t *testing.T) {
	hit := false
	srv := newTestServer(t, &mockSubmissions{}, withWebsocketHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit = true
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := do(t, srv, http.MethodGet, "/api/ws", "")

	assert.True(t, hit)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// Drives the real use case, registry and broadcaster through the HTTP surface.
func TestSubmitPerson_Scenarios(t *testing.T) {
	topic := broadcast.NewBroadcaster(10, nil)
	defer topic.Stop()
	sub, err := topic.Subscribe()
	require.NoError(t, err)

	srv := newTestServer(t, app.NewSubmissions(registry.New(), topic))

	rec := do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"Alice","phone":"13800001111"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"Alice","phone":"13800001111"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)

	rec = do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"","phone":"13800002222"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/submit-person", `{"name":"Bob","phone":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case msg := <-sub.C():
		assert.JSONEq(t, `{"type":"new_person","name":"Alice","phone":"13800001111"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("accepted submission was not broadcast")
	}
	select {
	case msg := <-sub.C():
		t.Fatalf("rejected submission was broadcast: %s", msg)
	default:
	}

	rec = do(t, srv, http.MethodGet, "/api/stats", "")
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"ok","data":{"registered":1,"listeners":1}}`, rec.Body.String())
}
