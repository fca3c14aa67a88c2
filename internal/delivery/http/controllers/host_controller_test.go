package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/domain"
)

func TestHostController_CreateEvent(t *testing.T) {
	host := domain.Actor{UserID: "u-h", Email: "hana@example.com", Role: domain.RoleHost}

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{name: "ok", body: `{"title":"Rooftop Jazz","capacity":40,"date":"2030-05-01T19:00:00Z","joining_fee":"250.50"}`, wantStatus: http.StatusCreated, wantCalls: 1},
		{name: "free event", body: `{"title":"Meetup","capacity":0,"date":"2030-05-01T19:00:00Z","joining_fee":0}`, wantStatus: http.StatusCreated, wantCalls: 1},
		{name: "negative capacity", body: `{"title":"Rooftop Jazz","capacity":-1,"date":"2030-05-01T19:00:00Z","joining_fee":"10"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "negative fee", body: `{"title":"Rooftop Jazz","capacity":40,"date":"2030-05-01T19:00:00Z","joining_fee":"-5"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "missing capacity", body: `{"title":"Rooftop Jazz","date":"2030-05-01T19:00:00Z","joining_fee":"10"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "missing date", body: `{"title":"Rooftop Jazz","capacity":40,"joining_fee":"10"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "date in the past", body: `{"title":"Rooftop Jazz","capacity":40,"date":"2001-05-01T19:00:00Z","joining_fee":"10"}`, err: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest, wantCalls: 1},
		{name: "no host profile", body: `{"title":"Rooftop Jazz","capacity":40,"date":"2030-05-01T19:00:00Z","joining_fee":"10"}`, err: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockHostService{err: tt.err}
			ctrl := NewHostController(testLogger(), svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/host/create-event", strings.NewReader(tt.body))
			ctrl.CreateEvent(w, authed(req, host))

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.wantCalls, svc.calls)
			resp := decode(t, w)
			if tt.wantCode != "" {
				require.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			require.Equal(t, host, svc.gotActor)
			require.Equal(t, string(domain.EventPending), resp.Data.(map[string]any)["status"])
		})
	}
}

func TestHostController_CreateEvent_PassesDraft(t *testing.T) {
	svc := &mockHostService{}
	host := domain.Actor{UserID: "u-h", Email: "hana@example.com", Role: domain.RoleHost}
	body := `{"title":"Rooftop Jazz","capacity":40,"date":"2030-05-01T19:00:00Z","joining_fee":"250.50"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/host/create-event", strings.NewReader(body))
	NewHostController(testLogger(), svc).CreateEvent(w, authed(req, host))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Rooftop Jazz", svc.gotDraft.Title)
	require.Equal(t, 40, svc.gotDraft.Capacity)
	require.True(t, svc.gotDraft.Date.Equal(time.Date(2030, 5, 1, 19, 0, 0, 0, time.UTC)))
	require.True(t, svc.gotDraft.JoiningFee.Equal(decimal.RequireFromString("250.50")))
}
