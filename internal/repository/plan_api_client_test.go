package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthweb/planboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAPIClient_FetchWeek(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/plans/weeks", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":3,"matchId":42,"weekStart":"2024-06-03","title":"Cut","days":[
			{"id":10,"dayIndex":0,"items":[{"id":1,"itemType":"WORKOUT","title":"squat","statusMark":"O","locked":true}]},
			{"id":11,"dayIndex":1,"items":[]}
		]}`))
	}))
	defer srv.Close()

	client := NewPlanAPIClient(srv.URL+"/api/", time.Second)
	ctx := domain.WithAccessToken(context.Background(), "tok")

	week, err := client.FetchWeek(ctx, 42, time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "matchId=42&weekStart=2024-06-03", gotQuery)
	require.Len(t, week.Days, 2)
	assert.Equal(t, domain.MarkComplete, week.Days[0].Items[0].StatusMark)
	assert.True(t, week.Days[0].Items[0].Locked)
}

func TestPlanAPIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantErr string
	}{
		{name: "missing week", status: http.StatusNotFound, body: `{"message":"no week"}`, wantIs: domain.ErrWeekNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantIs: domain.ErrMalformedWeek},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewPlanAPIClient(srv.URL, time.Second).FetchWeek(context.Background(), 1, time.Now())
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
