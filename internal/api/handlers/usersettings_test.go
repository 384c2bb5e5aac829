package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

func TestCreateUserSetting(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"user_id":"` + testUserID + `","daily_spending_limit":50,"monthly_income":3000}`, wantStatus: http.StatusCreated},
		{name: "missing user id", body: `{"daily_spending_limit":50}`, wantStatus: http.StatusBadRequest},
		{name: "negative limit", body: `{"user_id":"` + testUserID + `","daily_spending_limit":-1}`, wantStatus: http.StatusBadRequest},
		{name: "unknown user", body: `{"user_id":"00000000-0000-4000-8000-000000000000"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter((&MockStore{}).withUser(), &MockIngester{}, &MockAdvisor{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/usersettings", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestUpdateUserSetting_UsesPathUser(t *testing.T) {
	var got *domain.UserSetting
	store := &MockStore{
		UpdateUserSettingFunc: func(ctx context.Context, s *domain.UserSetting) error {
			got = s
			return nil
		},
	}
	router := newTestRouter(store, &MockIngester{}, &MockAdvisor{})

	body := `{"user_id":"00000000-0000-4000-8000-000000000000","monthly_income":2500,"notify_low_saving":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/usersettings/"+testUserID, strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got == nil || got.UserID != testUserID || got.MonthlyIncome != 2500 || !got.NotifyLowSaving {
		t.Errorf("UpdateUserSetting got %+v", got)
	}
}

func TestGetUserSetting_NotFound(t *testing.T) {
	router := newTestRouter(&MockStore{}, &MockIngester{}, &MockAdvisor{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usersettings/"+testUserID, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
