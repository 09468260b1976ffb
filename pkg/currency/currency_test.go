package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"expensio/backend/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.CurrencyConfig{
		BaseURL: serverURL,
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestClient_Convert_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			t.Errorf("期望请求路径 /USD，实际=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"INR":83.25,"EUR":0.92}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.Convert(context.Background(), decimal.NewFromInt(100), "USD", "INR")
	if err != nil {
		t.Fatalf("Convert 应成功: %v", err)
	}
	want := decimal.NewFromInt(8325)
	if !got.Equal(want) {
		t.Errorf("期望 %s，实际=%s", want, got)
	}
}

func TestClient_Convert_SameCurrency(t *testing.T) {
	// 同币种不应发起任何 HTTP 请求
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("同币种转换不应请求汇率服务")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	amount := decimal.NewFromFloat(42.50)
	got, err := c.Convert(context.Background(), amount, "INR", "INR")
	if err != nil {
		t.Fatalf("Convert 应成功: %v", err)
	}
	if !got.Equal(amount) {
		t.Errorf("期望原金额 %s，实际=%s", amount, got)
	}
}

func TestClient_Convert_RateMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Convert(context.Background(), decimal.NewFromInt(100), "USD", "INR")
	if !errors.Is(err, ErrRateUnavailable) {
		t.Errorf("期望 ErrRateUnavailable，实际: %v", err)
	}
}

func TestClient_Convert_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Convert(context.Background(), decimal.NewFromInt(100), "USD", "INR")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("期望 ErrRequestFailed，实际: %v", err)
	}
}
