package api

import (
	"testing"
	"time"

	"github.com/diogo/eerieecho/internal/models"
)

// TestNewClient tests the NewClient function
func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		opts        []ClientOption
		wantModel   models.Model
		wantTimeout time.Duration
	}{
		{
			name:        "defaults",
			wantModel:   models.DefaultModel,
			wantTimeout: models.DefaultTimeout,
		},
		{
			name:        "with custom model",
			opts:        []ClientOption{WithModel(models.Model15Pro)},
			wantModel:   models.Model15Pro,
			wantTimeout: models.DefaultTimeout,
		},
		{
			name:        "with custom timeout",
			opts:        []ClientOption{WithTimeout(5 * time.Second)},
			wantModel:   models.DefaultModel,
			wantTimeout: 5 * time.Second,
		},
		{
			name:        "zero timeout keeps default",
			opts:        []ClientOption{WithTimeout(0)},
			wantModel:   models.DefaultModel,
			wantTimeout: models.DefaultTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]ClientOption{WithHTTPClient(&MockHttpClient{})}, tt.opts...)
			client, err := NewClient(opts...)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}

			if client.GetModel().Name != tt.wantModel.Name {
				t.Errorf("model = %s, want %s", client.GetModel().Name, tt.wantModel.Name)
			}
			if client.Timeout() != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", client.Timeout(), tt.wantTimeout)
			}
		})
	}
}

func TestNewClient_DefaultTransport(t *testing.T) {
	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.httpClient == nil {
		t.Error("expected default tls-client transport")
	}
	client.Close()
}

func TestClient_SetModel(t *testing.T) {
	client, _ := NewClient(WithHTTPClient(&MockHttpClient{}))
	client.SetModel(models.Model20Flash)
	if client.GetModel().Name != models.Model20Flash.Name {
		t.Errorf("GetModel() = %s", client.GetModel().Name)
	}
}

func TestClient_Close(t *testing.T) {
	mock := &MockHttpClient{}
	client, _ := NewClient(WithHTTPClient(mock))

	if client.IsClosed() {
		t.Error("new client should not be closed")
	}

	client.Close()
	client.Close()

	if !client.IsClosed() {
		t.Error("client should be closed")
	}
	if !mock.idleClosed {
		t.Error("Close should release idle connections")
	}
}
