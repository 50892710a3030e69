package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recomendaleads/config"
	"recomendaleads/lifecycle"
)

// WhatsAppStatus is the provider's view of an instance.
type WhatsAppStatus struct {
	Status      string `json:"status"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// WhatsAppClient talks to the external WhatsApp automation provider that
// owns instances, QR codes and message transport.
type WhatsAppClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	return &WhatsAppClient{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (wc *WhatsAppClient) do(method, path string, payload, out interface{}) error {
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &lifecycle.ExternalServiceError{Service: "whatsapp", Err: err}
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, wc.BaseURL+path, body)
	if err != nil {
		return &lifecycle.ExternalServiceError{Service: "whatsapp", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+wc.APIKey)

	resp, err := wc.HTTP.Do(req)
	if err != nil {
		return &lifecycle.ExternalServiceError{Service: "whatsapp", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &lifecycle.ExternalServiceError{
			Service: "whatsapp",
			Err:     fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &lifecycle.ExternalServiceError{Service: "whatsapp", Err: err}
		}
	}
	return nil
}

// CreateInstance registers a named instance and returns its token.
func (wc *WhatsAppClient) CreateInstance(name string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	err := wc.do(http.MethodPost, "/instance", map[string]string{"name": name}, &result)
	return result.Token, err
}

// Connect asks the provider for a fresh pairing QR code (base64 image).
func (wc *WhatsAppClient) Connect(token string) (string, error) {
	var result struct {
		QRCode string `json:"qrCode"`
	}
	err := wc.do(http.MethodPost, "/instance/"+token+"/connect", nil, &result)
	return result.QRCode, err
}

// InstanceStatus polls the provider's connection state for an instance.
func (wc *WhatsAppClient) InstanceStatus(token string) (WhatsAppStatus, error) {
	var result struct {
		Instance WhatsAppStatus `json:"instance"`
	}
	err := wc.do(http.MethodGet, "/instance/"+token+"/status", nil, &result)
	return result.Instance, err
}

// Disconnect tears the provider-side session down.
func (wc *WhatsAppClient) Disconnect(token string) error {
	return wc.do(http.MethodPost, "/instance/"+token+"/disconnect", nil, nil)
}

// SendMessage sends a rendered text message through a connected instance.
func (wc *WhatsAppClient) SendMessage(token, phone, message string) error {
	payload := map[string]string{
		"phone":   phone,
		"message": message,
	}
	return wc.do(http.MethodPost, "/instance/"+token+"/message", payload, nil)
}
