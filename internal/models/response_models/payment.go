package response_models

import "encoding/json"

type ConfirmationResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Cached  bool            `json:"cached"`
}

type InitializePaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type TransactionStatusResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

type GatewayConfigResponse struct {
	IsConfigured bool   `json:"is_configured"`
	PublicKey    string `json:"public_key,omitempty"`
}
