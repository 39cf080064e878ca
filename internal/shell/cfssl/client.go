package cfssl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CFSSL API Client
// =============================================================================

// requestTimeout bounds every CA call. The CA and the TLS verification
// probe are the only network-bound steps of setup.
const requestTimeout = 30 * time.Second

// CSRRequest is the certificate request submitted to the CA. It mirrors the
// CFSSL newcert request body.
type CSRRequest struct {
	CN    string    `json:"CN"`
	Hosts []string  `json:"hosts"`
	Key   KeySpec   `json:"key"`
	Names []CSRName `json:"names,omitempty"`
}

// KeySpec selects the key algorithm the CA generates.
type KeySpec struct {
	Algo string `json:"algo"`
	Size int    `json:"size"`
}

// CSRName holds certificate subject fields.
type CSRName struct {
	C  string `json:"C,omitempty"`
	ST string `json:"ST,omitempty"`
	L  string `json:"L,omitempty"`
	O  string `json:"O,omitempty"`
	OU string `json:"OU,omitempty"`
}

// Validate checks the request before it goes on the wire. An unusable
// request is a configuration fault, not a CA fault.
func (r CSRRequest) Validate() error {
	if strings.TrimSpace(r.CN) == "" {
		return fmt.Errorf("CN is required: %w", ErrBadRequest)
	}
	switch r.Key.Algo {
	case "", "rsa", "ecdsa":
	default:
		return fmt.Errorf("unsupported key algorithm %q: %w", r.Key.Algo, ErrBadRequest)
	}
	return nil
}

// withDefaults fills in the key spec the daemon certs are issued with.
func (r CSRRequest) withDefaults() CSRRequest {
	if r.Key.Algo == "" {
		r.Key = KeySpec{Algo: "ecdsa", Size: 256}
	}
	return r
}

// Client talks to a CFSSL certificate authority over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a CFSSL API client for the given base URL, e.g.
// "http://ca.internal:8888".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// apiResponse is the CFSSL response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Errors  []apiMessage    `json:"errors"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newcertResult is the payload of a successful newcert call.
type newcertResult struct {
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"private_key"`
}

// infoResult is the payload of a successful info call.
type infoResult struct {
	Certificate string `json:"certificate"`
}

// NewCert asks the CA to generate a key and issue a certificate for the
// request. Returns certificate and private key PEM.
func (c *Client) NewCert(req CSRRequest) (certPEM, keyPEM []byte, err error) {
	body := map[string]any{"request": req.withDefaults()}

	var result newcertResult
	if err := c.post(req.CN, "/api/v1/cfssl/newcert", body, &result); err != nil {
		return nil, nil, err
	}
	if result.Certificate == "" || result.PrivateKey == "" {
		return nil, nil, NewProvisionError(req.CN, "newcert", "response missing certificate material", ErrCARejected)
	}
	return []byte(result.Certificate), []byte(result.PrivateKey), nil
}

// CACert fetches the CA's own certificate PEM.
func (c *Client) CACert(serverName string) ([]byte, error) {
	var result infoResult
	if err := c.post(serverName, "/api/v1/cfssl/info", map[string]any{"label": ""}, &result); err != nil {
		return nil, err
	}
	if result.Certificate == "" {
		return nil, NewProvisionError(serverName, "info", "response missing CA certificate", ErrCARejected)
	}
	return []byte(result.Certificate), nil
}

func (c *Client) post(serverName, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewProvisionError(serverName, path, "encode request body", err)
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return NewProvisionError(serverName, path, err.Error(), ErrCAUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewProvisionError(serverName, path, fmt.Sprintf("unexpected status %d", resp.StatusCode), ErrCARejected)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return NewProvisionError(serverName, path, "decode response", err)
	}
	if !envelope.Success {
		msg := "request rejected"
		if len(envelope.Errors) > 0 {
			msg = envelope.Errors[0].Message
		}
		return NewProvisionError(serverName, path, msg, ErrCARejected)
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return NewProvisionError(serverName, path, "decode result", err)
	}
	return nil
}
