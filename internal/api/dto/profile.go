package dto

// TokenProfileResponse lists the credential material visible to the token.
type TokenProfileResponse struct {
	Keys         []TokenKey         `json:"keys"`
	Certificates []TokenCertificate `json:"certificates"`
}

// TokenKey describes a signing key.
type TokenKey struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Status    string `json:"status,omitempty"`
}

// TokenCertificate describes a certificate and the key it is bound to.
type TokenCertificate struct {
	ID     string `json:"id"`
	KeyID  string `json:"key_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}
