package dto

// CMSSignRequest is the body of POST / and POST /api/v1/cms/sign.
type CMSSignRequest struct {
	// Hash is the hex-encoded SHA-256 digest of the content. A nil Hash
	// means the field was absent.
	Hash *string `json:"hash"`
}
