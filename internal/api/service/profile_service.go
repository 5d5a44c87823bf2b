package service

import (
	"context"
	"fmt"

	"github.com/remiblancher/goodkey-cms/internal/api/dto"
	"github.com/remiblancher/goodkey-cms/internal/goodkey"
)

// ProfileSource returns the token profile.
type ProfileSource interface {
	GetProfile(ctx context.Context) (*goodkey.Profile, error)
}

// ProfileService exposes the token profile.
type ProfileService struct {
	source ProfileSource
}

// NewProfileService creates a new ProfileService.
func NewProfileService(source ProfileSource) *ProfileService {
	return &ProfileService{source: source}
}

// Get returns the keys and certificates available to the token.
func (s *ProfileService) Get(ctx context.Context) (*dto.TokenProfileResponse, error) {
	profile, err := s.source.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token profile: %w", err)
	}

	resp := &dto.TokenProfileResponse{
		Keys:         make([]dto.TokenKey, 0, len(profile.Keys)),
		Certificates: make([]dto.TokenCertificate, 0, len(profile.Certificates)),
	}
	for _, k := range profile.Keys {
		resp.Keys = append(resp.Keys, dto.TokenKey{
			ID:        k.ID,
			Name:      k.Name,
			Algorithm: k.Algorithm,
			Status:    k.Status,
		})
	}
	for _, c := range profile.Certificates {
		resp.Certificates = append(resp.Certificates, dto.TokenCertificate{
			ID:     c.ID,
			KeyID:  c.KeyID,
			Name:   c.Name,
			Status: c.Status,
		})
	}
	return resp, nil
}
