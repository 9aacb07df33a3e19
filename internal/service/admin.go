package service

import "crypto/subtle"

// Authorize checks the shared admin key. The failure message is the same
// whatever was wrong with the key, and an unset key rejects everything.
func (s *Service) Authorize(adminKey string) error {
	want := s.opts.AdminKey
	if want == "" || adminKey == "" {
		return Unauthorized("unauthorized")
	}
	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(want)) != 1 {
		return Unauthorized("unauthorized")
	}
	return nil
}
