package mockapi

import "errors"

// AddUser seeds an account. Unverified accounts get a verification token in
// the outbox.
func (s *Server) AddUser(username, email, password string, verified bool) (int64, error) {
	u, _, err := s.users.create(username, email, password, verified)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// MailedToken returns the last verification or reset token sent to email.
// There is no real mail delivery; tests and the dev server read tokens here.
func (s *Server) MailedToken(email string) (string, bool) {
	return s.users.mailed(email)
}

// RevokeTokens invalidates every access token issued to the account so the
// next authenticated call gets a 401.
func (s *Server) RevokeTokens(identifier string) error {
	if !s.users.revoke(identifier) {
		return errors.New("unknown account")
	}
	return nil
}
