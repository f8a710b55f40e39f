package sessionstate

import (
	"path/filepath"

	domain "xfrost/internal/domain"
)

var _ domain.SigningStateStore = (*Store)(nil)

func (s *Store) SaveSession(group, session domain.ARID, rec domain.SessionRecord) error {
	return writeJSON(filepath.Join(s.sessionDir(group, session), "start.json"), rec)
}

func (s *Store) LoadSession(group, session domain.ARID) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if _, err := readJSON(filepath.Join(s.sessionDir(group, session), "start.json"), &rec); err != nil {
		return domain.SessionRecord{}, err
	}
	return rec, nil
}

func (s *Store) SaveCommitments(group, session domain.ARID, byIdentifier map[domain.Identifier]domain.SigningCommitment) error {
	return writeJSON(filepath.Join(s.sessionDir(group, session), "commit.json"), byIdentifier)
}

func (s *Store) LoadCommitments(group, session domain.ARID) (map[domain.Identifier]domain.SigningCommitment, error) {
	out := make(map[domain.Identifier]domain.SigningCommitment)
	if _, err := readJSON(filepath.Join(s.sessionDir(group, session), "commit.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveShares(group, session domain.ARID, byIdentifier map[domain.Identifier]domain.SignatureShare) error {
	return writeJSON(filepath.Join(s.sessionDir(group, session), "share.json"), byIdentifier)
}

func (s *Store) LoadShares(group, session domain.ARID) (map[domain.Identifier]domain.SignatureShare, error) {
	out := make(map[domain.Identifier]domain.SignatureShare)
	if _, err := readJSON(filepath.Join(s.sessionDir(group, session), "share.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveFinal(group, session domain.ARID, sig domain.Signature) error {
	return writeJSON(filepath.Join(s.sessionDir(group, session), "final.json"), sig)
}

func (s *Store) LoadFinal(group, session domain.ARID) (domain.Signature, error) {
	var sig domain.Signature
	if _, err := readJSON(filepath.Join(s.sessionDir(group, session), "final.json"), &sig); err != nil {
		return nil, err
	}
	return sig, nil
}
