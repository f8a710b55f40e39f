package frostcrypto

import (
	"fmt"

	"github.com/bytemare/frost"
	"github.com/bytemare/secret-sharing/keys"

	domain "xfrost/internal/domain"
)

func (s *Suite) configuration(pkp domain.PublicKeyPackage) (*frost.Configuration, error) {
	verificationKey, shares, err := decodePublicKeyPackage(s.ciphersuite.Group(), pkp)
	if err != nil {
		return nil, wrapf("decode public key package", err)
	}
	cfg := &frost.Configuration{
		Ciphersuite:           s.ciphersuite,
		Threshold:             s.threshold,
		MaxSigners:            s.maxSigners,
		VerificationKey:       verificationKey,
		SignerPublicKeyShares: shares,
	}
	if err := cfg.Init(); err != nil {
		return nil, wrapf("init configuration", err)
	}
	return cfg, nil
}

// SignRound1 produces this participant's single-use signing commitment,
// independent of the message that will eventually be signed.
func (s *Suite) SignRound1(kp domain.KeyPackage) (domain.SigningNonces, domain.SigningCommitment, error) {
	keyShare := new(keys.KeyShare)
	if err := keyShare.Decode(kp); err != nil {
		return nil, nil, wrapf("sign round1: decode key package", err)
	}
	cfg, err := s.bareConfiguration()
	if err != nil {
		return nil, nil, err
	}
	signer, err := cfg.Signer(keyShare)
	if err != nil {
		return nil, nil, wrapf("sign round1: signer", err)
	}
	commitment := signer.Commit()

	signerState, err := signer.Encode()
	if err != nil {
		return nil, nil, wrapf("sign round1: encode signer state", err)
	}
	encCommitment := commitment.Encode()
	return domain.SigningNonces(signerState), domain.SigningCommitment(encCommitment), nil
}

// SignRound2 produces this participant's signature share over digest,
// given every participant's round-1 commitment (including its own).
func (s *Suite) SignRound2(nonces domain.SigningNonces, kp domain.KeyPackage, digest [32]byte, commitments map[domain.Identifier]domain.SigningCommitment) (domain.SignatureShare, error) {
	cfg, err := s.bareConfiguration()
	if err != nil {
		return nil, err
	}
	signer, err := cfg.SignerFromState(nonces)
	if err != nil {
		return nil, wrapf("sign round2: restore signer", err)
	}
	list, err := decodeCommitmentList(commitments)
	if err != nil {
		return nil, wrapf("sign round2", err)
	}
	share, err := signer.Sign(digest[:], list)
	if err != nil {
		return nil, wrapf("sign round2: sign", err)
	}
	enc := share.Encode()
	return domain.SignatureShare(enc), nil
}

// Aggregate combines every participant's signature share into the final
// FROST signature, verifying each share and the aggregate result.
func (s *Suite) Aggregate(pkp domain.PublicKeyPackage, digest [32]byte, commitments map[domain.Identifier]domain.SigningCommitment, shares map[domain.Identifier]domain.SignatureShare) (domain.Signature, error) {
	cfg, err := s.configuration(pkp)
	if err != nil {
		return nil, err
	}
	list, err := decodeCommitmentList(commitments)
	if err != nil {
		return nil, wrapf("aggregate", err)
	}
	shareList := make([]*frost.SignatureShare, 0, len(shares))
	for id, raw := range shares {
		share := new(frost.SignatureShare)
		if err := share.Decode(raw); err != nil {
			return nil, wrapf(fmt.Sprintf("aggregate: decode share from %d", id), err)
		}
		shareList = append(shareList, share)
	}
	sig, err := cfg.AggregateSignatures(digest[:], shareList, list, true)
	if err != nil {
		return nil, wrapf("aggregate: aggregate signatures", err)
	}
	return domain.Signature(sig.Encode()), nil
}

// Verify checks a finalized FROST signature against the group's
// verification key, independent of any single signer's session state.
func (s *Suite) Verify(vk domain.VerifyingKey, digest [32]byte, sig domain.Signature) error {
	group := s.ciphersuite.Group()
	element := group.NewElement()
	if err := element.Decode(vk[:]); err != nil {
		return wrapf("verify: decode verification key", err)
	}
	signature := new(frost.Signature)
	if err := signature.Decode(sig); err != nil {
		return wrapf("verify: decode signature", err)
	}
	if err := frost.VerifySignature(s.ciphersuite, digest[:], signature, element); err != nil {
		return wrapf("verify", err)
	}
	return nil
}

// bareConfiguration sets up a Configuration sufficient for Commit()/Sign(),
// which only need the ciphersuite and group sizing, not the full public
// key package (that is only required for verification and aggregation).
func (s *Suite) bareConfiguration() (*frost.Configuration, error) {
	cfg := &frost.Configuration{
		Ciphersuite: s.ciphersuite,
		Threshold:   s.threshold,
		MaxSigners:  s.maxSigners,
	}
	if err := cfg.Init(); err != nil {
		return nil, wrapf("init bare configuration", err)
	}
	return cfg, nil
}

func decodeCommitmentList(commitments map[domain.Identifier]domain.SigningCommitment) (frost.CommitmentList, error) {
	list := make(frost.CommitmentList, 0, len(commitments))
	for id, raw := range commitments {
		c := new(frost.Commitment)
		if err := c.Decode(raw); err != nil {
			return nil, fmt.Errorf("decode commitment from %d: %w", id, err)
		}
		list = append(list, c)
	}
	list.Sort()
	return list, nil
}
