package frostcrypto

import (
	"encoding/binary"
	"fmt"

	"github.com/bytemare/ecc"
	dkglib "github.com/bytemare/dkg"
	"github.com/bytemare/secret-sharing/keys"

	domain "xfrost/internal/domain"
)

// Part1 runs the first DKG round for one participant: generate this
// participant's polynomial commitment and proof of knowledge, the package
// every other participant must collect before Part2 can run.
func (s *Suite) Part1(id domain.Identifier, maxSigners, threshold int) (domain.Round1Secret, domain.Round1Package, error) {
	participant, err := dkglib.NewParticipant(s.ciphersuite.Group(), identifierOf(id), uint16(maxSigners), uint16(threshold))
	if err != nil {
		return nil, nil, wrapf("dkg part1: new participant", err)
	}
	round1 := participant.Init()

	secret, err := participant.Encode()
	if err != nil {
		return nil, nil, wrapf("dkg part1: encode participant state", err)
	}
	pkg, err := round1.Encode()
	if err != nil {
		return nil, nil, wrapf("dkg part1: encode round1 package", err)
	}
	return domain.Round1Secret(secret), domain.Round1Package(pkg), nil
}

// Part2 runs the second DKG round: given every participant's round-1
// package (including this one's own), derive the per-recipient round-2
// shares this participant must send out.
func (s *Suite) Part2(secret domain.Round1Secret, round1 map[domain.Identifier]domain.Round1Package) (domain.Round2Secret, map[domain.Identifier]domain.Round2Package, error) {
	participant, err := dkglib.NewParticipantFromSecret(s.ciphersuite.Group(), secret)
	if err != nil {
		return nil, nil, wrapf("dkg part2: restore participant", err)
	}

	round1Data, err := decodeRound1Packages(round1)
	if err != nil {
		return nil, nil, wrapf("dkg part2", err)
	}

	round2Data, err := participant.Continue(round1Data)
	if err != nil {
		return nil, nil, wrapf("dkg part2: continue", err)
	}

	out := make(map[domain.Identifier]domain.Round2Package, len(round2Data))
	for _, d := range round2Data {
		enc, err := d.Encode()
		if err != nil {
			return nil, nil, wrapf("dkg part2: encode round2 package", err)
		}
		out[domain.Identifier(d.RecipientIdentifier)] = domain.Round2Package(enc)
	}

	newSecret, err := participant.Encode()
	if err != nil {
		return nil, nil, wrapf("dkg part2: re-encode participant state", err)
	}
	return domain.Round2Secret(newSecret), out, nil
}

// Part3 runs the final DKG round: given every round-1 package and the
// round-2 shares addressed to this participant, derive the long-lived key
// package and the group's public key package.
func (s *Suite) Part3(secret domain.Round2Secret, round1 map[domain.Identifier]domain.Round1Package, round2ToMe map[domain.Identifier]domain.Round2Package) (domain.KeyPackage, domain.PublicKeyPackage, error) {
	participant, err := dkglib.NewParticipantFromSecret(s.ciphersuite.Group(), secret)
	if err != nil {
		return nil, nil, wrapf("dkg part3: restore participant", err)
	}

	round1Data, err := decodeRound1Packages(round1)
	if err != nil {
		return nil, nil, wrapf("dkg part3", err)
	}

	round2Data := make([]*dkglib.Round2Data, 0, len(round2ToMe))
	for id, pkg := range round2ToMe {
		data := new(dkglib.Round2Data)
		if err := data.Decode(pkg); err != nil {
			return nil, nil, wrapf(fmt.Sprintf("dkg part3: decode round2 package from %d", id), err)
		}
		round2Data = append(round2Data, data)
	}

	keyShare, verificationKey, publicShares, err := participant.Finalize(round1Data, round2Data)
	if err != nil {
		return nil, nil, wrapf("dkg part3: finalize", err)
	}

	kp, err := keyShare.Encode()
	if err != nil {
		return nil, nil, wrapf("dkg part3: encode key package", err)
	}
	pkp, err := encodePublicKeyPackage(publicShares, verificationKey)
	if err != nil {
		return nil, nil, wrapf("dkg part3: encode public key package", err)
	}
	return domain.KeyPackage(kp), domain.PublicKeyPackage(pkp), nil
}

// VerifyingKeyOf extracts the group verification key out of a public key
// package, independent of the per-signer shares also packed into it.
func (s *Suite) VerifyingKeyOf(pkp domain.PublicKeyPackage) (domain.VerifyingKey, error) {
	verificationKey, _, err := decodePublicKeyPackage(s.ciphersuite.Group(), pkp)
	if err != nil {
		return domain.VerifyingKey{}, wrapf("verifying key: decode public key package", err)
	}
	var vk domain.VerifyingKey
	enc := verificationKey.Encode()
	if len(enc) != len(vk) {
		return domain.VerifyingKey{}, wrapf("verifying key", fmt.Errorf("want %d bytes, got %d", len(vk), len(enc)))
	}
	copy(vk[:], enc)
	return vk, nil
}

func decodeRound1Packages(round1 map[domain.Identifier]domain.Round1Package) ([]*dkglib.Round1Data, error) {
	out := make([]*dkglib.Round1Data, 0, len(round1))
	for id, pkg := range round1 {
		data := new(dkglib.Round1Data)
		if err := data.Decode(pkg); err != nil {
			return nil, fmt.Errorf("decode round1 package from %d: %w", id, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// encodePublicKeyPackage packs the group verification key and every
// participant's public key share into a single self-describing blob, using
// each bytemare type's own length-prefixed Encode() form.
func encodePublicKeyPackage(shares []*keys.PublicKeyShare, verificationKey *ecc.Element) ([]byte, error) {
	vk := verificationKey.Encode()
	out := make([]byte, 0, 4+len(vk)+len(shares)*64)
	out = appendLengthPrefixed(out, vk)
	out = binary.BigEndian.AppendUint16(out, uint16(len(shares)))
	for _, share := range shares {
		enc, err := share.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode public key share: %w", err)
		}
		out = appendLengthPrefixed(out, enc)
	}
	return out, nil
}

func decodePublicKeyPackage(group ecc.Group, pkg domain.PublicKeyPackage) (verificationKey *ecc.Element, shares []*keys.PublicKeyShare, err error) {
	buf := []byte(pkg)
	vk, rest, err := readLengthPrefixed(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("decode verification key: %w", err)
	}
	verificationKey = group.NewElement()
	if err := verificationKey.Decode(vk); err != nil {
		return nil, nil, fmt.Errorf("decode verification key: %w", err)
	}
	if len(rest) < 2 {
		return nil, nil, fmt.Errorf("decode public key package: truncated share count")
	}
	count := binary.BigEndian.Uint16(rest[:2])
	rest = rest[2:]
	shares = make([]*keys.PublicKeyShare, 0, count)
	for i := uint16(0); i < count; i++ {
		var enc []byte
		enc, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("decode public key share %d: %w", i, err)
		}
		share := new(keys.PublicKeyShare)
		if err := share.Decode(enc); err != nil {
			return nil, nil, fmt.Errorf("decode public key share %d: %w", i, err)
		}
		shares = append(shares, share)
	}
	return verificationKey, shares, nil
}

func appendLengthPrefixed(dst []byte, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...)
}

func readLengthPrefixed(buf []byte) (data, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return nil, nil, fmt.Errorf("truncated payload")
	}
	return buf[:n], buf[n:], nil
}
