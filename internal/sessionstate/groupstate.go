package sessionstate

import (
	"path/filepath"

	domain "xfrost/internal/domain"
)

var _ domain.GroupStateStore = (*Store)(nil)

func (s *Store) SaveRound1Secret(group domain.ARID, secret domain.Round1Secret) error {
	return writeFile(filepath.Join(s.groupDir(group), "round1_secret.bin"), secret)
}

func (s *Store) LoadRound1Secret(group domain.ARID) (domain.Round1Secret, error) {
	b, err := readFile(filepath.Join(s.groupDir(group), "round1_secret.bin"))
	return domain.Round1Secret(b), err
}

func (s *Store) SaveRound1Package(group domain.ARID, pkg domain.Round1Package) error {
	return writeFile(filepath.Join(s.groupDir(group), "round1_package.bin"), pkg)
}

func (s *Store) LoadRound1Package(group domain.ARID) (domain.Round1Package, error) {
	b, err := readFile(filepath.Join(s.groupDir(group), "round1_package.bin"))
	return domain.Round1Package(b), err
}

func (s *Store) SaveCollectedRound1(group domain.ARID, byIdentifier map[domain.Identifier]domain.Round1Package) error {
	return writeJSON(filepath.Join(s.groupDir(group), "collected_round1.json"), byIdentifier)
}

func (s *Store) LoadCollectedRound1(group domain.ARID) (map[domain.Identifier]domain.Round1Package, error) {
	out := make(map[domain.Identifier]domain.Round1Package)
	if _, err := readJSON(filepath.Join(s.groupDir(group), "collected_round1.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveRound2Secret(group domain.ARID, secret domain.Round2Secret) error {
	return writeFile(filepath.Join(s.groupDir(group), "round2_secret.bin"), secret)
}

func (s *Store) LoadRound2Secret(group domain.ARID) (domain.Round2Secret, error) {
	b, err := readFile(filepath.Join(s.groupDir(group), "round2_secret.bin"))
	return domain.Round2Secret(b), err
}

// collectedRound2Entry is the JSON-friendly form of one flat
// (sender_identifier, recipient_identifier) -> round2_package record;
// the real key is a [2]Identifier pair, which JSON cannot use as an
// object key directly (spec.md §9's flat-map representation).
type collectedRound2Entry struct {
	Sender    domain.Identifier    `json:"sender"`
	Recipient domain.Identifier    `json:"recipient"`
	Package   domain.Round2Package `json:"package"`
}

func (s *Store) SaveCollectedRound2(group domain.ARID, packages map[[2]domain.Identifier]domain.Round2Package) error {
	entries := make([]collectedRound2Entry, 0, len(packages))
	for k, v := range packages {
		entries = append(entries, collectedRound2Entry{Sender: k[0], Recipient: k[1], Package: v})
	}
	return writeJSON(filepath.Join(s.groupDir(group), "collected_round2.json"), entries)
}

func (s *Store) LoadCollectedRound2(group domain.ARID) (map[[2]domain.Identifier]domain.Round2Package, error) {
	var entries []collectedRound2Entry
	if _, err := readJSON(filepath.Join(s.groupDir(group), "collected_round2.json"), &entries); err != nil {
		return nil, err
	}
	out := make(map[[2]domain.Identifier]domain.Round2Package, len(entries))
	for _, e := range entries {
		out[[2]domain.Identifier{e.Sender, e.Recipient}] = e.Package
	}
	return out, nil
}

func (s *Store) SaveKeyPackage(group domain.ARID, kp domain.KeyPackage, pkp domain.PublicKeyPackage) error {
	if err := writeFile(filepath.Join(s.groupDir(group), "key_package.bin"), kp); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.groupDir(group), "public_key_package.bin"), pkp)
}

func (s *Store) LoadKeyPackage(group domain.ARID) (domain.KeyPackage, domain.PublicKeyPackage, error) {
	kp, err := readFile(filepath.Join(s.groupDir(group), "key_package.bin"))
	if err != nil {
		return nil, nil, err
	}
	pkp, err := readFile(filepath.Join(s.groupDir(group), "public_key_package.bin"))
	if err != nil {
		return nil, nil, err
	}
	return domain.KeyPackage(kp), domain.PublicKeyPackage(pkp), nil
}

func (s *Store) SaveCollectedFinalize(group domain.ARID, byIdentifier map[domain.Identifier]domain.PublicKeyPackage) error {
	return writeJSON(filepath.Join(s.groupDir(group), "collected_finalize.json"), byIdentifier)
}

func (s *Store) LoadCollectedFinalize(group domain.ARID) (map[domain.Identifier]domain.PublicKeyPackage, error) {
	out := make(map[domain.Identifier]domain.PublicKeyPackage)
	if _, err := readJSON(filepath.Join(s.groupDir(group), "collected_finalize.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}
