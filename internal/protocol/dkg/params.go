package dkg

import domain "xfrost/internal/domain"

// inviteParams is the dkgGroupInvite body (spec.md §6's parameter table);
// Receive decodes into this combined shape regardless of whether the
// coordinator sent it as a single-recipient request or merged it from an
// inviteSharedParams/inviteLeafParams multicast pair.
type inviteParams struct {
	Charter      string                    `json:"charter"`
	MinSigners   int                       `json:"minSigners"`
	Session      domain.ARID               `json:"session"`
	Participants []domain.GroupParticipant `json:"participants"`
	ResponseARID domain.ARID               `json:"responseArid"`
}

// inviteSharedParams is dkgGroupInvite's multicast body: the charter,
// threshold, and assigned participant set are identical for every invitee,
// so they travel in one envelope rather than N (spec.md §4.3/§9).
type inviteSharedParams struct {
	Charter      string                    `json:"charter"`
	MinSigners   int                       `json:"minSigners"`
	Session      domain.ARID               `json:"session"`
	Participants []domain.GroupParticipant `json:"participants"`
}

type inviteLeafParams struct {
	ResponseARID domain.ARID `json:"responseArid"`
}

type inviteResponseParams struct {
	Session          domain.ARID         `json:"session"`
	Identifier       domain.Identifier   `json:"identifier"`
	Round1Package    domain.Round1Package `json:"round1Package"`
	NextResponseARID domain.ARID         `json:"nextResponseArid"`
}

type round2Params struct {
	Session          domain.ARID                                 `json:"session"`
	Round1Packages   map[domain.Identifier]domain.Round1Package `json:"round1Packages"`
	NextResponseARID domain.ARID                                 `json:"nextResponseArid"`
}

// round2SharedParams is dkgRound2's multicast body: the full round-1
// package set is identical for every participant, only each one's next
// response ARID differs (spec.md §4.3/§9).
type round2SharedParams struct {
	Session        domain.ARID                                 `json:"session"`
	Round1Packages map[domain.Identifier]domain.Round1Package `json:"round1Packages"`
}

type round2LeafParams struct {
	NextResponseARID domain.ARID `json:"nextResponseArid"`
}

type round2ResponseParams struct {
	Session          domain.ARID                              `json:"session"`
	Round2Packages   map[domain.Identifier]domain.Round2Package `json:"round2Packages"`
	NextResponseARID domain.ARID                              `json:"nextResponseArid"`
}

type finalizeParams struct {
	Session          domain.ARID                              `json:"session"`
	Round2Packages   map[domain.Identifier]domain.Round2Package `json:"round2Packages"`
	NextResponseARID domain.ARID                              `json:"nextResponseArid"`
}

type finalizeResponseParams struct {
	Session          domain.ARID               `json:"session"`
	PublicKeyPackage domain.PublicKeyPackage   `json:"publicKeyPackage"`
}
