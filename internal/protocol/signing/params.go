package signing

import domain "xfrost/internal/domain"

// signCommitParams is the signCommit body: the coordinator asks a
// candidate signer to produce a fresh nonce commitment over a specific
// message (spec.md §6's parameter table). It carries the literal target
// envelope and the full participant set rather than a bare claimed digest,
// so the signer can recompute target_digest itself and confirm its own
// presence and the threshold instead of trusting the coordinator's say-so.
type signCommitParams struct {
	Group          domain.ARID                 `json:"group"`
	Session        domain.ARID                 `json:"session"`
	MinSigners     int                         `json:"minSigners"`
	TargetEnvelope []byte                      `json:"targetEnvelope"`
	Participants   []domain.SigningParticipant `json:"participants"`
	Identifier     domain.Identifier           `json:"identifier"`
	ResponseARID   domain.ARID                 `json:"responseArid"`
}

// signCommitSharedParams is signCommitParams' multicast body: the fields
// every candidate signer's copy carries identically (spec.md §4.3/§9's
// "one multicast envelope" construction, since every signer is being asked
// to commit over the same target envelope against the same participant
// set).
type signCommitSharedParams struct {
	Group          domain.ARID                 `json:"group"`
	Session        domain.ARID                 `json:"session"`
	MinSigners     int                         `json:"minSigners"`
	TargetEnvelope []byte                      `json:"targetEnvelope"`
	Participants   []domain.SigningParticipant `json:"participants"`
}

// signCommitLeafParams is the per-recipient remainder of signCommitParams:
// sealed a second time to each recipient's own key and merged back into
// its Params on decode.
type signCommitLeafParams struct {
	Identifier   domain.Identifier `json:"identifier"`
	ResponseARID domain.ARID       `json:"responseArid"`
}

type signCommitResponseParams struct {
	Session          domain.ARID              `json:"session"`
	Identifier       domain.Identifier        `json:"identifier"`
	Commitment       domain.SigningCommitment `json:"commitment"`
	NextResponseARID domain.ARID              `json:"nextResponseArid"`
}

// signShareParams carries the full commitment set back out to every
// committing signer so each can derive its signature share (spec.md §4.6
// phase 4).
type signShareParams struct {
	Group            domain.ARID                                   `json:"group"`
	Session          domain.ARID                                   `json:"session"`
	TargetDigest     [32]byte                                      `json:"targetDigest"`
	Commitments      map[domain.Identifier]domain.SigningCommitment `json:"commitments"`
	NextResponseARID domain.ARID                                   `json:"nextResponseArid"`
}

// signShareSharedParams is signShareParams' multicast body: the combined
// commitment set every committer gets back is identical, only each
// committer's NextResponseARID differs.
type signShareSharedParams struct {
	Group        domain.ARID                                     `json:"group"`
	Session      domain.ARID                                     `json:"session"`
	TargetDigest [32]byte                                        `json:"targetDigest"`
	Commitments  map[domain.Identifier]domain.SigningCommitment `json:"commitments"`
}

type signShareLeafParams struct {
	NextResponseARID domain.ARID `json:"nextResponseArid"`
}

type signShareResponseParams struct {
	Session domain.ARID            `json:"session"`
	Share   domain.SignatureShare `json:"share"`
}

// signFinalizeParams distributes the aggregated, verified signature to
// every signer for local verification and attachment (spec.md §4.6 phase
// 6, the "two-level verify-and-attach" the coordinator and every
// participant each perform independently).
type signFinalizeParams struct {
	Group     domain.ARID      `json:"group"`
	Session   domain.ARID      `json:"session"`
	Signature domain.Signature `json:"signature"`
}

type signFinalizeResponseParams struct {
	Session domain.ARID `json:"session"`
	Ok      bool        `json:"ok"`
}
