package domain

import (
	interfaces "xfrost/internal/domain/interfaces"
	types "xfrost/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	XID                 = types.XID
	ARID                = types.ARID
	Ed25519Public       = types.Ed25519Public
	Ed25519Private      = types.Ed25519Private
	X25519Public        = types.X25519Public
	X25519Private       = types.X25519Private
	PublicKeys          = types.PublicKeys
	PetName             = types.PetName
	XIDDocument         = types.XIDDocument
	PrivateXIDDocument  = types.PrivateXIDDocument
	Identifier          = types.Identifier
	Round1Secret        = types.Round1Secret
	Round1Package       = types.Round1Package
	Round2Secret        = types.Round2Secret
	Round2Package       = types.Round2Package
	KeyPackage          = types.KeyPackage
	PublicKeyPackage    = types.PublicKeyPackage
	SigningNonces       = types.SigningNonces
	SigningCommitment   = types.SigningCommitment
	SignatureShare      = types.SignatureShare
	Signature           = types.Signature
	VerifyingKey        = types.VerifyingKey
	GroupStatus         = types.GroupStatus
	GroupParticipant    = types.GroupParticipant
	ContributionPaths   = types.ContributionPaths
	GroupRecord         = types.GroupRecord
	SessionStatus       = types.SessionStatus
	SigningParticipant  = types.SigningParticipant
	SessionRecord       = types.SessionRecord
	PendingRequest      = types.PendingRequest
	Registry            = types.Registry
	Function            = types.Function
	PeerContinuation    = types.PeerContinuation
	Request             = types.Request
	Response            = types.Response
)

const (
	GroupInvited    = types.GroupInvited
	GroupAccepted   = types.GroupAccepted
	GroupRejected   = types.GroupRejected
	GroupRound1Done = types.GroupRound1Done
	GroupRound2Done = types.GroupRound2Done
	GroupFinalized  = types.GroupFinalized
	GroupAborted    = types.GroupAborted
	GroupPartial    = types.GroupPartial

	SessionStarted   = types.SessionStarted
	SessionReceived  = types.SessionReceived
	SessionCommitted = types.SessionCommitted
	SessionShared    = types.SessionShared
	SessionFinalized = types.SessionFinalized
	SessionAttached  = types.SessionAttached
	SessionAborted   = types.SessionAborted

	FuncDkgGroupInvite       = types.FuncDkgGroupInvite
	FuncDkgInviteResponse    = types.FuncDkgInviteResponse
	FuncDkgRound2            = types.FuncDkgRound2
	FuncDkgRound2Response    = types.FuncDkgRound2Response
	FuncDkgFinalize          = types.FuncDkgFinalize
	FuncDkgFinalizeResponse  = types.FuncDkgFinalizeResponse
	FuncSignCommit           = types.FuncSignCommit
	FuncSignCommitResponse   = types.FuncSignCommitResponse
	FuncSignShare            = types.FuncSignShare
	FuncSignShareResponse    = types.FuncSignShareResponse
	FuncSignFinalize         = types.FuncSignFinalize
	FuncSignFinalizeResponse = types.FuncSignFinalizeResponse

	RegistryVersion = types.RegistryVersion
)

func NewRegistry() *Registry { return types.NewRegistry() }

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	RegistryStore      = interfaces.RegistryStore
	GroupStateStore    = interfaces.GroupStateStore
	SigningStateStore  = interfaces.SigningStateStore
	KvStore            = interfaces.KvStore
	FrostSuite         = interfaces.FrostSuite
	RegistryService    = interfaces.RegistryService
	EnvelopeCodec      = interfaces.EnvelopeCodec
	ParticipantRequest = interfaces.ParticipantRequest
	DispatchMessage    = interfaces.DispatchMessage
	CollectionOutcome  = interfaces.CollectionOutcome
	CollectionResult   = interfaces.CollectionResult
	ValidateFunc       = interfaces.ValidateFunc
	Collector          = interfaces.Collector
)
