package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domain "xfrost/internal/domain"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Run distributed key generation groups",
	}
	cmd.AddCommand(
		groupInviteCmd(),
		groupListenCmd(),
		groupCollectRound1Cmd(),
		groupCollectRound2Cmd(),
		groupCollectFinalizeCmd(),
		groupStatusCmd(),
	)
	return cmd
}

// groupInviteCmd starts a new group as coordinator: it assigns identifiers,
// runs this party's own round-1 contribution, and dispatches the invite to
// every named participant's bootstrap rendezvous slot.
func groupInviteCmd() *cobra.Command {
	var charter string
	var names []string
	var preview bool
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite enrolled participants to a new DKG group",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := owner()
			if err != nil {
				return err
			}
			others, err := resolveByPetName(names)
			if err != nil {
				return err
			}
			if wire.Threshold == 0 || wire.MaxSigners == 0 {
				return fmt.Errorf("--threshold and --max-signers must be set (via persistent flags) before inviting")
			}
			if len(others)+1 != wire.MaxSigners {
				return fmt.Errorf("invited %d participants plus self, want exactly %d (--max-signers)", len(others)+1, wire.MaxSigners)
			}
			engine := wire.DKGEngine(me)
			if preview {
				env, err := engine.PreviewInvite(charter, wire.Threshold, others)
				if err != nil {
					return err
				}
				fmt.Printf("%x\n", env)
				return nil
			}
			groupID, err := engine.Invite(cmd.Context(), charter, wire.Threshold, others)
			if err != nil {
				return err
			}
			fmt.Println(groupID)
			return nil
		},
	}
	cmd.Flags().StringVar(&charter, "charter", "", "human-readable description of what this group's key will be used for")
	cmd.Flags().StringSliceVar(&names, "participant", nil, "pet name of an enrolled participant to invite (repeatable)")
	cmd.Flags().BoolVar(&preview, "preview", false, "print the sealed dkgGroupInvite envelope without persisting the group or posting anything")
	cmd.MarkFlagRequired("charter")
	cmd.MarkFlagRequired("participant")
	return cmd
}

// groupListenCmd blocks for one inbound DKG request addressed to this
// party's current bootstrap or chained rendezvous slot, and answers it.
// Run it once per expected hop (invite, round2, finalize); it advances the
// local ListeningAt slot itself via PostResponse.
func groupListenCmd() *cobra.Command {
	var timeoutSeconds int
	var accept bool
	var rejectReason string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Wait for and answer one inbound DKG request",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := owner()
			if err != nil {
				return err
			}
			arid, ok, err := wire.Registry.ListeningAt()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no rendezvous slot set; run 'owner listen-at' first and share it with your inviter")
			}
			senders, err := knownSenders(me)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
			env, err := wire.KV.Get(ctx, arid, deadline)
			if err != nil {
				return err
			}
			req, err := wire.Codec.DecodeRequest(env, me, senders)
			if err != nil {
				return err
			}
			coordinator, err := findDoc(req.SenderXID)
			if err != nil {
				return err
			}
			engine := wire.DKGEngine(me)

			switch req.Function {
			case domain.FuncDkgGroupInvite:
				if !accept {
					responseARID, err := engine.Reject(req)
					if err != nil {
						return err
					}
					return engine.PostRejection(ctx, responseARID, coordinator, rejectReason)
				}
				responseARID, params, err := engine.Accept(req)
				if err != nil {
					return err
				}
				result, err := resultMap(params)
				if err != nil {
					return err
				}
				if err := engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
					return err
				}
				fmt.Println("accepted invite, posted round-1 contribution")
			case domain.FuncDkgRound2:
				responseARID, params, err := engine.RespondRound2(req)
				if err != nil {
					return err
				}
				result, err := resultMap(params)
				if err != nil {
					return err
				}
				if err := engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
					return err
				}
				fmt.Println("posted round-2 shares")
			case domain.FuncDkgFinalize:
				responseARID, params, err := engine.RespondFinalize(req)
				if err != nil {
					return err
				}
				result, err := resultMap(params)
				if err != nil {
					return err
				}
				if err := engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
					return err
				}
				fmt.Println("finalized group locally")
			default:
				return fmt.Errorf("unexpected function %q on dkg rendezvous slot", req.Function)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 600, "seconds to wait for the inbound request")
	cmd.Flags().BoolVar(&accept, "accept", true, "accept the invite (only meaningful for dkgGroupInvite; pass --accept=false to reject)")
	cmd.Flags().StringVar(&rejectReason, "reject-reason", "declined", "reason recorded when --accept=false")
	return cmd
}

func groupCollectRound1Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-round1 <group-arid>",
		Short: "Coordinator: collect invite responses and dispatch round 2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupID domain.ARID
			if err := groupID.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.DKGEngine(me)
			if err := engine.CollectRound1(cmd.Context(), groupID); err != nil {
				return err
			}
			fmt.Println("round 1 collected, round 2 dispatched")
			return nil
		},
	}
	return cmd
}

func groupCollectRound2Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-round2 <group-arid>",
		Short: "Coordinator: collect round-2 shares and dispatch finalize",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupID domain.ARID
			if err := groupID.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.DKGEngine(me)
			if err := engine.CollectRound2(cmd.Context(), groupID); err != nil {
				return err
			}
			fmt.Println("round 2 collected, finalize dispatched")
			return nil
		},
	}
	return cmd
}

func groupCollectFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-finalize <group-arid>",
		Short: "Coordinator: collect finalize responses and confirm the group key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupID domain.ARID
			if err := groupID.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.DKGEngine(me)
			pkp, err := engine.CollectFinalize(cmd.Context(), groupID)
			if err != nil {
				return err
			}
			fmt.Printf("group finalized, public key package: %x\n", []byte(pkp))
			return nil
		},
	}
	return cmd
}

func groupStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <group-arid>",
		Short: "Print this party's locally recorded status for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupID domain.ARID
			if err := groupID.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}
			rec, ok, err := wire.Registry.Group(groupID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown group %s", groupID)
			}
			fmt.Printf("status: %s\ncharter: %s\nmin-signers: %d\nparticipants: %d\n", rec.Status, rec.Charter, rec.MinSigners, len(rec.Participants))
			if rec.Status == domain.GroupFinalized {
				fmt.Printf("verifying key: %x\n", rec.VerifyingKey)
			}
			if len(rec.Missing) > 0 {
				fmt.Printf("missing: %v\n", rec.Missing)
			}
			if arid, ok, err := wire.Registry.ListeningAt(); err == nil && ok {
				fmt.Printf("listening-at: %s\n", arid)
			}
			return nil
		},
	}
	return cmd
}
