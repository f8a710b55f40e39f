package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	domain "xfrost/internal/domain"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Run threshold signing sessions over a finalized group",
	}
	cmd.AddCommand(
		signStartCmd(),
		signListenCmd(),
		signCollectCommitsCmd(),
		signCollectSharesCmd(),
		signStatusCmd(),
	)
	return cmd
}

func parseARID(s string) (domain.ARID, error) {
	var a domain.ARID
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return domain.ARID{}, err
	}
	return a, nil
}

// signStartCmd opens a new signing session as coordinator over the bytes
// read from --message-file, or the literal --message string if set.
func signStartCmd() *cobra.Command {
	var groupHex, messageFile, message string
	var preview bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Coordinator: start a signing session over a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseARID(groupHex)
			if err != nil {
				return err
			}
			msg := []byte(message)
			if messageFile != "" {
				b, err := os.ReadFile(messageFile)
				if err != nil {
					return err
				}
				msg = b
			}
			if len(msg) == 0 {
				return fmt.Errorf("one of --message or --message-file is required")
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.SigningEngine(me)
			if preview {
				env, err := engine.PreviewStart(groupID, msg)
				if err != nil {
					return err
				}
				fmt.Printf("%x\n", env)
				return nil
			}
			sessionID, err := engine.Start(cmd.Context(), groupID, msg)
			if err != nil {
				return err
			}
			fmt.Println(sessionID)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupHex, "group", "", "finalized group arid (required)")
	cmd.Flags().StringVar(&message, "message", "", "literal message bytes to sign")
	cmd.Flags().StringVar(&messageFile, "message-file", "", "path to a file containing the message bytes to sign")
	cmd.Flags().BoolVar(&preview, "preview", false, "print the sealed signCommit envelope without persisting a session or posting anything")
	cmd.MarkFlagRequired("group")
	return cmd
}

// signListenCmd blocks for one inbound signing request addressed to this
// party's current rendezvous slot, and answers it.
func signListenCmd() *cobra.Command {
	var timeoutSeconds int
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Wait for and answer one inbound signing request",
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
				return fmt.Errorf("no rendezvous slot set; run 'owner listen-at' first and share it with your coordinator")
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
			engine := wire.SigningEngine(me)

			switch req.Function {
			case domain.FuncSignCommit:
				responseARID, params, err := engine.Receive(req)
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
				fmt.Println("posted commitment")
			case domain.FuncSignShare:
				responseARID, params, err := engine.RespondShare(req)
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
				fmt.Println("posted signature share")
			case domain.FuncSignFinalize:
				// signFinalize is a one-way broadcast: the coordinator already
				// has the aggregated signature, so no response is collected.
				if _, err := engine.ReceiveFinalize(req); err != nil {
					return err
				}
				fmt.Println("signature attached and verified locally")
			default:
				return fmt.Errorf("unexpected function %q on signing rendezvous slot", req.Function)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 600, "seconds to wait for the inbound request")
	return cmd
}

func signCollectCommitsCmd() *cobra.Command {
	var groupHex, sessionHex string
	cmd := &cobra.Command{
		Use:   "collect-commits",
		Short: "Coordinator: collect commitments and dispatch signature shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseARID(groupHex)
			if err != nil {
				return err
			}
			sessionID, err := parseARID(sessionHex)
			if err != nil {
				return err
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.SigningEngine(me)
			if err := engine.CollectCommits(cmd.Context(), groupID, sessionID); err != nil {
				return err
			}
			fmt.Println("commitments collected, shares dispatched")
			return nil
		},
	}
	cmd.Flags().StringVar(&groupHex, "group", "", "group arid (required)")
	cmd.Flags().StringVar(&sessionHex, "session", "", "session arid (required)")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("session")
	return cmd
}

func signCollectSharesCmd() *cobra.Command {
	var groupHex, sessionHex string
	cmd := &cobra.Command{
		Use:   "collect-shares",
		Short: "Coordinator: collect shares, aggregate, verify, and broadcast the signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseARID(groupHex)
			if err != nil {
				return err
			}
			sessionID, err := parseARID(sessionHex)
			if err != nil {
				return err
			}
			me, err := owner()
			if err != nil {
				return err
			}
			engine := wire.SigningEngine(me)
			sig, err := engine.CollectShares(cmd.Context(), groupID, sessionID)
			if err != nil {
				return err
			}
			fmt.Printf("signature: %x\n", []byte(sig))
			return nil
		},
	}
	cmd.Flags().StringVar(&groupHex, "group", "", "group arid (required)")
	cmd.Flags().StringVar(&sessionHex, "session", "", "session arid (required)")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("session")
	return cmd
}

func signStatusCmd() *cobra.Command {
	var groupHex, sessionHex string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print this party's locally recorded status for a signing session",
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseARID(groupHex)
			if err != nil {
				return err
			}
			sessionID, err := parseARID(sessionHex)
			if err != nil {
				return err
			}
			rec, err := wire.State.LoadSession(groupID, sessionID)
			if err != nil {
				return err
			}
			fmt.Printf("status: %s\ncommitments: %d\nshares: %d\n", rec.Status, len(rec.Commitments), len(rec.Shares))
			if rec.Status == domain.SessionFinalized || rec.Status == domain.SessionAttached {
				fmt.Printf("signature: %x\n", []byte(rec.Signature))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&groupHex, "group", "", "group arid (required)")
	cmd.Flags().StringVar(&sessionHex, "session", "", "session arid (required)")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("session")
	return cmd
}
