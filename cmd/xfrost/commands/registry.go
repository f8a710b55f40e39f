package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
)

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage known participants",
	}
	cmd.AddCommand(registryParticipantAddCmd(), registryParticipantListCmd())
	return cmd
}

func registryParticipantAddCmd() *cobra.Command {
	var petName string
	var listenAtHex string
	cmd := &cobra.Command{
		Use:   "participant-add <document-file>",
		Short: "Enroll a participant from their exported signed XID document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := crypto.ParseSignedXIDDocument(raw)
			if err != nil {
				return err
			}
			var listenAt domain.ARID
			if err := listenAt.UnmarshalText([]byte(listenAtHex)); err != nil {
				return fmt.Errorf("--listen-at: %w", err)
			}
			doc.ListenAt = listenAt
			if err := wire.Registry.AddParticipant(doc, domain.PetName(petName)); err != nil {
				return err
			}
			fmt.Printf("enrolled %s as %q, listening at %s\n", doc.XID, petName, doc.ListenAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&petName, "name", "", "pet name for this participant (required)")
	cmd.Flags().StringVar(&listenAtHex, "listen-at", "", "hex-encoded bootstrap rendezvous arid this participant gave you out of band (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("listen-at")
	return cmd
}

func registryParticipantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "participant-list",
		Short: "List known participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := wire.Registry.ListParticipants()
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Printf("%s\t%s\tlisten-at=%s\n", d.XID, d.PetName, d.ListenAt)
			}
			return nil
		},
	}
}
