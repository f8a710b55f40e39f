package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
	"xfrost/internal/router"
)

func ownerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage this process's own inception identity",
	}
	cmd.AddCommand(ownerSetCmd(), ownerShowCmd(), ownerExportCmd(), ownerListenAtCmd())
	return cmd
}

func ownerSetCmd() *cobra.Command {
	var petName string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Generate a fresh inception identity and install it as the owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, _, err := crypto.NewPrivateXIDDocument(domain.PetName(petName))
			if err != nil {
				return err
			}
			if err := wire.Registry.SetOwner(priv); err != nil {
				return err
			}
			fmt.Printf("owner set: %s (%s)\n", priv.XID, priv.PetName)
			return nil
		},
	}
	cmd.Flags().StringVar(&petName, "name", "", "pet name for this identity")
	return cmd
}

// ownerExportCmd prints the owner's public signed XID document, the bytes
// another party's "registry participant-add" command consumes. It never
// prints the owner's private SignedEnvelope, which embeds signing and
// decryption keys.
func ownerExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the owner's signed public XID document",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := wire.Registry.Owner()
			if err != nil {
				return err
			}
			pub, err := crypto.ExportPublic(owner)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(pub)
			return err
		},
	}
}

// ownerListenAtCmd manages the owner's own bootstrap rendezvous slot: the
// ARID a new counterparty's first dkgGroupInvite or signCommit is addressed
// to, before any PeerContinuation exists to chain from. It must be shared
// out of band (alongside the exported XID document) with anyone enrolling
// this owner as a participant.
func ownerListenAtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen-at",
		Short: "Show the owner's current bootstrap rendezvous arid, generating one if none is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			arid, ok, err := wire.Registry.ListeningAt()
			if err != nil {
				return err
			}
			if !ok {
				arid, err = router.NewARID()
				if err != nil {
					return err
				}
				if err := wire.Registry.SetListeningAt(arid); err != nil {
					return err
				}
			}
			fmt.Println(arid)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rotate",
		Short: "Generate and install a fresh bootstrap rendezvous arid, replacing the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			arid, err := router.NewARID()
			if err != nil {
				return err
			}
			if err := wire.Registry.SetListeningAt(arid); err != nil {
				return err
			}
			fmt.Println(arid)
			return nil
		},
	})
	return cmd
}

func ownerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the owner's XID",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := wire.Registry.Owner()
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", owner.XID, owner.PetName)
			return nil
		},
	}
}
