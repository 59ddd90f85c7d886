package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/view"
)

var cartSession string

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and rewrite stored carts",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart stored for a session",
	RunE:  runCartShow,
}

// cartSaveCmd rewrites the stored blob from its normalised form, dropping
// malformed items and merging duplicates.
var cartSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Normalise and rewrite the cart stored for a session",
	RunE:  runCartSave,
}

func init() {
	for _, c := range []*cobra.Command{cartShowCmd, cartSaveCmd} {
		c.Flags().StringVar(&cartSession, "session", "", "session id; empty selects the shared cart key")
	}
	cartCmd.AddCommand(cartShowCmd, cartSaveCmd)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	s := newRegistry(b, nil, cfg, logger).Open(cmd.Context(), cartSession)
	out, err := json.MarshalIndent(view.NewCart(s.Snapshot()), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", s.Key(), out)
	return nil
}

func runCartSave(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ev, err := openEvents(cfg, logger)
	if err != nil {
		return err
	}
	defer ev.Close()

	s := newRegistry(b, ev, cfg, logger).Open(cmd.Context(), cartSession)
	if err := s.Persist(cmd.Context()); err != nil {
		return err
	}
	c := s.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %d lines, %d units\n", s.Key(), c.Len(), c.Count())
	return nil
}
