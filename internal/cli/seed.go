package cli

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"

	"pathfinder-service/internal/config"
	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/infra/memory"
)

// NewSeedCmd inserts the built-in question bank into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in questions into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			store, err := b.questionStore(ctx, cfg)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			inserted := 0
			for _, item := range memory.DefaultBank() {
				item.CreatedAt, item.UpdatedAt = now, now
				if _, err := store.Create(ctx, item); err != nil {
					if errors.Is(err, domain.ErrItemExists) {
						continue
					}
					return err
				}
				inserted++
			}
			log.Printf("seeded %d questions", inserted)
			return nil
		},
	}
}
