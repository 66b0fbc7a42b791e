package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chatloop-ai/chatloop/internal/config"
	"github.com/chatloop-ai/chatloop/internal/driver"
	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/internal/secrets"
	"github.com/chatloop-ai/chatloop/internal/settings"
	"github.com/chatloop-ai/chatloop/modules/store/redis"
	"github.com/chatloop-ai/chatloop/modules/store/sqlite"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Bot settings management",
	}

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Edit the stored bot settings interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPathFromFlag(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			kv, closeKV, err := openKV(cfg)
			if err != nil {
				return err
			}
			defer closeKV()

			return editSettings(cmd, settings.New(kv, nil), secrets.NewSystemPrompt(kv, cfg.Engine.SystemPrompt, nil), kv)
		},
	}
	edit.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.AddCommand(edit)
	return cmd
}

// openKV opens the configured key-value backend.
func openKV(cfg *config.Config) (kvstore.Store, func(), error) {
	if cfg.Store.Backend == config.BackendRedis {
		s := redis.New(cfg.Store.Redis, nil)
		return s, func() { _ = s.Close() }, nil
	}
	s, err := sqlite.Open(cfg.Store.SQLite, cfg.DataDir, nil)
	if err != nil {
		return nil, nil, err
	}
	return s.KV(), func() { _ = s.Close() }, nil
}

func editSettings(cmd *cobra.Command, store *settings.Store, prompt *secrets.SystemPrompt, kv kvstore.Store) error {
	ctx := cmd.Context()

	model := store.Model(ctx)
	temperature := strconv.FormatFloat(store.Temperature(ctx), 'f', -1, 64)
	statusEmojis := store.StatusEmojis(ctx)
	systemPrompt := prompt.Get(ctx)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(huh.NewOptions(driver.ModelNames()...)...).
				Value(&model),
			huh.NewInput().
				Title("Temperature").
				Description("Sampling temperature, 0 to 2").
				Validate(validTemperature).
				Value(&temperature),
			huh.NewConfirm().
				Title("Status emojis").
				Description("React and show a busy status while working").
				Value(&statusEmojis),
			huh.NewText().
				Title("System prompt").
				Value(&systemPrompt),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if _, err := store.SetModel(ctx, model); err != nil {
		return err
	}
	if _, err := store.SetTemperature(ctx, temperature); err != nil {
		return err
	}
	if _, err := store.SetStatusEmojis(ctx, strconv.FormatBool(statusEmojis)); err != nil {
		return err
	}
	if err := kv.Put(ctx, secrets.SystemPromptKey, systemPrompt, 0); err != nil {
		return err
	}

	fmt.Println("Settings saved.")
	return nil
}

func validTemperature(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	if f < 0 || f > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}
