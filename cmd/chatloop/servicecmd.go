package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the app lifecycle to the service manager's contract. The
// service manager calls Start and Stop; the bot itself runs the normal
// start path in between.
type program struct {
	configPath string
}

// Start implements service.Interface. It must not block.
func (p *program) Start(service.Service) error {
	go p.run()
	return nil
}

func (p *program) run() {
	root := rootCmd()
	args := []string{"start"}
	if p.configPath != "" {
		args = append(args, "--config", p.configPath)
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Println("chatloop service exited:", err)
	}
}

// Stop implements service.Interface.
func (p *program) Stop(service.Service) error {
	return nil
}

func newService(configPath string) (service.Service, error) {
	prg := &program{configPath: configPath}

	arguments := []string{"service", "run"}
	if configPath != "" {
		arguments = append(arguments, "--config", configPath)
	}

	return service.New(prg, &service.Config{
		Name:        "chatloop",
		DisplayName: "chatloop",
		Description: "Conversational orchestration engine for chat platforms",
		Arguments:   arguments,
	})
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run or manage chatloop as a system service",
	}

	var configPath string
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install chatloop as a system service",
			RunE: func(*cobra.Command, []string) error {
				svc, err := newService(configPath)
				if err != nil {
					return err
				}
				if err := svc.Install(); err != nil {
					return err
				}
				fmt.Println("Service installed.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the chatloop system service",
			RunE: func(*cobra.Command, []string) error {
				svc, err := newService(configPath)
				if err != nil {
					return err
				}
				if err := svc.Uninstall(); err != nil {
					return err
				}
				fmt.Println("Service removed.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run under the service manager (invoked by the manager, not by hand)",
			RunE: func(*cobra.Command, []string) error {
				svc, err := newService(configPath)
				if err != nil {
					return err
				}
				return svc.Run()
			},
		},
	)
	return cmd
}
