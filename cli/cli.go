package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/infragenie/config"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/fs"
	"github.com/santiagomed/infragenie/generator"
	"github.com/santiagomed/infragenie/logger"
	"github.com/santiagomed/infragenie/mockserver"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "infragenie",
	Short: "InfraGenie turns a plain-language description into Terraform",
	Long: `InfraGenie sends a description of the infrastructure you want to an AI
generation service and shows the returned Terraform files in a terminal IDE.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseRootFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		return runTUI(cfg, flags.mock)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Terraform without the interactive UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseRootFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		gen, err := parseGenerateFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		return runGenerate(cmd, cfg, gen)
	},
}

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve a sample Terraform result for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		l := logger.New(cmd.ErrOrStderr(), "info")
		s := mockserver.New(l, cmd.ErrOrStderr())

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return s.ListenAndServe(ctx, addr)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "infragenie %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(mockServerCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Directory containing config.yaml")
	rootCmd.PersistentFlags().String("api-url", "", "Generation service endpoint")
	rootCmd.PersistentFlags().String("cloud", "", "Cloud provider (azure, aws, gcp)")
	rootCmd.PersistentFlags().String("provider", "", "AI provider (gemini, openai)")
	rootCmd.Flags().Bool("mock", false, "Start in the result view with a sample result")

	generateCmd.Flags().StringP("prompt", "p", "", "Description of the infrastructure to generate")
	generateCmd.Flags().StringP("out", "o", "", "Directory to write the generated files into")
	generateCmd.MarkFlagRequired("prompt")

	mockServerCmd.Flags().String("addr", ":8000", "Address to listen on")
}

type rootFlags struct {
	config   string
	apiURL   string
	cloud    string
	provider string
	mock     bool
}

type generateFlags struct {
	prompt string
	out    string
}

func parseRootFlags(cmd *cobra.Command) (rootFlags, error) {
	var f rootFlags
	var err error
	if f.config, err = cmd.Flags().GetString("config"); err != nil {
		return f, err
	}
	if f.apiURL, err = cmd.Flags().GetString("api-url"); err != nil {
		return f, err
	}
	if f.cloud, err = cmd.Flags().GetString("cloud"); err != nil {
		return f, err
	}
	if f.provider, err = cmd.Flags().GetString("provider"); err != nil {
		return f, err
	}
	if cmd.Flags().Lookup("mock") != nil {
		if f.mock, err = cmd.Flags().GetBool("mock"); err != nil {
			return f, err
		}
	}
	return f, nil
}

func parseGenerateFlags(cmd *cobra.Command) (generateFlags, error) {
	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return generateFlags{}, err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return generateFlags{}, err
	}
	return generateFlags{prompt: prompt, out: out}, nil
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(f rootFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.cloud != "" {
		cfg.CloudProvider = f.cloud
	}
	if f.provider != "" {
		cfg.AIProvider = f.provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cfg *config.Config, l logger.Logger) (*Engine, error) {
	client, err := generator.NewHTTPClient(cfg.APIURL, l)
	if err != nil {
		return nil, err
	}
	l.Info(fmt.Sprintf("Using generation endpoint %s", client.Endpoint()))
	return NewEngine(client, l, cfg.RequestTimeout), nil
}

func runTUI(cfg *config.Config, mock bool) error {
	if err := logger.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	l := logger.GetLogger()
	l.Debug("Initializing InfraGenie")

	engine, err := newEngine(cfg, l)
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	defer engine.Shutdown(5 * time.Second)

	model := newAppModel(cfg, engine, fs.NewOsFileSystem(), l)
	if mock {
		model = model.withResult(core.MockResult())
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, f generateFlags) error {
	l := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)

	req, err := core.NewGenerationRequest(cfg.Cloud(), f.prompt, cfg.AI())
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, l)
	if err != nil {
		return err
	}
	defer engine.Shutdown(5 * time.Second)

	ticket, err := engine.Submit(req)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outcome Outcome
	select {
	case outcome = <-ticket.Done:
	case <-ctx.Done():
		engine.Cancel()
		outcome = <-ticket.Done
	}
	if outcome.Err != nil {
		return errors.New(generator.Message(outcome.Err))
	}

	printSummary(cmd, outcome.Result)

	if f.out == "" {
		return nil
	}
	return exportResult(cmd, outcome.Result, fs.NewOsFileSystem(), f.out)
}

// exportResult writes result under out and prints what landed on disk.
func exportResult(cmd *cobra.Command, result *core.GenerationResult, dst *fs.FileSystem, out string) error {
	dir, err := fs.Export(result, dst, out)
	if err != nil {
		return fmt.Errorf("error exporting files: %w", err)
	}
	files, err := dst.ListFiles(dir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s Wrote %d files to %s\n", checkStyle.Render("✓"), len(files), dir)
	for _, name := range files {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *core.GenerationResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s • %d files\n", titleStyle.Render("InfraGenie"), result.CloudProvider, result.Infrastructure.Len())
	if result.RequestID != "" {
		fmt.Fprintf(w, "%s\n", faintStyle.Render(result.RequestID))
	}
	for _, name := range result.Infrastructure.Names() {
		entry, _ := result.Infrastructure.Get(name)
		fmt.Fprintf(w, "  %-24s %s\n", nameStyle.Render(name), entry.Purpose)
		if len(entry.Dependencies) > 0 {
			fmt.Fprintf(w, "  %-24s %s\n", "", faintStyle.Render("depends on "+strings.Join(entry.Dependencies, ", ")))
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
