package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"lexboard/internal/board"
	"lexboard/internal/boardapi"
	"lexboard/internal/errors"
	"lexboard/internal/httputil"
	"lexboard/internal/logger"
	"lexboard/internal/usercfg"
	"lexboard/internal/version"

	"github.com/AlecAivazis/survey/v2"
	selfupdate "github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

var updateCheckCh <-chan version.UpdateCheckResult

var rootCmd = &cobra.Command{
	Use:   "lexboard",
	Short: "Terminal kanban board for your legal practice",
	Long: `Lexboard is a terminal kanban board backed by the firm's practice
management server. It shows one board, applies your changes immediately,
and keeps itself in sync with the server in the background.

Running lexboard with no arguments opens the board.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)

		name := cmd.Name()
		if name != "update" && name != "version" {
			updateCheckCh = version.StartUpdateCheck()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if updateCheckCh == nil {
			return
		}
		select {
		case result := <-updateCheckCh:
			if result.NewVersion != "" {
				fmt.Fprintf(os.Stderr, "\n\033[33mA new version of lexboard is available: %s (current: %s)\033[0m\n", result.NewVersion, version.GetShortVersion())
				fmt.Fprintf(os.Stderr, "\033[33mRun 'lexboard update' to upgrade.\033[0m\n")
			}
		case <-time.After(500 * time.Millisecond):
		}
	},
	Run: runBoard,
}

// boardCmd is an explicit alias for the default command.
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the kanban board (default command)",
	Long: `Open the kanban board in the terminal.

Controls:
  - Arrows / h j k l: Move selection
  - Tab / Shift+Tab: Switch column
  - g: Grab the selected card; hjkl place it, g/enter drop, esc cancel
  - n / e / d: New, edit, delete card
  - N / R / D: New, rename, delete column
  - o / O: Open card / board in browser
  - /: Filter cards
  - r: Refresh now
  - ?: Help
  - q: Quit`,
	Example: "lexboard board",
	Run:     runBoard,
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a card without opening the board",
	Long: `Create a card from the command line. The card lands at the end of the
target column (the first column unless --column names another).`,
	Example: `  lexboard add "Draft engagement letter"
  lexboard add "File motion to compel" --column "In Progress" --number lex-204
  lexboard add "Depose witness" -c Intake -b "Schedule for next week"`,
	Args: cobra.ExactArgs(1),
	Run:  runAdd,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure Lexboard interactively",
	Long:  "Launch a setup wizard to configure the server connection and pick a board",
	Run:   runSetup,
}

// configCmd provides config management subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Lexboard configuration",
	Long:  "Commands for managing Lexboard configuration files, migrations, and settings",
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate config file to current schema version",
	Long:  "Load the config file, apply any necessary schema migrations, and save it back to disk with the current schema version",
	Run:   runConfigMigrate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the path to the configuration file",
	Long:  "Display the path where Lexboard looks for its configuration file (XDG-compliant location)",
	Run:   runConfigPath,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the current configuration",
	Long:  "Display the current effective configuration, including defaults and environment variable overlays. The API token is never printed.",
	Run:   runConfigPrint,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  "Retrieve and display a specific configuration value. Keys: server_url, email, board, poll_seconds, abandon_cycles, schema_version",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value and save to file. Keys: server_url, email, board, poll_seconds, abandon_cycles. Use 'lexboard setup' for the API token.",
	Args:  cobra.ExactArgs(2),
	Run:   runConfigSet,
}

var configDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration health",
	Long:  "Validate configuration file, check for common issues, and suggest fixes",
	Run:   runConfigDoctor,
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display version, build information, and platform details for Lexboard",
	Run:   runVersion,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Self-update lexboard to the latest release",
	Long:  "Check GitHub Releases for a newer version of lexboard and replace the current binary.",
	Run:   runUpdate,
}

var verbose bool

// add command flags
var (
	addColumnFlag string
	addNumberFlag string
	addBodyFlag   string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)

	// add command flags
	addCmd.Flags().StringVarP(&addColumnFlag, "column", "c", "", "Column title to add the card to (default: first column)")
	addCmd.Flags().StringVarP(&addNumberFlag, "number", "n", "", "Display number for the card (e.g. LEX-204)")
	addCmd.Flags().StringVarP(&addBodyFlag, "body", "b", "", "Body text for the card")

	// Add config subcommands
	configCmd.AddCommand(configMigrateCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configPrintCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDoctorCmd)

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\n\033[93mOperation cancelled by user.\033[0m")
		os.Exit(0)
	}()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadBoardConfig resolves the effective configuration and refuses to proceed
// without the connection essentials.
func loadBoardConfig() (*usercfg.Config, error) {
	if !usercfg.IsConfigured() {
		fmt.Println("Lexboard is not configured yet.")
		fmt.Println()
		fmt.Println("Run:  lexboard setup")
		fmt.Println()
		fmt.Println("Or set environment variables:")
		fmt.Println("  LEXBOARD_SERVER_URL=https://practice.yourfirm.example")
		fmt.Println("  LEXBOARD_EMAIL=you@yourfirm.example")
		fmt.Println("  LEXBOARD_API_TOKEN=...")
		fmt.Println("  LEXBOARD_BOARD=MAIN")
		os.Exit(1)
	}

	cfg := usercfg.GetRuntimeConfig()

	var missing []string
	if cfg.ServerURL == "" {
		missing = append(missing, "server_url")
	}
	if cfg.Email == "" {
		missing = append(missing, "email")
	}
	if cfg.Board == "" {
		missing = append(missing, "board")
	}
	if len(missing) > 0 {
		return nil, errors.NewConfigError("load", fmt.Errorf("missing %s; run: lexboard setup", strings.Join(missing, ", ")))
	}
	if cfg.APIToken == "" {
		return nil, errors.NewAuthTokenError()
	}

	return &cfg, nil
}

func runBoard(cmd *cobra.Command, args []string) {
	cfg, err := loadBoardConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := StartBoard(cfg); err != nil {
		log.Fatalf("Board failed: %v", err)
	}
}

// normalizeCardNumber canonicalizes a typed display number: trimmed,
// uppercased, internal whitespace collapsed to single dashes. Empty stays
// empty (the number is optional).
func normalizeCardNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	reg := regexp.MustCompile(`\s+`)
	number = reg.ReplaceAllString(number, "-")
	return strings.ToUpper(number)
}

func runAdd(cmd *cobra.Command, args []string) {
	cfg, err := loadBoardConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	title := strings.TrimSpace(args[0])
	if title == "" {
		log.Fatal("Title cannot be empty")
	}

	client := boardapi.NewClient(cfg.ServerURL, cfg.Email, cfg.APIToken, cfg.Board)

	ctx, cancel := context.WithTimeout(context.Background(), httputil.DefaultTimeout)
	defer cancel()

	// Fetch the board to resolve the target column by title.
	b, err := client.FetchBoard(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch board: %v", err)
	}
	if len(b.Columns) == 0 {
		log.Fatal("The board has no columns yet. Open lexboard and press N to create one.")
	}

	column := b.Columns[0]
	if addColumnFlag != "" {
		found := false
		for _, c := range b.Columns {
			if strings.EqualFold(c.Title, addColumnFlag) {
				column = c
				found = true
				break
			}
		}
		if !found {
			available := make([]string, 0, len(b.Columns))
			for _, c := range b.Columns {
				available = append(available, c.Title)
			}
			log.Fatal(errors.NewInvalidColumnError(addColumnFlag, available))
		}
	}

	draft := board.CardDraft{
		Title:  title,
		Number: normalizeCardNumber(addNumberFlag),
		Body:   strings.TrimSpace(addBodyFlag),
	}

	created, err := client.CreateCard(ctx, column.ID, draft)
	if err != nil {
		log.Fatalf("Failed to create card: %v", err)
	}

	if draft.Number != "" {
		fmt.Printf("Created %s (%s) in %s\n", draft.Number, created.ID, column.Title)
	} else {
		fmt.Printf("Created %s in %s\n", created.ID, column.Title)
	}
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Lexboard Setup Wizard")
	fmt.Println("=====================")

	// Work from the file config, not the runtime config: environment overlays
	// (in particular the API token) must never be written back to disk.
	fileConfig, loadErr := usercfg.Load()
	if loadErr != nil && loadErr != usercfg.ErrNotConfigured {
		fmt.Printf("Warning: %v\n", loadErr)
	}
	newConfig := fileConfig
	isFirstRun := loadErr == usercfg.ErrNotConfigured

	if isFirstRun {
		fmt.Println("Welcome! Let's connect Lexboard to your practice management server.")
		fmt.Println()
	} else {
		fmt.Printf("Existing config found at %s — modifying.\n\n", usercfg.Path())
		fmt.Printf("  Server URL: %s\n", fileConfig.ServerURL)
		fmt.Printf("  Email: %s\n", fileConfig.Email)
		fmt.Printf("  Board: %s\n", fileConfig.Board)
		fmt.Printf("  Poll interval: %ds\n", fileConfig.PollSeconds)
		fmt.Println()
	}

	// Server URL
	var serverURL string
	if err := survey.AskOne(&survey.Input{
		Message: "Server URL (e.g. https://practice.yourfirm.example):",
		Default: fileConfig.ServerURL,
	}, &serverURL, survey.WithValidator(survey.Required)); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		fmt.Println("Server URL must start with http:// or https://")
		return
	}
	newConfig.ServerURL = serverURL

	// Account email
	var email string
	if err := survey.AskOne(&survey.Input{
		Message: "Account email:",
		Default: fileConfig.Email,
	}, &email, survey.WithValidator(survey.Required)); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.Email = strings.TrimSpace(email)

	// API token: the environment wins and is never persisted; otherwise prompt
	// and store it in the config file.
	authToken := os.Getenv("LEXBOARD_API_TOKEN")
	if authToken != "" {
		fmt.Println("Using API token from LEXBOARD_API_TOKEN (it stays out of the config file).")
	} else {
		prompt := &survey.Password{Message: "API token:"}
		var tokenInput string
		if fileConfig.APIToken != "" {
			prompt.Message = "API token (leave empty to keep the saved one):"
			if err := survey.AskOne(prompt, &tokenInput); err != nil {
				fmt.Println("Setup cancelled")
				return
			}
		} else {
			if err := survey.AskOne(prompt, &tokenInput, survey.WithValidator(survey.Required)); err != nil {
				fmt.Println("Setup cancelled")
				return
			}
		}
		if tokenInput = strings.TrimSpace(tokenInput); tokenInput != "" {
			newConfig.APIToken = tokenInput
		}
		authToken = newConfig.APIToken
	}

	// Board selection — list boards from the server so the key is verified.
	fmt.Println("\nConnecting to the server...")
	client := boardapi.NewClient(newConfig.ServerURL, newConfig.Email, authToken, "")
	ctx, cancel := context.WithTimeout(context.Background(), httputil.DefaultTimeout)
	boards, err := client.ListBoards(ctx)
	cancel()

	switch {
	case err != nil:
		fmt.Printf("Warning: could not list boards: %v\n", err)
		fmt.Println("Enter the board key manually; it will be checked on first use.")
		var boardKey string
		if err := survey.AskOne(&survey.Input{
			Message: "Board key:",
			Default: fileConfig.Board,
		}, &boardKey, survey.WithValidator(survey.Required)); err != nil {
			fmt.Println("Setup cancelled")
			return
		}
		newConfig.Board = strings.ToUpper(strings.TrimSpace(boardKey))
	case len(boards) == 0:
		fmt.Println("No boards are visible to this account. Create one on the server first.")
		return
	default:
		options := make([]string, 0, len(boards))
		byOption := make(map[string]string, len(boards))
		var defaultOption string
		for _, b := range boards {
			option := fmt.Sprintf("%s — %s", b.Key, b.Name)
			options = append(options, option)
			byOption[option] = b.Key
			if b.Key == fileConfig.Board {
				defaultOption = option
			}
		}
		sel := &survey.Select{
			Message: "Select your board:",
			Options: options,
		}
		if defaultOption != "" {
			sel.Default = defaultOption
		}
		var selected string
		if err := survey.AskOne(sel, &selected); err != nil {
			fmt.Println("Setup cancelled")
			return
		}
		newConfig.Board = byOption[selected]
	}

	// Poll interval
	pollDefault := newConfig.PollSeconds
	if pollDefault <= 0 {
		pollDefault = usercfg.DefaultPollSeconds
	}
	var pollInput string
	if err := survey.AskOne(&survey.Input{
		Message: "Poll interval in seconds:",
		Default: strconv.Itoa(pollDefault),
	}, &pollInput); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(pollInput)); err == nil && seconds > 0 {
		newConfig.PollSeconds = seconds
	}

	if isFirstRun {
		newConfig.UIPrefs.FuzzySearch = true
		newConfig.UIPrefs.ShowCardNumbers = true
	}

	newConfig.SchemaVersion = usercfg.CurrentSchemaVersion
	if err := usercfg.Save(newConfig); err != nil {
		log.Fatalf("Failed to save configuration: %v", err)
	}

	fmt.Printf("\nConfiguration saved to: %s\n", usercfg.Path())
	fmt.Println("\nFinal configuration:")
	fmt.Printf("  Server URL: %s\n", newConfig.ServerURL)
	fmt.Printf("  Email: %s\n", newConfig.Email)
	fmt.Printf("  Board: %s\n", newConfig.Board)
	fmt.Printf("  Poll interval: %ds\n", newConfig.PollSeconds)
	fmt.Println("\nRun: lexboard")
}

func runConfigMigrate(cmd *cobra.Command, args []string) {
	err := usercfg.MigrateAndSave()
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Println(usercfg.Path())
}

func runConfigPrint(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()

	tokenState := "(not set)"
	if config.APIToken != "" {
		tokenState = "(set)"
	}

	fmt.Printf("Configuration (effective):\n")
	fmt.Printf("  Schema Version: %d\n", config.SchemaVersion)
	fmt.Printf("  Server URL: %s\n", config.ServerURL)
	fmt.Printf("  Email: %s\n", config.Email)
	fmt.Printf("  API Token: %s\n", tokenState)
	fmt.Printf("  Board: %s\n", config.Board)
	fmt.Printf("  Poll Interval: %ds\n", config.PollSeconds)
	fmt.Printf("  Abandon Cycles: %d\n", config.AbandonCycles)
	fmt.Printf("  UI Preferences: %+v\n", config.UIPrefs)
	fmt.Printf("\nConfig file location: %s\n", usercfg.Path())
}

func runConfigGet(cmd *cobra.Command, args []string) {
	key := args[0]
	config := usercfg.GetRuntimeConfig()

	switch key {
	case "server_url":
		fmt.Println(config.ServerURL)
	case "email":
		fmt.Println(config.Email)
	case "board":
		fmt.Println(config.Board)
	case "poll_seconds":
		fmt.Println(config.PollSeconds)
	case "abandon_cycles":
		fmt.Println(config.AbandonCycles)
	case "schema_version":
		fmt.Println(config.SchemaVersion)
	case "api_token":
		fmt.Println("The API token is never printed. Check LEXBOARD_API_TOKEN or the config file permissions.")
		os.Exit(1)
	default:
		fmt.Printf("Unknown key: %s\n", key)
		fmt.Println("Available keys: server_url, email, board, poll_seconds, abandon_cycles, schema_version")
		os.Exit(1)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) {
	key := args[0]
	value := args[1]

	// Load current config
	config, err := usercfg.Load()
	if err != nil && err != usercfg.ErrNotConfigured {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Validate and set the value
	switch key {
	case "server_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			fmt.Printf("Invalid server URL: %s (must start with http:// or https://)\n", value)
			os.Exit(1)
		}
		config.ServerURL = strings.TrimRight(value, "/")

	case "email":
		if !strings.Contains(value, "@") {
			fmt.Printf("Invalid email: %s\n", value)
			os.Exit(1)
		}
		config.Email = value

	case "board":
		if strings.TrimSpace(value) == "" {
			fmt.Println("Board key cannot be empty")
			os.Exit(1)
		}
		config.Board = strings.ToUpper(strings.TrimSpace(value))

	case "poll_seconds":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			fmt.Printf("Invalid poll_seconds: %s (must be a positive integer)\n", value)
			os.Exit(1)
		}
		if seconds < usercfg.MinPollSeconds {
			fmt.Printf("Note: values below %d are clamped at runtime.\n", usercfg.MinPollSeconds)
		}
		config.PollSeconds = seconds

	case "abandon_cycles":
		cycles, err := strconv.Atoi(value)
		if err != nil || cycles <= 0 {
			fmt.Printf("Invalid abandon_cycles: %s (must be a positive integer)\n", value)
			os.Exit(1)
		}
		config.AbandonCycles = cycles

	case "api_token":
		fmt.Println("The API token cannot be set via 'config set'. Use 'lexboard setup' or the LEXBOARD_API_TOKEN environment variable.")
		os.Exit(1)

	case "schema_version":
		fmt.Println("Key 'schema_version' is managed by 'lexboard config migrate'.")
		os.Exit(1)

	default:
		fmt.Printf("Unknown key: %s\n", key)
		fmt.Println("Settable keys: server_url, email, board, poll_seconds, abandon_cycles")
		os.Exit(1)
	}

	// Save the updated config
	err = usercfg.Save(config)
	if err != nil {
		fmt.Printf("Failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

func runConfigDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("🏥 Lexboard Configuration Doctor")
	fmt.Println("================================")

	issues := 0

	// Check if config file exists
	configPath := usercfg.Path()
	legacyPath := usercfg.LegacyPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
			fmt.Println("ℹ️  No config file found - using defaults and environment variables")
			fmt.Printf("   Create one with: lexboard setup\n")
		} else {
			fmt.Println("⚠️  Using legacy config path")
			fmt.Printf("   Consider migrating: lexboard config migrate\n")
			fmt.Printf("   Legacy path: %s\n", legacyPath)
			fmt.Printf("   Preferred path: %s\n", configPath)
			issues++
		}
	} else {
		fmt.Println("✅ Config file found at XDG-compliant location")
	}

	// Load and validate config
	config := usercfg.GetRuntimeConfig()

	// Check schema version
	if config.SchemaVersion < usercfg.CurrentSchemaVersion {
		fmt.Printf("⚠️  Config schema is outdated (v%d, current: v%d)\n", config.SchemaVersion, usercfg.CurrentSchemaVersion)
		fmt.Println("   Run: lexboard config migrate")
		issues++
	} else {
		fmt.Printf("✅ Config schema is current (v%d)\n", config.SchemaVersion)
	}

	// Check server URL
	if config.ServerURL == "" {
		fmt.Println("⚠️  Server URL not configured")
		fmt.Println("   Run: lexboard setup")
		issues++
	} else if !strings.HasPrefix(config.ServerURL, "http://") && !strings.HasPrefix(config.ServerURL, "https://") {
		fmt.Printf("⚠️  Invalid server URL format: %s\n", config.ServerURL)
		fmt.Println("   Must start with http:// or https://")
		issues++
	} else {
		fmt.Printf("✅ Server URL configured: %s\n", config.ServerURL)
	}

	// Check account email
	if config.Email == "" {
		fmt.Println("⚠️  Account email not configured")
		fmt.Println("   Run: lexboard setup")
		issues++
	} else if !strings.Contains(config.Email, "@") {
		fmt.Printf("⚠️  Account email looks invalid: %s\n", config.Email)
		issues++
	} else {
		fmt.Printf("✅ Account email configured: %s\n", config.Email)
	}

	// Check API token (file or environment)
	switch {
	case os.Getenv("LEXBOARD_API_TOKEN") != "":
		fmt.Println("✅ API token supplied via LEXBOARD_API_TOKEN")
	case config.APIToken != "":
		fmt.Println("✅ API token present in config file")
	default:
		fmt.Println("⚠️  No API token found")
		fmt.Println("   Run: lexboard setup, or set LEXBOARD_API_TOKEN")
		issues++
	}

	// Check board key
	if config.Board == "" {
		fmt.Println("⚠️  No board configured")
		fmt.Println("   Run: lexboard setup")
		issues++
	} else {
		fmt.Printf("✅ Board configured: %s\n", config.Board)
	}

	// Check poll cadence
	if config.PollSeconds < usercfg.MinPollSeconds {
		fmt.Printf("⚠️  Poll interval %ds is below the minimum; it will run at %ds\n", config.PollSeconds, usercfg.MinPollSeconds)
		issues++
	} else {
		fmt.Printf("✅ Poll interval: %ds\n", config.PollSeconds)
	}

	fmt.Println()
	if issues == 0 {
		fmt.Println("🎉 No issues found! Configuration looks healthy.")
	} else {
		fmt.Printf("Found %d issue(s). See suggestions above.\n", issues)
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println(version.GetVersionString())

	// Check for available updates (synchronous since user is asking about version)
	ch := version.StartUpdateCheck()
	select {
	case result := <-ch:
		if result.NewVersion != "" {
			fmt.Printf("\n\033[33mUpdate available: %s (current: %s)\033[0m\n", result.NewVersion, version.GetShortVersion())
			fmt.Println("\033[33mRun 'lexboard update' to upgrade.\033[0m")
		}
	case <-time.After(5 * time.Second):
		// Don't block forever if GitHub is slow
	}
}

func runUpdate(cmd *cobra.Command, args []string) {
	current := version.GetShortVersion()
	if current == "dev" {
		fmt.Println("Cannot self-update a dev build. Install a released version first.")
		return
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		fmt.Printf("Failed to create update source: %v\n", err)
		return
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
	if err != nil {
		fmt.Printf("Failed to create updater: %v\n", err)
		return
	}

	fmt.Printf("Current version: %s\nChecking for updates...\n", current)

	latest, found, err := updater.DetectLatest(context.Background(), selfupdate.ParseSlug("lexhq/lexboard"))
	if err != nil {
		fmt.Printf("Update check failed: %v\n", err)
		return
	}
	if !found {
		fmt.Println("No release found for your OS/architecture.")
		return
	}

	if latest.LessOrEqual(current) {
		fmt.Println("Already up to date.")
		return
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		fmt.Printf("Could not locate executable: %v\n", err)
		return
	}

	if err := updater.UpdateTo(context.Background(), latest, exe); err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return
	}

	fmt.Printf("Updated to %s\n", latest.Version())
}
