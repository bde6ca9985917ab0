package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/smaragdas/softskills/internal/evaluator"
	"github.com/smaragdas/softskills/internal/handler"
	appI18n "github.com/smaragdas/softskills/internal/i18n"
	"github.com/smaragdas/softskills/internal/llm"
	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
	"github.com/smaragdas/softskills/internal/store"
	"github.com/smaragdas/softskills/internal/studytoken"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "softskills",
		Short: "Soft-skill answer scoring and rater reliability service",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), tokenCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `softskills --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scoring server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "softskills.db", "SQLite database path")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Bool("no-llm", false, "Disable the LLM critic and planner (signal-only scoring)")
	f.StringP("lang", "l", "en", "Feedback language (en, el)")
	f.String("api-key", "", "API key required on scoring endpoints (empty disables the gate)")
	f.Float64("human-weight", scoring.DefaultHumanWeight, "Weight of the human average in the final score (0-1)")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (repeatable)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set SOFTSKILLS_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the auto/human agreement report as CSV",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "softskills.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint or verify anonymous participant tokens",
		RunE:  runToken,
	}
	f := cmd.Flags()
	f.String("secret", "", "HMAC secret for signing tokens (required)")
	f.IntP("count", "n", 1, "Number of tokens to mint")
	f.String("verify", "", "Verify this token instead of minting")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SOFTSKILLS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("softskills")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/softskills")
	v.AddConfigPath("/etc/softskills")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// weightTable reads per-category fusion weight overrides from the config
// file, e.g. weights.teamwork.mcq / weights.teamwork.text.
func weightTable(v *viper.Viper) (scoring.WeightTable, error) {
	if !v.IsSet("weights") {
		return nil, nil
	}
	raw := map[string]scoring.Weights{}
	if err := v.UnmarshalKey("weights", &raw); err != nil {
		return nil, fmt.Errorf("parse weights: %w", err)
	}
	table := make(scoring.WeightTable, len(raw))
	for cat, w := range raw {
		table[scoring.NormalizeCategory(cat)] = w
	}
	return table, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("cleanup expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var critic evaluator.Critic
	var planner evaluator.Planner
	if v.GetBool("no-llm") {
		slog.Info("LLM disabled, scoring from provided signals only")
	} else {
		llmClient := llm.New(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
		)
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", llmClient.ModelName())
		critic = llmClient
		planner = llmClient
	}

	weights, err := weightTable(v)
	if err != nil {
		return err
	}

	eval := evaluator.New(db, critic, planner, weights, v.GetFloat64("human-weight"))

	h := handler.New(db, eval, handler.Config{
		APIKey:        v.GetString("api-key"),
		SecureCookies: v.GetBool("secure-cookies"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if origins := v.GetStringSlice("cors-origins"); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"llm", !v.GetBool("no-llm"),
		"human_weight", v.GetFloat64("human-weight"),
		"api_key_gate", v.GetString("api-key") != "",
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, raters, err := db.AgreementReport()
	if err != nil {
		return fmt.Errorf("agreement report: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	// BOM so spreadsheet apps detect UTF-8.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := handler.WriteAgreementCSV(w, rows, raters); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	slog.Info("exported agreement report", "rows", len(rows), "raters", len(raters), "output", outPath)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	secret := []byte(v.GetString("secret"))
	if len(secret) == 0 {
		return fmt.Errorf("token secret is required: set --secret flag or SOFTSKILLS_SECRET env var")
	}

	if token := v.GetString("verify"); token != "" {
		id, err := studytoken.Verify(secret, token)
		if err != nil {
			return err
		}
		fmt.Printf("valid token, participant %s\n", id)
		return nil
	}

	count := v.GetInt("count")
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		fmt.Println(studytoken.Mint(secret))
	}
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or SOFTSKILLS_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
