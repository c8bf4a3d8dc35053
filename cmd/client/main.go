package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/config"
	"github.com/steveyiyo/signspeak/internal/core/instant"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/orchestrator"
	"github.com/steveyiyo/signspeak/internal/repo"
	"github.com/steveyiyo/signspeak/internal/repo/memory"
	"github.com/steveyiyo/signspeak/internal/repo/sqlite"
	"github.com/steveyiyo/signspeak/internal/session"
	"github.com/steveyiyo/signspeak/internal/speech"
	"github.com/steveyiyo/signspeak/internal/speech/openai"
)

// app holds everything a command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	cfg     config.ClientConfig
	log     *slog.Logger
	out     io.Writer
	store   repo.Store
	closeDB func() error
	session *session.State
	ai      *aiclient.Client
	prompt  *keyPrompt
	bridge  *speech.Bridge
	camera  *media.Controller

	deaf     *orchestrator.DeafController
	mute     *orchestrator.MuteController
	learning *orchestrator.LearningController
	vault    *orchestrator.VaultController
	router   *orchestrator.Router
}

type flags struct {
	backend   string
	language  string
	db        string
	ephemeral bool
	logLevel  string
	voice     string
	frames    string
	stream    bool
}

var (
	opts flags
	a    *app
)

var rootCmd = &cobra.Command{
	Use:   "signspeak",
	Short: "Sign language assistant: translate speech to signs and signs to speech",
	Long: `signspeak is a terminal host for the sign language assistant. It talks to
the signspeak backend for generation and recognition and keeps the profile,
history and custom sign vault in a local database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		a, err = newApp(cmd.Context(), opts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.backend, "backend", "", "backend base URL")
	pf.StringVarP(&opts.language, "language", "l", "", "language tag (en-US, en-GB, hi-IN, mr-IN)")
	pf.StringVar(&opts.db, "db", "", "state database path")
	pf.BoolVar(&opts.ephemeral, "ephemeral", false, "keep state in memory only")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&opts.voice, "voice", "console", "speech output: console or openai")
	pf.StringVar(&opts.frames, "frames", "", "directory of still images used as the camera")
	pf.BoolVar(&opts.stream, "stream", false, "upload sentence bursts over the websocket endpoint")

	rootCmd.AddCommand(healthCmd, translateCmd, signCmd, learnCmd, vaultCmd, historyCmd,
		loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

func newApp(ctx context.Context, f flags, out io.Writer) (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if f.backend != "" {
		cfg.BackendURL = f.backend
	}
	if f.db != "" {
		cfg.DBPath = f.db
	}
	if f.language != "" {
		cfg.Language = f.language
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	log, _ := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})

	a := &app{cfg: cfg, log: log, out: out}
	if f.ephemeral {
		a.store = memory.NewKV()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
			return nil, fmt.Errorf("state dir: %w", err)
		}
		db, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.store, a.closeDB = db, db.Close
	}

	a.session = session.New(a.store, log)
	if err := a.session.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	lang, err := model.ParseLanguage(cfg.Language)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.session.SetLanguage(lang); err != nil {
		a.close()
		return nil, err
	}

	a.ai = aiclient.New(aiclient.Options{
		BaseURL:      cfg.BackendURL,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
		StreamBursts: f.stream,
		Logger:       log,
	})
	a.prompt = newKeyPrompt(os.Stdin, out, a.ai)

	var syn speech.Synthesizer = speech.ConsoleSynthesizer{W: out}
	if f.voice == "openai" {
		if cfg.OpenAIAPIKey == "" {
			a.close()
			return nil, fmt.Errorf("--voice openai needs OPENAI_API_KEY")
		}
		syn = openai.New(cfg.OpenAIAPIKey, cfg.AudioDir, log)
	}
	a.bridge = speech.NewBridge(speech.NewLineRecognizer(a.prompt.in), syn, log)

	var device media.Device
	if f.frames != "" {
		device = media.DirDevice{Dir: f.frames}
	}
	a.camera = media.NewController(device, nil, log)

	a.deaf = orchestrator.NewDeaf(a.session, a.ai, a.bridge, a.prompt, instant.New(nil), log)
	a.mute = orchestrator.NewMute(a.session, a.camera, a.ai, a.bridge, log)
	a.learning = orchestrator.NewLearning(a.session, a.camera, a.ai, log)
	a.vault = orchestrator.NewVault(a.session, a.store, a.camera, log)
	a.router = orchestrator.NewRouter(a.session, log, a.deaf, a.mute, a.learning, a.vault)
	return a, nil
}

func (a *app) close() {
	if a.router != nil {
		a.router.Close()
	}
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.log.Warn("close state db", "err", err)
		}
		a.closeDB = nil
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func main() {
	_ = godotenv.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	if a != nil {
		a.close()
	}
	if err != nil {
		os.Exit(1)
	}
}
