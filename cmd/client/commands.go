package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyiyo/signspeak/internal/core/lessons"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/orchestrator"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		msg, err := a.ai.Health(cmd.Context())
		if err != nil {
			return err
		}
		a.printf("%s (%s)\n", msg, a.cfg.BackendURL)
		return nil
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Show how to sign a phrase; without text, listen on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		hd, _ := cmd.Flags().GetBool("hd")
		listen, _ := cmd.Flags().GetDuration("listen")

		if err := a.router.Switch(ctx, model.ModeDeaf); err != nil {
			return err
		}
		a.deaf.SetHD(hd)
		stop := watchLoading(ctx, a.deaf)
		defer stop()

		text := strings.Join(args, " ")
		var err error
		if text == "" {
			a.printf("Listening for %s, type what you say...\n", listen)
			if err := a.deaf.StartListening(ctx); err != nil {
				return err
			}
			select {
			case <-time.After(listen):
			case <-ctx.Done():
			}
			err = a.deaf.StopListening(ctx)
		} else {
			err = a.deaf.Submit(ctx, text)
		}
		if err != nil {
			return err
		}

		st := a.deaf.State()
		if st.MediaStatus == orchestrator.MediaSetupRequired {
			a.printf("%s\n", st.Err)
			if err := a.deaf.ConfirmKeySetup(ctx); err != nil {
				a.printf("Continuing without HD video: %v\n", err)
			}
			st = a.deaf.State()
		}
		printDeaf(st)
		return nil
	},
}

// watchLoading prints the rotating HD status while a video is generating.
func watchLoading(ctx context.Context, d *orchestrator.DeafController) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		last := ""
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if s := d.LoadingStatus(); s != "" && s != last {
					a.printf("… %s\n", s)
					last = s
				}
			}
		}
	}()
	return cancel
}

func printDeaf(st orchestrator.DeafState) {
	if st.Input == "" {
		a.printf("Nothing heard.\n")
		return
	}
	a.printf("%s  %s\n", st.Icon, st.Input)
	if st.Description != "" {
		a.printf("\n%s\n", strings.TrimSpace(st.Description))
	}
	switch {
	case st.Media != nil:
		a.printf("\n%s: %s\n", st.Media.Type, preview(st.Media.URL))
	case st.MediaStatus == orchestrator.MediaEmpty:
		a.printf("\nNo illustration for this phrase.\n")
	case st.Err != "":
		a.printf("\n%s\n", st.Err)
	}
}

// preview shortens data URIs, which can be megabytes long.
func preview(u string) string {
	if strings.HasPrefix(u, "data:") && len(u) > 64 {
		return u[:48] + fmt.Sprintf("... (%d bytes)", len(u))
	}
	return u
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Recognize signs from the camera and speak them",
}

func muteRun(sentence bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		gender, _ := cmd.Flags().GetString("gender")
		if err := a.router.Switch(ctx, model.ModeMute); err != nil {
			return err
		}
		a.mute.SetVoiceGender(model.Gender(gender))

		var text string
		var err error
		if sentence {
			last := -1
			a.mute.OnChange(func(s orchestrator.MuteState) {
				if p := int(s.Progress) / 20; s.Phase == orchestrator.MuteRecording && p != last {
					last = p
					a.printf("recording %3.0f%%\n", s.Progress)
				}
			})
			text, err = a.mute.CaptureSentence(ctx)
		} else {
			text, err = a.mute.CaptureWord(ctx)
		}
		if err != nil {
			return err
		}
		a.printf("%s\n", text)
		return nil
	}
}

var signWordCmd = &cobra.Command{
	Use:   "word",
	Short: "Recognize a single sign from one snapshot",
	RunE:  muteRun(false),
}

var signSentenceCmd = &cobra.Command{
	Use:   "sentence",
	Short: "Record a three second burst and recognize the sentence",
	RunE:  muteRun(true),
}

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Practice sign lessons",
}

var learnListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lessons for the current language",
	RunE: func(*cobra.Command, []string) error {
		lang := a.session.Language()
		txt := lessons.Text(lang)
		a.printf("%s\n%s\n\n", txt.Title, txt.Sub)
		for _, l := range lessons.For(lang) {
			a.printf("%s. %-24s [%s] %s\n", l.ID, l.Title, l.Category, l.Description)
		}
		return nil
	},
}

var learnPracticeCmd = &cobra.Command{
	Use:   "practice <lesson-id>",
	Short: "Show a lesson, then grade one attempt from the camera",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.router.Switch(ctx, model.ModeLearning); err != nil {
			return err
		}
		if err := a.learning.SelectLesson(ctx, args[0]); err != nil {
			return err
		}
		a.learning.Wait()
		st := a.learning.State()
		a.printf("%s: %s\n", st.Lesson.Title, st.Lesson.Description)
		if st.Image != "" {
			a.printf("illustration: %s\n", preview(st.Image))
		}
		if err := a.learning.StartPractice(ctx); err != nil {
			return err
		}
		a.printf("%s\n", st.Text.Analyzing)
		ev, err := a.learning.Check(ctx)
		if err != nil {
			return err
		}
		verdict := st.Text.TryAgain
		if ev.Correct {
			verdict = st.Text.Perfect
		}
		a.printf("%s %s\n", verdict, ev.Feedback)
		return nil
	},
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage your custom signs",
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved custom signs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := a.router.Switch(ctx, model.ModeVault); err != nil {
			return err
		}
		signs, err := a.vault.Signs(ctx)
		if err != nil {
			return err
		}
		if len(signs) == 0 {
			a.printf("No custom signs yet.\n")
		}
		for _, s := range signs {
			a.printf("%s  %-20s %s\n", s.ID, s.Label, time.UnixMilli(s.Timestamp).Format(time.DateTime))
		}
		return nil
	},
}

var vaultAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Capture a still from the camera and save it under label",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.router.Switch(ctx, model.ModeVault); err != nil {
			return err
		}
		a.vault.StartAdding()
		if err := a.vault.StartCamera(ctx); err != nil {
			return err
		}
		if err := a.vault.Capture(); err != nil {
			return err
		}
		a.vault.SetLabel(strings.Join(args, " "))
		s, err := a.vault.Save(ctx)
		if err != nil {
			return err
		}
		a.printf("saved %q as %s\n", s.Label, s.ID)
		return nil
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom sign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.router.Switch(ctx, model.ModeVault); err != nil {
			return err
		}
		return a.vault.Delete(ctx, args[0])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent translations, newest first",
	RunE: func(*cobra.Command, []string) error {
		h := a.session.History()
		if len(h) == 0 {
			a.printf("No history yet.\n")
		}
		for _, e := range h {
			a.printf("%s  %-8s %s → %s\n", time.UnixMilli(e.Timestamp).Format(time.DateTime), e.Mode, e.Input, e.Output)
		}
		return nil
	},
}

func authRun(signup bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		auth := a.session.Login
		if signup {
			auth = a.session.Signup
		}
		u, err := auth(cmd.Context(), name, args[0])
		if err != nil {
			return err
		}
		a.printf("Signed in as %s <%s>\n", u.Name, u.Email)
		return nil
	}
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in",
	Args:  cobra.ExactArgs(1),
	RunE:  authRun(false),
}

var signupCmd = &cobra.Command{
	Use:   "signup <email> --name <name>",
	Short: "Create a profile and sign in",
	Args:  cobra.ExactArgs(1),
	RunE:  authRun(true),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out; the vault falls back to the guest collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return a.session.Logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and language",
	RunE: func(*cobra.Command, []string) error {
		snap := a.session.Snapshot()
		if snap.User == nil {
			a.printf("guest (%s)\n", snap.Language.Name())
			return nil
		}
		a.printf("%s <%s> (%s)\n", snap.User.Name, snap.User.Email, snap.Language.Name())
		return nil
	},
}

var errUnknownGender = errors.New("gender must be female or male")

func init() {
	translateCmd.Flags().Bool("hd", false, "generate an HD video instead of an illustration")
	translateCmd.Flags().Duration("listen", 10*time.Second, "how long to listen when no text is given")

	for _, c := range []*cobra.Command{signWordCmd, signSentenceCmd} {
		c.Flags().String("gender", string(model.Female), "voice gender: female or male")
		c.PreRunE = func(cmd *cobra.Command, _ []string) error {
			g, _ := cmd.Flags().GetString("gender")
			if g != string(model.Female) && g != string(model.Male) {
				return errUnknownGender
			}
			return nil
		}
	}
	signCmd.AddCommand(signWordCmd, signSentenceCmd)
	learnCmd.AddCommand(learnListCmd, learnPracticeCmd)
	vaultCmd.AddCommand(vaultListCmd, vaultAddCmd, vaultDeleteCmd)
	signupCmd.Flags().String("name", "", "display name")
	loginCmd.Flags().String("name", "", "display name")
}
