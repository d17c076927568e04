package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/profileform"
	"github.com/janisto/profile-sync/internal/profilestate"
	"github.com/janisto/profile-sync/internal/service/profile"
)

func newShowCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model := profilestate.New(a.session)
			load := model.Load
			if refresh {
				load = model.Refresh
			}
			if err := load(cmd.Context()); err != nil {
				a.printView(model.View())
				return err
			}
			a.printView(model.View())
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refresh instead of an initial load")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	values := map[profileform.Field]*string{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your name, phone and addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			model := profilestate.New(a.session)
			if err := model.Load(ctx); err != nil {
				a.printView(model.View())
				return err
			}

			form := profileform.New(*model.Snapshot(), a.session)
			for _, f := range profileform.AllFields {
				v, ok := values[f]
				if !ok || !cmd.Flags().Changed(flagName(f)) {
					continue
				}
				if err := form.Set(f, *v); err != nil {
					return err
				}
			}
			if !form.IsDirty() {
				a.printf("No changes.\n")
				return nil
			}

			updated, err := form.Commit(ctx)
			if err != nil {
				var verr *profileform.ValidationError
				if errors.As(err, &verr) {
					a.printf("%s\n", profileform.MessageFixErrors)
					a.printIssues(verr.Result)
					return err
				}
				a.printf("%s\n", profileform.MessageUpdateFailed)
				return err
			}
			a.printf("%s\n", profileform.MessageSaved)

			// Silent reload, as on returning to the profile screen. If it fails
			// the model still holds the pre-edit profile, so show the saved one.
			if err := model.Reload(ctx); err != nil {
				applog.LoggerFromContext(ctx).Debug("reload after save failed", zap.Error(err))
				a.printSnapshot(updated)
				return nil
			}
			a.printView(model.View())
			return nil
		},
	}
	for _, f := range []profileform.Field{
		profileform.FieldFullName,
		profileform.FieldPhone,
		profileform.FieldAddress1,
		profileform.FieldAddress2,
	} {
		values[f] = cmd.Flags().String(flagName(f), "", fmt.Sprintf("new %s", f))
	}
	return cmd
}

func flagName(f profileform.Field) string {
	if f == profileform.FieldFullName {
		return "full-name"
	}
	return string(f)
}

func newAvatarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <file>",
		Short: "Replace your profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			model := profilestate.New(a.session)
			url, err := model.ReplaceAvatar(cmd.Context(), profile.Image{
				Data:        data,
				ContentType: mime.TypeByExtension(filepath.Ext(args[0])),
			})
			if err != nil {
				a.printf("%s\n", profilestate.Message(err))
				return err
			}
			a.printf("%s\n%s\n", profilestate.MessageAvatarUpdated, displayURL(url))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.session != nil {
				profilestate.New(a.session).Logout(cmd.Context())
			}
			if a.file.Token != "" {
				a.file.Token = ""
				if err := saveFileConfig(a.configPath, a.file); err != nil {
					return err
				}
			}
			a.printf("%s\n", profilestate.MessageLoggedOut)
			return nil
		},
	}
}

func (a *app) printIssues(result profileform.ValidationResult) {
	for _, f := range profileform.AllFields {
		if issue, ok := result[f]; ok {
			a.printf("  %s: %s\n", f, issue.Message)
		}
	}
}

func (a *app) printView(v profilestate.View) {
	if v.Message != "" {
		a.printf("%s\n", v.Message)
	}
	a.printSnapshot(v.Snapshot)
}

func (a *app) printSnapshot(s *profile.Snapshot) {
	if s == nil {
		return
	}
	a.printf("Name:      %s\n", s.FullName)
	a.printf("Email:     %s\n", s.Email)
	a.printf("Phone:     %s\n", s.Phone)
	a.printf("Address 1: %s\n", s.Address1)
	a.printf("Address 2: %s\n", s.Address2)
	if s.HasAvatar() {
		a.printf("Avatar:    %s\n", displayURL(s.AvatarURL))
	}
	if !s.UpdatedAt.IsZero() {
		a.printf("Updated:   %s\n", s.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
}

// displayURL shortens inline data URLs from offline mode.
func displayURL(url string) string {
	if !strings.HasPrefix(url, "data:") {
		return url
	}
	header, _, _ := strings.Cut(url, ",")
	return fmt.Sprintf("%s,... (%d bytes)", header, len(url))
}
