package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docbridge/internal/bootstrap"
	"docbridge/internal/client"
	"docbridge/internal/settings"
)

// Status is a point-in-time report of the managed backend.
type Status struct {
	Enabled          bool
	Environment      []string
	InstalledVersion string
	MinimumVersion   string
	InstallBehavior  string
	UpdateBehavior   string
	UpdateFrequency  string
	LastUpdateCheck  time.Time
	ClientState      client.State
}

// Status inspects the current environment and backend installation without
// changing anything.
func (a *Application) Status(ctx context.Context) (Status, error) {
	cfg := a.services.Settings()
	st := Status{
		Enabled:         cfg.Enabled,
		MinimumVersion:  MinimumBackendVersion,
		InstallBehavior: cfg.Server.InstallBehavior,
		UpdateBehavior:  cfg.Server.UpdateBehavior,
		UpdateFrequency: cfg.Server.UpdateFrequency,
		LastUpdateCheck: a.services.State.LastUpdate(),
		ClientState:     a.services.Manager.State(),
	}

	env, err := a.services.Resolver().Resolve(ctx, "")
	if err != nil {
		return st, err
	}
	st.Environment = env

	v, err := bootstrap.ProbeVersion(ctx, a.services.Runner, env, cfg.Server.PackageName)
	if err != nil {
		if errors.Is(err, bootstrap.ErrNotInstalled) {
			return st, nil
		}
		return st, err
	}
	st.InstalledVersion = v.String()
	return st, nil
}

// InstallServer installs the backend package into the resolved environment.
func (a *Application) InstallServer(ctx context.Context) error {
	return a.runPip(ctx, func(i *bootstrap.Installer, pkg string) error {
		env, err := a.services.Resolver().Resolve(ctx, "")
		if err != nil {
			return err
		}
		return i.Install(ctx, env, pkg)
	})
}

// UpdateServer updates the backend package in the resolved environment.
func (a *Application) UpdateServer(ctx context.Context) error {
	return a.runPip(ctx, func(i *bootstrap.Installer, pkg string) error {
		env, err := a.services.Resolver().Resolve(ctx, "")
		if err != nil {
			return err
		}
		return i.Update(ctx, env, pkg)
	})
}

func (a *Application) runPip(ctx context.Context, op func(*bootstrap.Installer, string) error) error {
	cfg := a.services.Settings()
	installer := &bootstrap.Installer{
		Runner: a.services.Runner,
		State:  a.services.State,
	}
	return op(installer, cfg.Server.PackageName)
}

// BuildCommandString renders the configured build settings as the backend's
// native command line, one string ready for a shell.
func (a *Application) BuildCommandString(ctx context.Context) (string, error) {
	cfg := a.services.Settings()
	env, err := a.services.Resolver().Resolve(ctx, "")
	if err != nil {
		return "", err
	}

	args, err := a.services.Translator.ConfigToCLI(ctx, env, client.BackendConfigFromSettings(cfg.SphinxLike))
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

// SetBuildCommand parses the given backend command-line arguments and
// stores the resulting build configuration in the settings file. The
// backend itself does the parsing; arguments it rejects are rejected here.
func (a *Application) SetBuildCommand(ctx context.Context, args []string) error {
	env, err := a.services.Resolver().Resolve(ctx, "")
	if err != nil {
		return err
	}

	parsed, err := a.services.Translator.CLIToConfig(ctx, env, args)
	if err != nil {
		return err
	}

	return a.applySettings(func(cfg *settings.Settings) {
		cfg.SphinxLike = settings.SphinxLikeSettings{
			BuildCommand:    args,
			PythonCommand:   parsed.PythonCommand,
			Cwd:             parsed.Cwd,
			EnvPassthrough:  parsed.EnvPassthrough,
			ConfigOverrides: parsed.ConfigOverrides,
			SrcDir:          parsed.SrcDir,
			BuildDir:        parsed.BuildDir,
			ConfDir:         parsed.ConfDir,
			ForceFullBuild:  parsed.ForceFullBuild,
			NumJobs:         parsed.NumJobs,
			Quiet:           parsed.Quiet,
		}
	})
}

// DirKind names a configurable backend directory.
type DirKind string

const (
	DirConf  DirKind = "conf"
	DirSrc   DirKind = "src"
	DirBuild DirKind = "build"
)

// SelectDir stores the given directory as the backend's configuration,
// source or build directory.
func (a *Application) SelectDir(kind DirKind, dir string) error {
	return a.applySettings(func(cfg *settings.Settings) {
		switch kind {
		case DirConf:
			cfg.SphinxLike.ConfDir = dir
		case DirSrc:
			cfg.SphinxLike.SrcDir = dir
		case DirBuild:
			cfg.SphinxLike.BuildDir = dir
		}
	})
}

// applySettings mutates the stored settings and writes them back. A running
// serve process picks the change up through its settings watcher.
func (a *Application) applySettings(mutate func(*settings.Settings)) error {
	current, err := settings.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	mutate(&current)
	if err := settings.Save(a.configPath, current); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	a.services.UpdateSettings(a.config, a.configPath, current)
	return nil
}
