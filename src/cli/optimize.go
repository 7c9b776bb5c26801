package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webstack-optimizer/src/backup"
	"webstack-optimizer/src/tag"
)

type optimizerFlags struct {
	backup       bool
	restore      string
	optimize     bool
	test         bool
	strictHealth bool
}

var now = time.Now

func addOptimizerFlags(cmd *cobra.Command, a *app) {
	var f optimizerFlags
	cmd.Flags().BoolVar(&f.backup, "backup", false, "Create a backup of the current config")
	cmd.Flags().StringVar(&f.restore, "restore", "", "Restore from backup with the given tag")
	cmd.Flags().BoolVar(&f.optimize, "optimize", false, "Back up, then rewrite the rate-limiter and Gunicorn configs")
	cmd.Flags().BoolVar(&f.test, "test", false, "Smoke-test the application")
	cmd.Flags().BoolVar(&f.strictHealth, "strict-health", false, "Fail --test when the health response is not healthy")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !f.backup && f.restore == "" && !f.optimize && !f.test {
			return cmd.Help()
		}
		return a.runOptimizer(cmd, f)
	}
}

// runOptimizer executes the requested actions in the fixed order backup,
// restore, optimize, test. Only filesystem errors abort with an error; a
// missing restore tag or a failed test is reported and the run continues.
func (a *app) runOptimizer(cmd *cobra.Command, f optimizerFlags) error {
	opts := getSafetyOptions(cmd)
	mgr := a.backups()

	if f.backup {
		if opts.DryRun {
			a.ui.Info("[dry-run] would back up %d watched files to %s", len(a.settings.WatchedFiles), mgr.Root())
		} else {
			dir, err := mgr.Create("")
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			a.ui.Success("Backup created at %s", dir)
		}
	}

	if f.restore != "" {
		if err := a.restore(cmd, f.restore); err != nil {
			return err
		}
	}

	if f.optimize {
		if err := a.optimize(cmd); err != nil {
			return err
		}
	}

	if f.test {
		ctx := cmdContext(cmd)
		a.ui.Info("Testing application...")
		p := a.prober()
		if a.checkDependency(ctx, p) && a.smokeTest(ctx, p, a.directLaunch(f.strictHealth)) {
			a.ui.Info("Application tests completed")
		} else {
			a.log.Warn("application test failed; configs were left in place, restore with --restore if needed")
		}
	}
	return nil
}

func (a *app) restore(cmd *cobra.Command, raw string) error {
	mgr := a.backups()
	dryRun := getSafetyOptions(cmd).DryRun
	var (
		res backup.RestoreResult
		err error
	)
	if dryRun {
		res, err = mgr.Preview(raw)
	} else {
		res, err = mgr.Restore(raw)
	}
	switch {
	case errors.Is(err, backup.ErrNotFound), errors.Is(err, tag.ErrInvalid):
		a.log.Error("restore failed", zap.String("tag", raw), zap.Error(err))
		a.ui.Fail("Backup %s not found", raw)
		return nil
	case err != nil:
		return fmt.Errorf("restore: %w", err)
	}
	if dryRun {
		a.ui.Info("[dry-run] would restore %d files from %s", len(res.Restored), mgr.Path(res.Tag))
		for _, name := range res.Skipped {
			a.ui.Info("[dry-run] %s is not in backup %s, would be left as is", name, res.Tag)
		}
		return nil
	}
	for _, name := range res.Skipped {
		a.ui.Warn("%s is not in backup %s, left as is", name, res.Tag)
	}
	a.ui.Success("Restored from backup %s", res.Tag)
	return nil
}

func (a *app) optimize(cmd *cobra.Command) error {
	gen := a.generator()
	backupTag := tag.WithPrefix(tag.PreOptimization, now())

	if getSafetyOptions(cmd).DryRun {
		plan, err := gen.Plan()
		if err != nil {
			return err
		}
		a.ui.Info("[dry-run] would back up to %s", a.backups().Path(backupTag))
		for _, c := range plan {
			a.ui.Info("[dry-run] %s %s (%s)", c.Action, c.Path, c.Name)
		}
		return nil
	}

	if _, err := a.backups().Create(backupTag); err != nil {
		return fmt.Errorf("backup before optimization: %w", err)
	}
	a.ui.Success("Created backup before optimization with tag: %s", backupTag)

	// WriteAll returns paths in rate limiter, process manager order
	written, err := gen.WriteAll()
	for i, p := range written {
		a.ui.Success("Created optimized %s configuration at %s", []string{"Flask-Limiter", "Gunicorn"}[i], p)
	}
	if err != nil {
		return err
	}

	a.ui.Info("\nOptimizations applied. To revert, run:")
	a.ui.Info("%s", restoreHint(cmd, backupTag))
	return nil
}

// restoreHint is the command line that undoes a run.
func restoreHint(cmd *cobra.Command, backupTag string) string {
	hint := cmd.Root().Name()
	if dir, _ := cmd.Root().PersistentFlags().GetString("project-dir"); dir != "" {
		hint += " --project-dir " + dir
	}
	return hint + " --restore " + backupTag
}
