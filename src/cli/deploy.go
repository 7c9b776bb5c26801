package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errDeployFailed = errors.New("deployment verification failed")

func newDeployCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Back up, check Redis, then smoke-test the app directly and under Gunicorn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDeploy(cmd, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict-health", false, "Fail when the health response is not healthy")
	return cmd
}

func (a *app) runDeploy(cmd *cobra.Command, strict bool) error {
	a.ui.Banner("Web Stack Optimization Deployment", 60)
	mgr := a.backups()

	if getSafetyOptions(cmd).DryRun {
		a.ui.Info("[dry-run] would back up %d watched files to %s", len(a.settings.WatchedFiles), mgr.Root())
		a.ui.Info("[dry-run] would run %s", strings.Join(a.settings.PingArgs(), " "))
		a.ui.Info("[dry-run] would probe %s", strings.Join(a.settings.Launch.AppCommand, " "))
		a.ui.Info("[dry-run] would probe %s", strings.Join(a.settings.Launch.ProcessManagerCommand, " "))
		return nil
	}

	dir, err := mgr.Create("")
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	backupTag := filepath.Base(dir)
	a.ui.Success("Backup created at %s", dir)

	ctx := cmdContext(cmd)
	p := a.prober()
	if !a.checkDependency(ctx, p) {
		a.ui.Fail("Redis check failed. Please start Redis before continuing.")
		a.ui.Hint("Run 'brew services start redis' or 'sudo systemctl start redis'")
		return errDeployFailed
	}
	if !a.smokeTest(ctx, p, a.directLaunch(strict)) {
		a.ui.Fail("Flask app test failed. Optimizations may not be applied correctly.")
		return errDeployFailed
	}
	if !a.smokeTest(ctx, p, a.processManagerLaunch(strict)) {
		a.ui.Fail("Gunicorn test failed. Please check %s", a.settings.Templates.ProcessManagerPath)
		a.ui.Hint("You can restore from backup with: %s", restoreHint(cmd, backupTag))
		return errDeployFailed
	}

	a.log.Info("deployment verified", zap.String("backup", backupTag))
	a.ui.Info("")
	a.ui.Banner("All tests passed! Optimizations successfully deployed.", 60)
	a.ui.Info("\nTo run in production mode:")
	a.ui.Info("  %s", strings.Join(a.settings.Launch.ProcessManagerCommand, " "))
	a.ui.Info("\nTo restore from backup if needed:")
	a.ui.Info("  %s", restoreHint(cmd, backupTag))
	return nil
}
