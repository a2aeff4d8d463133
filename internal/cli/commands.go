package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/auth"
	"github.com/dmitrijs2005/bizsync/internal/backup"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/metadata"
	"github.com/dmitrijs2005/bizsync/internal/restore"
	"github.com/dmitrijs2005/bizsync/internal/session"
)

var errNoSecret = errors.New("token secret is not configured")

func (a *App) isLoggedIn() bool {
	_, err := a.session.Current()
	return err == nil
}

func (a *App) statusLine() string {
	o, err := a.session.Current()
	if err != nil {
		return ""
	}
	if o.Name != "" {
		return fmt.Sprintf("(%s)", o.Name)
	}
	return fmt.Sprintf("(%s)", o.ID)
}

func (a *App) Login(ctx context.Context, token string) error {
	if a.config.TokenSecret == "" {
		return errNoSecret
	}
	claims, err := auth.ParseOwnerToken(token, []byte(a.config.TokenSecret))
	if err != nil {
		return err
	}
	a.session.Set(session.Owner{ID: claims.Subject, Name: claims.Name})
	fmt.Fprintf(a.out, "Signed in as %s\n", claims.Subject)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	a.session.Clear()
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	o, err := a.session.Current()
	if err != nil {
		return err
	}
	if o.Name != "" {
		fmt.Fprintf(a.out, "%s (%s)\n", o.Name, o.ID)
		return nil
	}
	fmt.Fprintln(a.out, o.ID)
	return nil
}

func (a *App) Backup(ctx context.Context) error {
	o, err := a.session.Current()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.OperationTimeout)
	defer cancel()

	sum, err := a.backup.CreateFullBackup(ctx, o.ID, a.progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup %s complete: %d records, %d documents, %d images uploaded\n",
		sum.BackupID, sum.Counts.Total(), sum.Documents, sum.ImagesUploaded)
	printWarnings(a, sum.Warnings)
	return nil
}

func (a *App) Restore(ctx context.Context) error {
	o, err := a.session.Current()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.OperationTimeout)
	defer cancel()

	sum, err := a.restore.RestoreFromBackup(ctx, o.ID, a.progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restore complete: %d records, %d skipped, %d defaulted fields\n",
		sum.Restored.Total(), sum.Skipped, sum.Defaulted)
	printWarnings(a, sum.Warnings)
	return nil
}

// Status prints local row counts and the last backup and restore.
func (a *App) Status(ctx context.Context) error {
	o, err := a.session.Current()
	if err != nil {
		return err
	}
	c, err := a.local.Counts(ctx, o.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Owner: %s\n", o.ID)
	rows := []struct {
		name string
		n    int
	}{
		{"products", c.Products},
		{"customers", c.Customers},
		{"sales", c.Sales},
		{"expenses", c.Expenses},
		{"collections", c.Collections},
		{"collection items", c.CollectionItems},
		{"invoices", c.Invoices},
		{"custom categories", c.CustomCategories},
		{"stock movements", c.StockMovements},
	}
	for _, r := range rows {
		fmt.Fprintf(a.out, "  %-18s %d\n", r.name, r.n)
	}

	var lb backup.Summary
	found, err := a.local.Repos.Metadata.GetJSON(ctx, metadata.Key(metadata.KindLastBackup, o.ID), &lb)
	switch {
	case err != nil:
		return err
	case found:
		fmt.Fprintf(a.out, "Last backup:  %s (%s, %d warnings)\n", lb.FinishedAt.Format(time.RFC3339), lb.BackupID, len(lb.Warnings))
	default:
		fmt.Fprintln(a.out, "Last backup:  never")
	}

	var lr restore.Summary
	found, err = a.local.Repos.Metadata.GetJSON(ctx, metadata.Key(metadata.KindLastRestore, o.ID), &lr)
	switch {
	case err != nil:
		return err
	case found:
		fmt.Fprintf(a.out, "Last restore: %s (%d records, %d skipped)\n", lr.FinishedAt.Format(time.RFC3339), lr.Restored.Total(), lr.Skipped)
	default:
		fmt.Fprintln(a.out, "Last restore: never")
	}
	return nil
}

func printWarnings(a *App, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(a.out, "  warning: %s\n", w)
	}
}
