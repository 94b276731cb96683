package cli

import (
	"context"
	"log/slog"

	"github.com/dgallion1/parsegest/internal/command"
	"github.com/dgallion1/parsegest/internal/console"
	"github.com/dgallion1/parsegest/internal/executor"
	"github.com/dgallion1/parsegest/internal/preprocess"
	"github.com/dgallion1/parsegest/internal/resource"
)

// SQLOptions are the execute-sql flags.
type SQLOptions struct {
	Driver        string
	DSN           string
	SQL           string
	SQLFile       string
	Delimiter     string
	StripComments bool
	Params        preprocess.Parameters
}

// ExecuteSQL opens the database, runs the script in one transaction and
// returns the execution report.
func ExecuteSQL(ctx context.Context, opts SQLOptions, res resource.Accessor, log *slog.Logger) (string, error) {
	session, err := executor.Open(opts.Driver, opts.DSN)
	if err != nil {
		return "", err
	}
	defer session.Close()

	spinner := console.NewSpinner("Executing SQL...")
	spinner.Start()
	defer spinner.Stop()

	cmd := &command.ExecuteSQL{
		Session:       session,
		Resources:     res,
		Params:        opts.Params,
		Delimiter:     opts.Delimiter,
		StripComments: opts.StripComments,
		Log:           log,
	}
	return cmd.Run(ctx, opts.SQL, opts.SQLFile)
}
