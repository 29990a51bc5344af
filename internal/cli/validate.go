package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlastown/bizsim/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [personas-dir]",
		Short: "Validate persona configuration files",
		Long: `Validate every persona file in a directory.

Each *.yaml file is checked against the persona schema and its field values
are parsed the same way the simulator parses them. The first problem found is
reported with the offending business and field.

Example:
  bizsim validate ./personas`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			personasDir := ""
			if len(args) == 1 {
				personasDir = args[0]
			}
			return runValidate(rootOpts, personasDir, cmd)
		},
	}
}

func runValidate(opts *RootOptions, personasDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if personasDir == "" {
		settings, err := LoadSettings()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load settings", err)
		}
		personasDir = settings.Personas.Dir
	}

	registry, err := config.Load(personasDir)
	if err != nil {
		var ve *config.ValidationError
		if errors.As(err, &ve) {
			details := map[string]string{}
			if ve.Business != "" {
				details["business"] = ve.Business
			}
			if ve.Field != "" {
				details["field"] = ve.Field
			}
			if outErr := formatter.Error(strings.ToLower(string(ve.Code)), ve.Message, details); outErr != nil {
				return WrapExitError(ExitCommandError, "failed to write output", outErr)
			}
			return NewExitError(ExitFailure, "validation failed")
		}
		return WrapExitError(ExitCommandError, "failed to load personas", err)
	}

	keys := registry.Keys()
	businesses := make([]string, len(keys))
	for i, k := range keys {
		businesses[i] = string(k)
	}
	return formatter.Success(validateSummary{
		Businesses: businesses,
		Count:      len(businesses),
	})
}

type validateSummary struct {
	Businesses []string `json:"businesses"`
	Count      int      `json:"count"`
}

func (s validateSummary) String() string {
	return fmt.Sprintf("%d personas valid: %s", s.Count, strings.Join(s.Businesses, ", "))
}
