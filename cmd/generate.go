package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pmplanner/pkg/asset"
	"pmplanner/pkg/encoder"
)

var (
	outputFormat string
	outputPath   string
)

var generateCmd = &cobra.Command{
	Use:   "generate [asset.json|-]",
	Short: "Generate a plan for one asset and print it",
	Long: `Reads an asset description as JSON from a file, or from stdin when the
argument is "-" or input is piped, and prints {"pm_plan": [...]}.
With --format excel the workbook is written to --out instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := encoder.ParseFormat(outputFormat)
		if err != nil {
			return err
		}

		var arg string
		if len(args) == 1 {
			arg = args[0]
		} else if !stdinPiped() {
			// No piped input; show help like `pmplanner generate -h`
			return cmd.Help()
		}

		in, err := openInput(arg, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer in.Close()

		a, err := asset.Decode(in)
		if err != nil {
			return err
		}

		_, prof, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newPlanner(prof, logger)
		if err != nil {
			return err
		}

		p, err := svc.Generate(cmd.Context(), a)
		if err != nil {
			return err
		}

		if format == encoder.FormatExcel {
			f, err := os.Create(ifEmpty(outputPath, encoder.ExcelFilename))
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			if err := encoder.WriteExcel(f, p); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d task(s) to %s\n", len(p), f.Name())
			return nil
		}
		return encoder.WriteJSON(cmd.OutOrStdout(), p)
	},
}

func stdinPiped() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice == 0
}

// openInput opens path, or returns stdin for "" and "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset file: %w", err)
	}
	return f, nil
}

func init() {
	generateCmd.Flags().StringVar(&outputFormat, "format", "json", "output format (json or excel)")
	generateCmd.Flags().StringVarP(&outputPath, "out", "o", "", "workbook path for --format excel (default PM_Plan.xlsx)")
	rootCmd.AddCommand(generateCmd)
}
