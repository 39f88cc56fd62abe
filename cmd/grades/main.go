// grades manages student grade records kept in a spreadsheet file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studentgrades/gradebook/config"
	"github.com/studentgrades/gradebook/gradestore"
	"github.com/studentgrades/gradebook/journal"
	"github.com/studentgrades/gradebook/log"
)

type app struct {
	cfg *config.Config

	// flags
	file    string
	envFile string
	verbose bool
}

func (a *app) openStore() (*gradestore.Store, error) {
	store, err := gradestore.Open(a.cfg.File)
	if err != nil {
		return nil, err
	}
	j, err := journal.Open(a.cfg.Journal)
	if err != nil {
		return nil, err
	}
	store.Journal = j
	return store, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "grades",
		Short: "Manage student grade records kept in a spreadsheet file",
		Long: `Add, update, delete and list student grade records.

Records are kept in an .xlsx file with columns
Student ID, Student Name, Mathematics, OS, DBMS.
The file is created if it doesn't exist.

Settings come from environment variables or a .env file:
GRADES_FILE, GRADES_JOURNAL, GRADES_LOG_DIR, GRADES_HTTP_ADDR,
GRADES_BACKUP_COMPRESSION, GRADES_BACKUP_DIR, MINIO_*, SFTP_*.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load(a.envFile)
			if err != nil {
				return err
			}
			if a.file != "" {
				a.cfg.SetFile(a.file)
			}
			log.Verbose = a.verbose
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "grades file (default: $GRADES_FILE or "+config.DefaultFile+")")
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "file with environment variables")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newReportCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
		newBackupCmd(a),
		newBackupsCmd(a),
		newRestoreCmd(a),
	)
	return root
}

func main() {
	err := newRootCmd().Execute()
	log.Close()
	if err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
