package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/studentgrades/gradebook/backup"
	"github.com/studentgrades/gradebook/config"
	"github.com/studentgrades/gradebook/gradestore"
)

// openDestination picks backup destination by name or, if name is empty,
// the first configured of minio, sftp, dir
func openDestination(ctx context.Context, cfg *config.Config, name string) (backup.Destination, io.Closer, error) {
	if name == "" {
		switch {
		case cfg.HasMinio():
			name = "minio"
		case cfg.HasSFTP():
			name = "sftp"
		case cfg.BackupDir != "":
			name = "dir"
		default:
			return nil, nil, fmt.Errorf("no backup destination configured, set GRADES_BACKUP_DIR, MINIO_* or SFTP_*")
		}
	}
	switch name {
	case "minio":
		dst, err := backup.NewMinio(ctx, &backup.MinioConfig{
			Endpoint: cfg.MinioEndpoint,
			Access:   cfg.MinioAccess,
			Secret:   cfg.MinioSecret,
			Bucket:   cfg.MinioBucket,
			Region:   cfg.MinioRegion,
		})
		return dst, nil, err
	case "sftp":
		dst, err := backup.NewSFTP(&backup.SFTPConfig{
			Host:           cfg.SFTPHost,
			User:           cfg.SFTPUser,
			PrivateKeyPath: cfg.SFTPKey,
			Dir:            cfg.SFTPDir,
		})
		if err != nil {
			return nil, nil, err
		}
		return dst, dst, nil
	case "dir":
		dst, err := backup.NewDir(cfg.BackupDir)
		return dst, nil, err
	}
	return nil, nil, fmt.Errorf("unknown backup destination '%s', must be minio, sftp or dir", name)
}

func closeDestination(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func newBackupCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload a compressed copy of the grades file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// make sure the file is a valid grades file before uploading it
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if _, err = store.Load(); err != nil {
				return err
			}
			dst, closer, err := openDestination(ctx, a.cfg, to)
			if err != nil {
				return err
			}
			defer closeDestination(closer)
			name, err := backup.Create(ctx, dst, store.Path, a.cfg.BackupCompression)
			if err != nil {
				return err
			}
			printf(cmd, "Uploaded '%s' to %s\n", name, dst)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination: minio, sftp or dir")
	return cmd
}

func newBackupsCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List backups of the grades file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dst, closer, err := openDestination(ctx, a.cfg, from)
			if err != nil {
				return err
			}
			defer closeDestination(closer)
			names, err := backup.List(ctx, dst, a.cfg.File)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printf(cmd, "No backups in %s\n", dst)
				return nil
			}
			for _, name := range names {
				printf(cmd, "%s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "destination: minio, sftp or dir")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var from string
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <backup-name|latest>",
		Short: "Replace the grades file with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dst, closer, err := openDestination(ctx, a.cfg, from)
			if err != nil {
				return err
			}
			defer closeDestination(closer)

			name := args[0]
			if name == "latest" {
				name, err = backup.Latest(ctx, dst, a.cfg.File)
				if err != nil {
					return err
				}
				if name == "" {
					return fmt.Errorf("no backups in %s", dst)
				}
			}
			d, err := backup.Fetch(ctx, dst, name)
			if err != nil {
				return err
			}
			recs, err := gradestore.ReadRecords(bytes.NewReader(d))
			if err != nil {
				return fmt.Errorf("'%s' is not a valid grades file: %w", name, err)
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			q := fmt.Sprintf("Replace '%s' with %d records from '%s'?", store.Path, len(recs), name)
			if !yes && !confirm(cmd, q) {
				printf(cmd, "Cancelled\n")
				return nil
			}
			if err = store.Replace(recs); err != nil {
				return err
			}
			printf(cmd, "Restored %d records from '%s'\n", len(recs), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "destination: minio, sftp or dir")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "don't ask for confirmation")
	return cmd
}
