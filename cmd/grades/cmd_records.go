package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/studentgrades/gradebook/gradestore"
	"github.com/studentgrades/gradebook/journal"
	"github.com/tidwall/pretty"
)

func printJSON(cmd *cobra.Command, v any) error {
	d, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(pretty.Pretty(d))
	return err
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printRecords(w io.Writer, recs []*gradestore.StudentRecord) error {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = r.Row()
	}
	return printTable(w, gradestore.Columns, rows)
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all student records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			recs, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to load data: %w", err)
			}
			if asJSON {
				if recs == nil {
					recs = []*gradestore.StudentRecord{}
				}
				return printJSON(cmd, recs)
			}
			if len(recs) == 0 {
				printf(cmd, "No student records in '%s'\n", store.Path)
				return nil
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <student-id>",
		Short: "Show a single student record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			r, err := store.Get(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), []*gradestore.StudentRecord{r})
		},
	}
}

func recordFromArgs(args []string) *gradestore.StudentRecord {
	r := &gradestore.StudentRecord{
		ID:          args[0],
		Name:        args[1],
		Mathematics: args[2],
		OS:          args[3],
		DBMS:        args[4],
	}
	return r.TrimSpace()
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <student-id> <name> <mathematics> <os> <dbms>",
		Short: "Add a student record",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err = store.Add(recordFromArgs(args)); err != nil {
				return err
			}
			printf(cmd, "Student record added successfully!\n")
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <student-id> <name> <mathematics> <os> <dbms>",
		Short: "Update name and grades of a student",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			r := recordFromArgs(args)
			if err = store.Update(r.ID, r); err != nil {
				return err
			}
			printf(cmd, "Student record updated successfully!\n")
			return nil
		},
	}
}

// confirm asks a yes / no question, anything other than y or yes is no
func confirm(cmd *cobra.Command, question string) bool {
	printf(cmd, "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <student-id>",
		Short: "Delete a student record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("please enter Student ID to delete")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, "Are you sure you want to delete this record?") {
				printf(cmd, "Cancelled\n")
				return nil
			}
			if err = store.Delete(id); err != nil {
				return err
			}
			printf(cmd, "Student record deleted successfully!\n")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "don't ask for confirmation")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-subject statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			rep, err := store.Report()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, rep)
			}
			printf(cmd, "Students: %d\n", rep.Students)
			var rows [][]string
			for _, st := range rep.Subjects {
				row := []string{st.Subject, strconv.Itoa(st.Count), "-", "-", "-", strconv.Itoa(st.Skipped)}
				if st.Count > 0 {
					row[2] = fmt.Sprintf("%.2f", st.Average)
					row[3] = fmt.Sprintf("%g", st.Min)
					row[4] = fmt.Sprintf("%g", st.Max)
				}
				rows = append(rows, row)
			}
			headers := []string{"Subject", "Count", "Average", "Min", "Max", "Not a number"}
			return printTable(cmd.OutOrStdout(), headers, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show changes made to the grades file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(a.cfg.Journal)
			if err != nil {
				return err
			}
			entries, err := j.ReadAll()
			if err != nil {
				return fmt.Errorf("failed to read '%s': %w", j.Path, err)
			}
			if len(entries) == 0 {
				printf(cmd, "No changes recorded in '%s'\n", j.Path)
				return nil
			}
			for _, e := range entries {
				printf(cmd, "%s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Name)
				body := strings.TrimRight(string(e.Body), "\n")
				if body == "" {
					continue
				}
				for _, line := range strings.Split(body, "\n") {
					printf(cmd, "    %s\n", line)
				}
			}
			return nil
		},
	}
}
