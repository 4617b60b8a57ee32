package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/polishcitizenship/docfill/internal/models"
)

var (
	statusTracking  string
	statusLabelURL  string
	statusSignature string
	historyJSON     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Track generated documents",
	Long:  `Set the lifecycle status of a generated document or show its history.`,
}

var statusSetCmd = &cobra.Command{
	Use:   "set [document-id] [status]",
	Short: "Set the status of a document",
	Long: fmt.Sprintf(`Sets the status of a document. Known statuses: %v.
The signed, sent and received timestamps are stamped when that status is set.`, models.Statuses),
	Args: cobra.ExactArgs(2),
	RunE: runStatusSet,
}

var statusHistoryCmd = &cobra.Command{
	Use:   "history [document-id]",
	Short: "Show the status changes of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatusHistory,
}

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage case records in a local store",
}

var casePutCmd = &cobra.Command{
	Use:   "put [case-id] [record.json]",
	Short: "Store a case record (sqlite and memory stores)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCasePut,
}

func init() {
	statusSetCmd.Flags().StringVar(&statusTracking, "tracking-number", "", "courier tracking number")
	statusSetCmd.Flags().StringVar(&statusLabelURL, "label-url", "", "shipping label URL")
	statusSetCmd.Flags().StringVar(&statusSignature, "signature-data", "", "signature payload")
	statusHistoryCmd.Flags().BoolVar(&historyJSON, "json", false, "output the history as JSON")

	statusCmd.AddCommand(statusSetCmd)
	statusCmd.AddCommand(statusHistoryCmd)
	caseCmd.AddCommand(casePutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(caseCmd)
}

// changedString returns the flag value when it was given on the command line.
func changedString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func runStatusSet(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	req := models.UpdateStatusRequest{DocumentID: args[0], Status: args[1]}
	meta := models.StatusMetadata{
		TrackingNumber: changedString(cmd, "tracking-number", statusTracking),
		LabelURL:       changedString(cmd, "label-url", statusLabelURL),
		SignatureData:  changedString(cmd, "signature-data", statusSignature),
	}
	if meta != (models.StatusMetadata{}) {
		req.Metadata = &meta
	}

	doc, err := app.Status.UpdateStatus(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	cmd.Printf("Document %s is now %s\n", doc.ID, doc.Status)
	return nil
}

func runStatusHistory(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	history, err := app.Status.History(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if historyJSON {
		return printJSON(cmd, models.StatusHistoryResponse{DocumentID: args[0], History: history})
	}
	if len(history) == 0 {
		cmd.Printf("No status changes for %s\n", args[0])
		return nil
	}
	for _, h := range history {
		from := string(h.PreviousStatus)
		if from == "" {
			from = "-"
		}
		cmd.Printf("  %s  %-9s -> %s\n", h.ChangedAt.Format(time.RFC3339), from, h.Status)
	}
	return nil
}

type recordWriter interface {
	PutRecord(ctx context.Context, caseID string, record models.Record) error
}

func runCasePut(cmd *cobra.Command, args []string) error {
	record, err := readRecord(args[1])
	if err != nil {
		return err
	}
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	writer, ok := app.Store.(recordWriter)
	if !ok {
		return errors.New("the configured store does not accept case records")
	}
	if err := writer.PutRecord(commandContext(cmd), args[0], record); err != nil {
		return fmt.Errorf("failed to store case: %w", err)
	}
	cmd.Printf("Stored case %s (%d keys)\n", args[0], len(record))
	return nil
}
