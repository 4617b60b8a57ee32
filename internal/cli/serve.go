package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/spf13/cobra"

	"github.com/polishcitizenship/docfill/internal/functions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve every function from one local process",
	Long: `Starts the functions framework with all docfill functions registered,
each under /{name}. Setting FUNCTION_TARGET serves only that function at /.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	functions.Register(app)
	slog.Info("Serving functions.", "address", app.Config.Address())
	if err := funcframework.StartHostPort(app.Config.Host, strconv.Itoa(app.Config.Port)); err != nil {
		return fmt.Errorf("funcframework.StartHostPort: %w", err)
	}
	return nil
}
