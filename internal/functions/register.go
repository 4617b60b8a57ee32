package functions

import "github.com/GoogleCloudPlatform/functions-framework-go/functions"

// Function entry point names.
const (
	FillPDFName         = "HandleFillPDF"
	FillPDFBatchName    = "HandleFillPDFBatch"
	ValidateRecordName  = "HandleValidateRecord"
	UpdateStatusName    = "HandleUpdateStatus"
	StatusHistoryName   = "HandleStatusHistory"
	InspectTemplateName = "InspectTemplate"
)

// Register registers every function of a with the functions framework, for
// serving them all from one process.
func Register(a *App) {
	functions.HTTP(FillPDFName, Guard(a.FillPDF))
	functions.HTTP(FillPDFBatchName, Guard(a.FillPDFBatch))
	functions.HTTP(ValidateRecordName, Guard(a.ValidateRecord))
	functions.HTTP(UpdateStatusName, Guard(a.UpdateStatus))
	functions.HTTP(StatusHistoryName, Guard(a.StatusHistory))
	functions.CloudEvent(InspectTemplateName, a.InspectTemplate)
}
