package cli

import (
	"github.com/veritrail/veritrail/internal/quality/application/commands"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
)

// App holds the CLI application dependencies.
type App struct {
	// Record Command Handlers
	CreateRecordHandler     *commands.CreateRecordHandler
	UpdateRecordHandler     *commands.UpdateRecordHandler
	DeleteRecordHandler     *commands.DeleteRecordHandler
	TransitionRecordHandler *commands.TransitionRecordHandler
	SupplierResponseHandler *commands.RecordSupplierResponseHandler

	// Record Query Handlers
	ListRecordsHandler    *queries.ListRecordsHandler
	GetRecordHandler      *queries.GetRecordHandler
	GetTimelineHandler    *queries.GetTimelineHandler
	GetAuditTrailHandler  *queries.GetAuditTrailHandler
	ExportRegisterHandler *queries.ExportRegisterHandler

	// DefaultActor is recorded on changes when --actor is not given.
	DefaultActor string
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createRecordHandler *commands.CreateRecordHandler,
	updateRecordHandler *commands.UpdateRecordHandler,
	deleteRecordHandler *commands.DeleteRecordHandler,
	transitionRecordHandler *commands.TransitionRecordHandler,
	supplierResponseHandler *commands.RecordSupplierResponseHandler,
	listRecordsHandler *queries.ListRecordsHandler,
	getRecordHandler *queries.GetRecordHandler,
	getTimelineHandler *queries.GetTimelineHandler,
	getAuditTrailHandler *queries.GetAuditTrailHandler,
	exportRegisterHandler *queries.ExportRegisterHandler,
) *App {
	return &App{
		CreateRecordHandler:     createRecordHandler,
		UpdateRecordHandler:     updateRecordHandler,
		DeleteRecordHandler:     deleteRecordHandler,
		TransitionRecordHandler: transitionRecordHandler,
		SupplierResponseHandler: supplierResponseHandler,
		ListRecordsHandler:      listRecordsHandler,
		GetRecordHandler:        getRecordHandler,
		GetTimelineHandler:      getTimelineHandler,
		GetAuditTrailHandler:    getAuditTrailHandler,
		ExportRegisterHandler:   exportRegisterHandler,
	}
}

// SetDefaultActor updates the default actor identity.
func (a *App) SetDefaultActor(actor string) {
	a.DefaultActor = actor
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
