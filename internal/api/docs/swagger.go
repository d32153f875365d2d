package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// HealthResponse is returned by the probes
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// EventFailure is one event reported as failed to the roster
type EventFailure struct {
	EventID string `json:"event_id" example:"9c1d5e0a-7e55-4b8c-9d7e-3c1f4c0f9b21"`
	Reason  string `json:"reason" example:"external system call failed: create person: code 1001"`
}

// PassSummary describes one fetch-reconcile-report cycle
type PassSummary struct {
	StartedAt    string         `json:"started_at" example:"2025-01-01T10:00:00Z"`
	FinishedAt   string         `json:"finished_at" example:"2025-01-01T10:00:04Z"`
	Fetched      int            `json:"fetched" example:"12"`
	Completed    int            `json:"completed" example:"11"`
	Failed       int            `json:"failed" example:"1"`
	Skipped      int            `json:"skipped" example:"0"`
	ReportErrors int            `json:"report_errors" example:"0"`
	Failures     []EventFailure `json:"failures,omitempty"`
}

// SyncResponse is returned by a manual pass
type SyncResponse struct {
	Summary    PassSummary `json:"summary"`
	DurationMs int64       `json:"duration_ms" example:"4210"`
}

// StatusResponse describes the poll driver
type StatusResponse struct {
	Running   bool         `json:"running" example:"false"`
	Passes    int64        `json:"passes" example:"42"`
	LastPass  *PassSummary `json:"last_pass,omitempty"`
	LastError string       `json:"last_error,omitempty" example:"fetch pending events: external system call failed"`
	LastRunAt string       `json:"last_run_at,omitempty" example:"2025-01-01T10:00:04Z"`
	NextRunAt string       `json:"next_run_at,omitempty" example:"2025-01-01T10:01:00Z"`
	Interval  string       `json:"interval" example:"1m0s"`
	DryRun    bool         `json:"dry_run" example:"false"`
}

// RequestLogEntry is one audited call to HikCentral or the roster
type RequestLogEntry struct {
	ID           string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp    string `json:"timestamp" example:"2025-01-01T10:00:01Z"`
	System       string `json:"system" example:"hikcentral"`
	Method       string `json:"method" example:"POST"`
	Endpoint     string `json:"endpoint" example:"/api/resource/v1/person/single/add"`
	StatusCode   int    `json:"status_code" example:"200"`
	Success      bool   `json:"success" example:"true"`
	Message      string `json:"message,omitempty" example:"Success"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
	DurationMs   int64  `json:"duration_ms" example:"87"`
	DryRun       bool   `json:"dry_run,omitempty" example:"false"`
}

// RequestsResponse lists recent external calls
type RequestsResponse struct {
	Requests []RequestLogEntry `json:"requests"`
	Count    int               `json:"count" example:"1"`
}

// WorkerResponse is a stored worker record
type WorkerResponse struct {
	InternalID       string `json:"internal_id" example:"4711"`
	NationalID       string `json:"national_id,omitempty" example:"29801011234567"`
	Name             string `json:"name" example:"Ali Hassan"`
	Phone            string `json:"phone,omitempty" example:"+201001234567"`
	Email            string `json:"email,omitempty" example:"ali@example.com"`
	Gender           string `json:"gender,omitempty" example:"male"`
	UnitNumber       string `json:"unit_number,omitempty" example:"B-12"`
	FaceImageURL     string `json:"face_image_url,omitempty" example:"https://cdn.example.com/4711.jpg"`
	ValidFrom        string `json:"valid_from,omitempty" example:"2025-01-01T00:00:00Z"`
	ValidTo          string `json:"valid_to,omitempty" example:"2025-12-31T00:00:00Z"`
	Status           string `json:"status" example:"active"`
	ExternalPersonID string `json:"external_person_id,omitempty" example:"1024"`
	HasBiometric     bool   `json:"has_biometric" example:"true"`
	CreatedAt        string `json:"created_at" example:"2025-01-01T10:00:02Z"`
	UpdatedAt        string `json:"updated_at" example:"2025-01-01T10:00:02Z"`
}

// WorkersResponse lists stored worker records
type WorkersResponse struct {
	Workers []WorkerResponse `json:"workers"`
	Count   int              `json:"count" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"UNAUTHORIZED"`
	Message string `json:"message" example:"Invalid or missing API token"`
}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API token"}, "401", "Unauthorized")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	bearerAuth      = []map[string][]string{{"BearerAuth": {}}}
)

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "accesssync operations API",
		Version:     "v1.0.0",
		Description: "Operational surface of the roster to HikCentral reconciliation service",
		Host:        "localhost:8090",
	})

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is alive"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the database when the postgres store is configured"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Ready to serve"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Database unreachable"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/status",
			endpoint.WithTags("Sync"),
			endpoint.WithSummary("Poll driver status"),
			endpoint.WithDescription("Whether a pass is running, when the next one is due and the summary of the last one"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Current status"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized}),
			endpoint.WithSecurity(bearerAuth),
		),

		endpoint.New(
			endpoint.POST,
			"/v1/sync",
			endpoint.WithTags("Sync"),
			endpoint.WithSummary("Run a reconciliation pass now"),
			endpoint.WithDescription("Fetches pending roster events, reconciles them and reports outcomes. Blocks until the pass finishes."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SyncResponse{}, "200", "Pass finished"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "PASS_IN_PROGRESS", Message: "A reconciliation pass is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "EXTERNAL_SYSTEM_FAILURE", Message: "external system call failed"}, "502", "Bad Gateway"),
				errInternal,
			}),
			endpoint.WithSecurity(bearerAuth),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/requests",
			endpoint.WithTags("Audit"),
			endpoint.WithSummary("Recent external calls"),
			endpoint.WithDescription("Bounded log of what was sent to and received from HikCentral and the roster, newest first"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Number of entries (1-1000, default: 50)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RequestsResponse{}, "200", "Recent requests"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				errUnauthorized,
				errInternal,
			}),
			endpoint.WithSecurity(bearerAuth),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/workers",
			endpoint.WithTags("Workers"),
			endpoint.WithSummary("List stored worker records"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WorkersResponse{}, "200", "Stored workers"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(bearerAuth),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/workers/{national_id}",
			endpoint.WithTags("Workers"),
			endpoint.WithSummary("Get a stored worker record by national id"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("national_id", parameter.Path, parameter.WithDescription("National id number")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WorkerResponse{}, "200", "Stored worker"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "WORKER_NOT_FOUND", Message: "Worker not found"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(bearerAuth),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
