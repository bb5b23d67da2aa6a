package models

// These structs define the JSON payloads for HTTP requests and responses
// of the report Cloud Functions.

// PublishRequest is the input for the report-publisher function.
type PublishRequest struct {
	WorkOrderID string `json:"workOrderId"`
	// LinkOnly retries only the link write-back for a report that is
	// already uploaded.
	LinkOnly bool `json:"linkOnly,omitempty"`
}

// PublishResponse is the output of the report-publisher function.
type PublishResponse struct {
	Status      string `json:"status"`
	WorkOrderID string `json:"workOrderId"`
	ReportLink  string `json:"reportLink,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RefreshRequest is the input for the report-refresher function.
type RefreshRequest struct {
	Statuses []Status `json:"statuses"`
}

// RefreshFailure is one failed key in a batch refresh.
type RefreshFailure struct {
	WorkOrderID string `json:"workOrderId"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
}

// RefreshResponse is the output of the report-refresher function.
type RefreshResponse struct {
	Status    string           `json:"status"`
	BatchID   string           `json:"batchId"`
	Succeeded int              `json:"succeeded"`
	Failed    []RefreshFailure `json:"failed"`
	Reloaded  int              `json:"reloaded"`
}

// ErrorResponse is the JSON body written alongside non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
