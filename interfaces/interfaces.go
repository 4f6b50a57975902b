// Package interfaces defines the contracts shared between the upstream
// clients, the scheduler, the health checker and the HTTP layer so each can
// be replaced with a mock in tests.
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/giygas/govdata-api/metastore"
	"github.com/giygas/govdata-api/mortality"
	"github.com/giygas/govdata-api/orangebook"
)

// RefreshStore records when each dataset was last refreshed.
// It guards against overlapping refreshes with BeginUpdate/EndUpdate.
type RefreshStore interface {
	RecordRefresh(dataset string, t time.Time)
	RecordFailure(dataset string, err error)
	GetLastRefresh(dataset string) time.Time
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	BeginUpdate() bool
	EndUpdate()
}

// Warmer reloads one dataset into the cache
type Warmer interface {
	Name() string
	Refresh(ctx context.Context) error
}

// Scheduler defines the contract for job scheduling and staleness monitoring.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the current status, its details and the HTTP status to send
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled refresh time
	CalculateNextUpdate() time.Time
}

// MetastoreService is the dataset registry as seen by the HTTP layer
type MetastoreService interface {
	ListSchemas(ctx context.Context) ([]string, error)
	GetSchema(ctx context.Context, schema string) (json.RawMessage, error)
	ListItems(ctx context.Context, schema string) ([]json.RawMessage, error)
	GetItem(ctx context.Context, schema, id string) (json.RawMessage, error)

	AllDatasetURLs(ctx context.Context) ([]string, error)
	DatasetsByTitle(ctx context.Context, title string) ([]metastore.Dataset, error)
	DatasetsByKeyword(ctx context.Context, keyword string) ([]metastore.Dataset, error)
	DatasetsByDescription(ctx context.Context, description string) ([]metastore.Dataset, error)
	DatasetsByDownloadURL(ctx context.Context, downloadURL string) ([]metastore.Dataset, error)
	DistributionsByDownloadURL(ctx context.Context, downloadURL string) ([]metastore.Distribution, error)
	DatasetToDistributionID(ctx context.Context, datasetID string) (string, error)
	DistributionToDatasetID(ctx context.Context, distributionID string) (string, error)
}

// MortalityService provides the merged CDC records
type MortalityService interface {
	Obtain(ctx context.Context) ([]mortality.Record, error)
}

// OrangeBookService provides the application-number joins
type OrangeBookService interface {
	ByApplicationNumber(ctx context.Context, number string) (orangebook.Bundle, error)
	ByNDC(ctx context.Context, ndc string) (orangebook.Bundle, error)
	ProductsByIngredient(ctx context.Context, ingredient string) ([]orangebook.Product, error)
}

// Validator checks user input before it reaches an upstream client
type Validator interface {
	ValidateInput(input string) error
	ValidateSearchTerm(term string) error
	ValidateSchema(schema string) error
	ValidateIdentifier(id string) error
	ValidateNDC(ndc string) (string, error)
	ValidateApplicationNumber(number string) (string, error)
	ValidateURL(raw string) error
	ValidateDate(s string) (time.Time, error)
}

// HTTPHandler defines the contract for the HTTP endpoints.
type HTTPHandler interface {
	// Metastore
	ListSchemas(w http.ResponseWriter, r *http.Request)
	GetSchema(w http.ResponseWriter, r *http.Request)
	ListItems(w http.ResponseWriter, r *http.Request)
	GetItem(w http.ResponseWriter, r *http.Request)
	DatasetURLs(w http.ResponseWriter, r *http.Request)
	SearchDatasets(w http.ResponseWriter, r *http.Request)
	DatasetToDistribution(w http.ResponseWriter, r *http.Request)
	DistributionToDataset(w http.ResponseWriter, r *http.Request)
	SearchDistributions(w http.ResponseWriter, r *http.Request)

	// Mortality
	ServeMortality(w http.ResponseWriter, r *http.Request)
	ServeMortalityChart(w http.ResponseWriter, r *http.Request)

	// Orange Book
	FindByApplicationNumber(w http.ResponseWriter, r *http.Request)
	FindByNDC(w http.ResponseWriter, r *http.Request)
	FindProducts(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
