package config

import "time"

// Timeout constants. Requests are never retried; a timeout fails the whole
// operation it belongs to.
const (
	// Torn API requests
	APIRequestTimeout = 30 * time.Second

	// Session store
	StoreConnectTimeout = 10 * time.Second
	StoreQueryTimeout   = 5 * time.Second

	// Google Sheets and BigQuery publishing
	SheetWriteTimeout    = 30 * time.Second
	HistoryInsertTimeout = 30 * time.Second

	// SSH upload of the rendered page
	DeployDialTimeout = 30 * time.Second

	// HTTP server
	ServerReadHeaderTimeout = 5 * time.Second
	ServerReadTimeout       = 15 * time.Second
	ServerWriteTimeout      = 45 * time.Second
	ServerIdleTimeout       = 60 * time.Second
	ServerShutdownTimeout   = 10 * time.Second
)

// TimeoutConfig groups the timeouts of one outbound dependency
type TimeoutConfig struct {
	Connect time.Duration
	Request time.Duration
}

// Timeouts contains the timeouts of every outbound dependency
type Timeouts struct {
	TornAPI TimeoutConfig
	Store   TimeoutConfig
	Sheets  TimeoutConfig
	History TimeoutConfig
	Deploy  TimeoutConfig
}

// DefaultTimeouts provides the timeouts used by the binary
var DefaultTimeouts = Timeouts{
	TornAPI: TimeoutConfig{Connect: APIRequestTimeout, Request: APIRequestTimeout},
	Store:   TimeoutConfig{Connect: StoreConnectTimeout, Request: StoreQueryTimeout},
	Sheets:  TimeoutConfig{Connect: SheetWriteTimeout, Request: SheetWriteTimeout},
	History: TimeoutConfig{Connect: HistoryInsertTimeout, Request: HistoryInsertTimeout},
	Deploy:  TimeoutConfig{Connect: DeployDialTimeout, Request: DeployDialTimeout},
}
