package models

// Health represents the liveness of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// ProvidersStatus lists the health of every remote collaborator. Status is
// DEGRADED when any provider is not OK and FAIL when all of them fail.
type ProvidersStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
	Caches    []CacheStatus    `json:"caches"`
}

// CacheStatus describes a provider response cache. Fresh entries are served
// without a call; stale ones only stand in when the provider fails.
type CacheStatus struct {
	Provider string `json:"provider"`
	Entries  int    `json:"entries"`
	Fresh    int    `json:"fresh"`
	Stale    int    `json:"stale"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	Requests            uint32       `json:"requests"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}
